package session_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/campusid/parking-portal/internal/session"
	"github.com/campusid/parking-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Handler", func() {
	var (
		f      *fixture
		router *chi.Mux
		token  string
	)

	do := func(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, body)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	doJSON := func(method, path string, payload interface{}) *httptest.ResponseRecorder {
		var body io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())
			body = bytes.NewReader(raw)
		}
		return do(method, path, body, "application/json")
	}

	// step performs a session transition and keeps the returned token.
	step := func(method, path string, payload interface{}) session.View {
		rec := doJSON(method, path, payload)
		Expect(rec.Code).To(BeNumerically("<", 300), rec.Body.String())
		var resp session.Response
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		token = resp.Token
		return resp.Session
	}

	errorCode := func(rec *httptest.ResponseRecorder) string {
		var body errorBody
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		return body.Error.Code
	}

	BeforeEach(func() {
		f = newFixture(GinkgoT().TempDir())
		token = ""
		h := session.NewHandler(
			transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil))),
			f.controller,
			session.NewTokenCodec("handler-secret", 0),
		)

		router = chi.NewRouter()
		router.Post("/session", h.NewSession)
		router.Group(func(r chi.Router) {
			r.Use(h.SessionMiddleware)
			r.Get("/session", h.GetSession)
			r.Post("/session/role", h.SelectRole)
			r.Post("/session/admin-panel", h.OpenAdminPanel)
			r.Post("/session/admin-login", h.AdminLogin)
			r.Post("/session/register-instead", h.StartRegistration)
			r.Post("/session/register", h.Register)
			r.Post("/session/logout", h.Logout)
			r.Get("/me/identity-qr", h.IdentityQR)
			r.Post("/me/vehicles", h.RegisterVehicle)
			r.Get("/me/vehicles", h.MyVehicles)
			r.Get("/me/activity", h.Activity)
			r.Get("/admin/vehicles", h.AllVehicles)
		})
	})

	It("walks a member through registration and vehicle sign-up", func() {
		view := step(http.MethodPost, "/session", nil)
		Expect(view.State).To(Equal(session.StateRoleSelect))

		step(http.MethodPost, "/session/role", map[string]string{"role": "student"})
		step(http.MethodPost, "/session/register-instead", nil)
		view = step(http.MethodPost, "/session/register", map[string]string{
			"name": "Alice", "nim": "1", "email": "a@x.com", "password": "p",
		})
		Expect(view.State).To(Equal(session.StateAuthenticated))
		Expect(view.Principal.Name).To(Equal("Alice"))
		Expect(view.Menu).To(ContainElement(session.FeatureRegisterVehicle))

		rec := doJSON(http.MethodGet, "/me/identity-qr", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var qrResp session.IdentityQRResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &qrResp)).To(Succeed())
		Expect(qrResp.IdentityQRRef).To(Equal("https://cdn.example.id/identity/1-" + view.Principal.ID + ".png"))
		Expect(qrResp.Session.Principal.IdentityQRRef).To(Equal(qrResp.IdentityQRRef))
		token = qrResp.Token

		var form bytes.Buffer
		mw := multipart.NewWriter(&form)
		Expect(mw.WriteField("plate", "D9")).To(Succeed())
		Expect(mw.WriteField("vehicle_type", "motor")).To(Succeed())
		part, err := mw.CreateFormFile("photo", "bike.jpg")
		Expect(err).NotTo(HaveOccurred())
		part.Write(jpegPhoto)
		Expect(mw.Close()).To(Succeed())

		rec = do(http.MethodPost, "/me/vehicles", &form, mw.FormDataContentType())
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())

		rec = doJSON(http.MethodGet, "/me/vehicles", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"plate":"D9"`))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"pending"`))

		rec = doJSON(http.MethodGet, "/admin/vehicles", nil)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(rec)).To(Equal("FORBIDDEN"))

		view = step(http.MethodPost, "/session/logout", nil)
		Expect(view.State).To(Equal(session.StateRoleSelect))
		Expect(view.Principal).To(BeNil())
	})

	It("rejects a vehicle without a photo", func() {
		step(http.MethodPost, "/session/role", map[string]string{"role": "guest"})
		step(http.MethodPost, "/session/register-instead", nil)
		step(http.MethodPost, "/session/register", map[string]string{
			"name": "Gina", "nim": "9", "email": "g@x.com", "password": "p",
		})

		var form bytes.Buffer
		mw := multipart.NewWriter(&form)
		mw.WriteField("plate", "D9")
		mw.WriteField("vehicle_type", "motor")
		mw.Close()

		rec := do(http.MethodPost, "/me/vehicles", &form, mw.FormDataContentType())
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(rec)).To(Equal("VALIDATION_FAILED"))
		Expect(f.vehicles.vehicles).To(BeEmpty())
	})

	It("answers 401 for gated routes without a login", func() {
		rec := doJSON(http.MethodGet, "/me/vehicles", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(rec)).To(Equal("UNAUTHENTICATED"))
	})

	It("answers 409 for transitions from the wrong state", func() {
		rec := doJSON(http.MethodPost, "/session/logout", nil)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(rec)).To(Equal("INVALID_TRANSITION"))
	})

	It("rejects tampered tokens", func() {
		token = "tampered.token.value"
		rec := doJSON(http.MethodGet, "/session", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(rec)).To(Equal("INVALID_SESSION"))
	})

	It("logs the administrator in and lists all vehicles", func() {
		step(http.MethodPost, "/session/admin-panel", nil)
		view := step(http.MethodPost, "/session/admin-login", map[string]string{
			"username": adminUsername, "password": adminPassword,
		})
		Expect(view.Principal.Role).To(BeEquivalentTo("admin"))

		rec := doJSON(http.MethodGet, "/admin/vehicles", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		rec = doJSON(http.MethodGet, "/me/activity?limit=5", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("login admin"))
	})

	It("does not reveal which credential was wrong", func() {
		step(http.MethodPost, "/session/admin-panel", nil)
		rec := doJSON(http.MethodPost, "/session/admin-login", map[string]string{
			"username": adminUsername, "password": "bad",
		})
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(rec)).To(Equal("INVALID_CREDENTIALS"))
	})
})
