package session

import (
	"io"
	"net/http"
	"strconv"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/transport"
	"github.com/campusid/parking-portal/internal/user"
	"github.com/campusid/parking-portal/pkg/logger"
)

const DefaultMaxPhotoBytes = 5 << 20

type Handler struct {
	*transport.BaseHandler
	Controller    *Controller
	Tokens        *TokenCodec
	MaxPhotoBytes int64
}

func NewHandler(baseHandler *transport.BaseHandler, controller *Controller, tokens *TokenCodec) *Handler {
	return &Handler{
		BaseHandler:   baseHandler,
		Controller:    controller,
		Tokens:        tokens,
		MaxPhotoBytes: DefaultMaxPhotoBytes,
	}
}

type PrincipalView struct {
	Kind          string    `json:"kind"`
	ID            string    `json:"id,omitempty"`
	Name          string    `json:"name"`
	NIM           string    `json:"nim,omitempty"`
	Email         string    `json:"email,omitempty"`
	Role          user.Role `json:"role"`
	IdentityQRRef string    `json:"identity_qr_ref,omitempty"`
}

type View struct {
	State          State          `json:"state"`
	SelectedRole   user.Role      `json:"selected_role,omitempty"`
	AdminPanelOpen bool           `json:"admin_panel_open"`
	Principal      *PrincipalView `json:"principal,omitempty"`
	Menu           []Feature      `json:"menu,omitempty"`
}

func NewView(s Session) View {
	v := View{
		State:          s.State,
		SelectedRole:   s.SelectedRole,
		AdminPanelOpen: s.AdminPanelOpen,
		Menu:           MenuFor(s.Principal),
	}
	switch p := s.Principal.(type) {
	case Member:
		v.Principal = &PrincipalView{
			Kind:          kindMember,
			ID:            p.User.ID,
			Name:          p.User.Name,
			NIM:           p.User.NIM,
			Email:         p.User.Email,
			Role:          p.User.Role,
			IdentityQRRef: p.User.IdentityQRRef,
		}
	case Administrator:
		v.Principal = &PrincipalView{Kind: kindAdmin, Name: p.Username, Role: user.RoleAdmin}
	}
	return v
}

type Response struct {
	Session View   `json:"session"`
	Token   string `json:"token"`
}

type IdentityQRResponse struct {
	IdentityQRRef string `json:"identity_qr_ref"`
	Response
}

type RoleRequest struct {
	Role string `json:"role"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionMiddleware decodes the bearer token into the request context.
// Requests without a token start from a fresh session.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := New()
		if token := h.ExtractTokenFromHeader(r); token != "" {
			decoded, err := h.Tokens.Decode(token)
			if err != nil {
				h.HandleError(w, r, err)
				return
			}
			s = decoded
		}

		ctx := WithSession(r.Context(), s)
		if s.Principal != nil {
			ctx = logger.With(ctx, "actor_id", s.Principal.ActorID())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, s Session) {
	resp, err := h.newResponse(s)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, status, resp)
}

func (h *Handler) newResponse(s Session) (Response, error) {
	token, err := h.Tokens.Encode(s)
	if err != nil {
		return Response{}, errors.NewInternalError("failed to issue session token", err)
	}
	return Response{Session: NewView(s), Token: token}, nil
}

// transition applies action to the request's session and answers with the next one.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action func(s Session) (Session, error)) {
	next, err := action(FromContext(r.Context()))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, next)
}

func (h *Handler) NewSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusCreated, New())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, FromContext(r.Context()))
}

func (h *Handler) SelectRole(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		var req RoleRequest
		if err := h.DecodeJSON(r, &req); err != nil {
			return s, err
		}
		return h.Controller.SelectRole(r.Context(), s, req.Role)
	})
}

func (h *Handler) OpenAdminPanel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		return h.Controller.OpenAdminPanel(r.Context(), s)
	})
}

func (h *Handler) CloseAdminPanel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		return h.Controller.CloseAdminPanel(r.Context(), s)
	})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		var req AdminLoginRequest
		if err := h.DecodeJSON(r, &req); err != nil {
			return s, err
		}
		return h.Controller.AdminLogin(r.Context(), s, req.Username, req.Password)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		var dto user.LoginDTO
		if err := h.DecodeJSON(r, &dto); err != nil {
			return s, err
		}
		return h.Controller.Login(r.Context(), s, dto)
	})
}

func (h *Handler) StartRegistration(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		return h.Controller.StartRegistration(r.Context(), s)
	})
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		return h.Controller.Back(r.Context(), s)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		var dto user.RegisterDTO
		if err := h.DecodeJSON(r, &dto); err != nil {
			return s, err
		}
		return h.Controller.Register(r.Context(), s, dto)
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s Session) (Session, error) {
		return h.Controller.Logout(r.Context(), s)
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Controller.Profile(r.Context(), FromContext(r.Context()))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.HandleError(w, r, errors.NewValidationFieldError("limit", "limit must be a number", errors.ErrCodeValidationFailed))
			return
		}
		limit = parsed
	}

	entries, err := h.Controller.Activity(r.Context(), FromContext(r.Context()), limit)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"activity": entries})
}

func (h *Handler) IdentityQR(w http.ResponseWriter, r *http.Request) {
	next, ref, err := h.Controller.IdentityQR(r.Context(), FromContext(r.Context()))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	resp, err := h.newResponse(next)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, IdentityQRResponse{IdentityQRRef: ref, Response: resp})
}

// RegisterVehicle reads a multipart form with plate, vehicle_type and a photo file.
func (h *Handler) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxPhotoBytes+(1<<20))
	if err := r.ParseMultipartForm(h.MaxPhotoBytes); err != nil {
		h.HandleError(w, r, errors.NewValidationError("invalid multipart form", errors.ErrCodeValidationFailed).WithCause(err))
		return
	}

	form := VehicleForm{
		Plate: r.FormValue("plate"),
		Type:  r.FormValue("vehicle_type"),
	}
	if file, _, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		photo, err := io.ReadAll(file)
		if err != nil {
			h.HandleError(w, r, errors.NewValidationError("unreadable photo", errors.ErrCodeValidationFailed).WithCause(err))
			return
		}
		form.Photo = photo
	}

	v, err := h.Controller.RegisterVehicle(r.Context(), FromContext(r.Context()), form)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) MyVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Controller.MyVehicles(r.Context(), FromContext(r.Context()))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"vehicles": vehicles})
}

func (h *Handler) AllVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Controller.AllVehicles(r.Context(), FromContext(r.Context()))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"vehicles": vehicles})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Controller.Dashboard(r.Context(), FromContext(r.Context()))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, dashboard)
}
