package session_test

import (
	"time"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/session"
	"github.com/campusid/parking-portal/internal/user"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TokenCodec", func() {
	var codec *session.TokenCodec

	BeforeEach(func() {
		codec = session.NewTokenCodec("test-secret", 0)
	})

	DescribeTable("round-trips sessions",
		func(s session.Session) {
			token, err := codec.Encode(s)
			Expect(err).NotTo(HaveOccurred())
			decoded, err := codec.Decode(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(s))
		},
		Entry("fresh", session.New()),
		Entry("admin panel open", session.Session{State: session.StateRoleSelect, AdminPanelOpen: true}),
		Entry("login", session.Session{State: session.StateLogin, SelectedRole: user.RoleGuest}),
		Entry("member", session.Session{
			State:        session.StateAuthenticated,
			SelectedRole: user.RoleStudent,
			Principal: session.Member{User: user.User{
				ID: "u1", Name: "Alice", NIM: "1", Email: "a@x.com", Role: user.RoleStudent, IdentityQRRef: "https://cdn/identity/1.png",
			}},
		}),
		Entry("administrator", session.Session{
			State:     session.StateAuthenticated,
			Principal: session.Administrator{Username: "root"},
		}),
	)

	It("rejects tokens signed with another secret", func() {
		token, err := session.NewTokenCodec("other", 0).Encode(session.New())
		Expect(err).NotTo(HaveOccurred())
		_, err = codec.Decode(token)
		Expect(errors.HasCode(err, errors.ErrCodeInvalidSession)).To(BeTrue())
	})

	It("rejects garbage", func() {
		_, err := codec.Decode("not-a-token")
		Expect(errors.HasCode(err, errors.ErrCodeInvalidSession)).To(BeTrue())
	})

	It("rejects an authenticated state without a principal", func() {
		claims := &session.Claims{State: string(session.StateAuthenticated)}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		Expect(err).NotTo(HaveOccurred())
		_, err = codec.Decode(token)
		Expect(errors.HasCode(err, errors.ErrCodeInvalidSession)).To(BeTrue())
	})

	It("rejects a member claiming the admin role", func() {
		claims := &session.Claims{
			State:     string(session.StateAuthenticated),
			Principal: &session.PrincipalClaims{Kind: "member", ID: "u1", Role: "admin"},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		Expect(err).NotTo(HaveOccurred())
		_, err = codec.Decode(token)
		Expect(errors.HasCode(err, errors.ErrCodeInvalidSession)).To(BeTrue())
	})

	It("expires tokens when a ttl is configured", func() {
		issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		withTTL := session.NewTokenCodec("test-secret", time.Hour).WithClock(func() time.Time { return issued })
		token, err := withTTL.Encode(session.New())
		Expect(err).NotTo(HaveOccurred())

		_, err = withTTL.Decode(token)
		Expect(err).NotTo(HaveOccurred())

		later := withTTL.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })
		_, err = later.Decode(token)
		Expect(errors.HasCode(err, errors.ErrCodeInvalidSession)).To(BeTrue())
	})
})
