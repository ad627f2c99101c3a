package session

import (
	"fmt"
	"time"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

const (
	kindMember = "member"
	kindAdmin  = "admin"
)

type PrincipalClaims struct {
	Kind          string `json:"kind"`
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	NIM           string `json:"nim,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
	IdentityQRRef string `json:"identity_qr_ref,omitempty"`
	Username      string `json:"username,omitempty"`
}

// Claims is the session as carried between requests.
type Claims struct {
	State          string           `json:"state"`
	SelectedRole   string           `json:"selected_role,omitempty"`
	AdminPanelOpen bool             `json:"admin_panel_open,omitempty"`
	Principal      *PrincipalClaims `json:"principal,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs sessions as HS256 JWTs. A zero TTL issues tokens without
// an expiry.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the codec's time source.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) Encode(s Session) (string, error) {
	now := c.now()
	claims := &Claims{
		State:          string(s.State),
		SelectedRole:   string(s.SelectedRole),
		AdminPanelOpen: s.AdminPanelOpen,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	switch p := s.Principal.(type) {
	case Member:
		claims.Subject = p.User.ID
		claims.Principal = &PrincipalClaims{
			Kind:          kindMember,
			ID:            p.User.ID,
			Name:          p.User.Name,
			NIM:           p.User.NIM,
			Email:         p.User.Email,
			Role:          string(p.User.Role),
			IdentityQRRef: p.User.IdentityQRRef,
		}
	case Administrator:
		claims.Subject = p.ActorID()
		claims.Principal = &PrincipalClaims{Kind: kindAdmin, Username: p.Username}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) Decode(tokenString string) (Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return Session{}, errors.ErrInvalidSession.WithCause(err)
	}

	s, err := claims.toSession()
	if err != nil {
		return Session{}, errors.ErrInvalidSession.WithCause(err)
	}
	return s, nil
}

func (cl *Claims) toSession() (Session, error) {
	s := Session{
		State:          State(cl.State),
		SelectedRole:   user.Role(cl.SelectedRole),
		AdminPanelOpen: cl.AdminPanelOpen,
	}
	if !s.State.valid() {
		return Session{}, fmt.Errorf("unknown state %q", cl.State)
	}
	if s.SelectedRole != "" && !s.SelectedRole.IsStandard() {
		return Session{}, fmt.Errorf("unknown selected role %q", cl.SelectedRole)
	}

	if cl.Principal != nil {
		switch cl.Principal.Kind {
		case kindMember:
			role := user.Role(cl.Principal.Role)
			if cl.Principal.ID == "" || !role.IsStandard() {
				return Session{}, fmt.Errorf("malformed member principal")
			}
			s.Principal = Member{User: user.User{
				ID:            cl.Principal.ID,
				Name:          cl.Principal.Name,
				NIM:           cl.Principal.NIM,
				Email:         cl.Principal.Email,
				Role:          role,
				IdentityQRRef: cl.Principal.IdentityQRRef,
			}}
		case kindAdmin:
			if cl.Principal.Username == "" {
				return Session{}, fmt.Errorf("malformed admin principal")
			}
			s.Principal = Administrator{Username: cl.Principal.Username}
		default:
			return Session{}, fmt.Errorf("unknown principal kind %q", cl.Principal.Kind)
		}
	}

	if (s.State == StateAuthenticated) != (s.Principal != nil) {
		return Session{}, fmt.Errorf("principal does not match state %s", s.State)
	}
	return s, nil
}
