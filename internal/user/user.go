package user

import (
	"strings"
	"time"

	errors "github.com/campusid/parking-portal/internal"
	userDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/user"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleStaff    Role = "staff"
	RoleGuest    Role = "guest"
	RoleAdmin    Role = "admin"
)

// StandardRoles are the roles a person can sign up and log in with.
// RoleAdmin is reserved for the configured administrator.
var StandardRoles = []Role{RoleStudent, RoleLecturer, RoleStaff, RoleGuest}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) IsStandard() bool {
	for _, s := range StandardRoles {
		if r == s {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseStandardRole accepts one of StandardRoles, ignoring case and surrounding spaces.
func ParseStandardRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.IsStandard() {
		return "", errors.NewValidationFieldError("role", "role must be one of: student, lecturer, staff, guest", errors.ErrCodeInvalidRole)
	}
	return r, nil
}

func roleNames() []string {
	names := make([]string, len(StandardRoles))
	for i, r := range StandardRoles {
		names[i] = string(r)
	}
	return names
}

type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	NIM           string    `json:"nim"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	IdentityQRRef string    `json:"identity_qr_ref"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) HasIdentityQR() bool {
	return u.IdentityQRRef != ""
}

// NormalizeEmail is applied on every write and lookup so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:            u.ID,
		Name:          u.Name,
		NIM:           u.NIM,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		IdentityQRRef: u.IdentityQRRef,
		CreatedAt:     u.CreatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:            u.ID,
		Name:          u.Name,
		NIM:           u.NIM,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          Role(u.Role),
		IdentityQRRef: u.IdentityQRRef,
		CreatedAt:     u.CreatedAt,
	}
}
