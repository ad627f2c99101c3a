package user

import (
	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/core/common/validation"
)

// RegisterDTO carries the sign-up form fields.
type RegisterDTO struct {
	Name     string `json:"name"`
	NIM      string `json:"nim"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (d RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(120)
	v.Field("nim", d.NIM).Required().MaxLength(32)
	v.Field("email", d.Email).Required().MaxLength(254)
	v.Field("password", d.Password).Required()
	v.Field("role", d.Role).Required().OneOf(errors.ErrCodeInvalidRole, roleNames()...)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// LoginDTO carries the login form fields; the role comes from the session's role selection.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required()
	v.Field("password", d.Password).Required()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
