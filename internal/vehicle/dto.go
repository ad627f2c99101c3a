package vehicle

import (
	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/core/common/validation"
	"github.com/campusid/parking-portal/internal/user"
)

// RegisterDTO is filled by the session controller: the owner fields come from
// the logged in user, the rest from the vehicle form.
type RegisterDTO struct {
	OwnerID   string
	OwnerName string
	OwnerNIM  string
	OwnerRole user.Role
	Plate     string
	Type      string
	Photo     []byte
}

func (d RegisterDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("plate", d.Plate).Required().MaxLength(32)
	v.Field("vehicle_type", d.Type).Required().Custom(func(value interface{}) *errors.AppError {
		s, _ := value.(string)
		if _, err := ParseType(s); err != nil {
			appErr, _ := errors.IsAppError(err)
			return appErr
		}
		return nil
	})
	v.Field("photo", d.Photo).Required()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
