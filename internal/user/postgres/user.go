package postgres

import (
	"context"
	stdErrors "errors"

	errors "github.com/campusid/parking-portal/internal"
	userDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/user"
	"github.com/campusid/parking-portal/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository expects db to be opened with TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.ErrDuplicateEmail.WithCause(err)
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByEmailAndRole(ctx context.Context, email, role string) (*userDatamodel.User, error) {
	return r.first(ctx, "email = ? AND role = ?", email, role)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) UpdateIdentityQRRef(ctx context.Context, id, ref string) error {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Update("identity_qr_ref", ref)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
