package user

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/campusid/parking-portal/internal"
	userDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/user"
	"github.com/campusid/parking-portal/internal/credential"
)

// RepositoryAPI returns (nil, nil) from the Get methods when no row matches.
type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByEmailAndRole(ctx context.Context, email, role string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	UpdateIdentityQRRef(ctx context.Context, id, ref string) error
}

type Service struct {
	repo   RepositoryAPI
	hasher credential.Hasher
	logger *slog.Logger
}

// NewService accepts a nil repo; every call then fails with ErrStoreUnavailable.
func NewService(repo RepositoryAPI, hasher credential.Hasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	role, err := ParseStandardRole(dto.Role)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, errors.ErrStoreUnavailable
	}

	email := NormalizeEmail(dto.Email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to look up email", "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}
	if existing != nil {
		s.logger.Info("registration rejected, email taken", "role", existing.Role)
		return nil, errors.ErrDuplicateEmail
	}

	digest, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	record := &userDatamodel.User{
		Name:         strings.TrimSpace(dto.Name),
		NIM:          strings.TrimSpace(dto.NIM),
		Email:        email,
		PasswordHash: digest,
		Role:         string(role),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.HasCode(err, errors.ErrCodeDuplicateEmail) {
			return nil, errors.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}

	s.logger.Info("user registered", "user_id", record.ID, "role", record.Role)
	return FromDataModel(record), nil
}

// FindForLogin looks a user up by email within one role.
func (s *Service) FindForLogin(ctx context.Context, email string, role Role) (*User, error) {
	if s.repo == nil {
		return nil, errors.ErrStoreUnavailable
	}
	record, err := s.repo.GetByEmailAndRole(ctx, NormalizeEmail(email), string(role))
	if err != nil {
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}
	if record == nil {
		return nil, errors.ErrUserNotFound
	}
	return FromDataModel(record), nil
}

// Authenticate reports unknown email, wrong role and wrong password as the same
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO, role Role) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if !role.IsStandard() {
		return nil, errors.ErrInvalidCredentials
	}

	u, err := s.FindForLogin(ctx, dto.Email, role)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeUserNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, dto.Password) {
		s.logger.Info("password mismatch", "user_id", u.ID)
		return nil, errors.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	if s.repo == nil {
		return nil, errors.ErrStoreUnavailable
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}
	if record == nil {
		return nil, errors.ErrUserNotFound
	}
	return FromDataModel(record), nil
}

func (s *Service) UpdateIdentityQRRef(ctx context.Context, id, ref string) error {
	if s.repo == nil {
		return errors.ErrStoreUnavailable
	}
	if err := s.repo.UpdateIdentityQRRef(ctx, id, ref); err != nil {
		if errors.HasCode(err, errors.ErrCodeUserNotFound) {
			return err
		}
		s.logger.Error("failed to store identity qr reference", "user_id", id, "error", err)
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}
