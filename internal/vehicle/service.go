package vehicle

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/blob"
	vehicleDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/vehicle"
	"github.com/campusid/parking-portal/internal/qr"
	"github.com/google/uuid"
)

// CountRow is one group of the dashboard aggregate.
type CountRow struct {
	VehicleType string
	Status      string
	Total       int64
}

type RepositoryAPI interface {
	Create(ctx context.Context, v *vehicleDatamodel.Vehicle) error
	// ListByOwner and ListAll return newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*vehicleDatamodel.Vehicle, error)
	ListAll(ctx context.Context) ([]*vehicleDatamodel.Vehicle, error)
	CountByTypeAndStatus(ctx context.Context) ([]CountRow, error)
}

type Service struct {
	repo   RepositoryAPI
	blobs  blob.Store
	codec  qr.Codec
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, blobs blob.Store, codec qr.Codec, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		codec:  codec,
		logger: logger,
	}
}

// Register uploads the photo, then the vehicle QR, then writes the record.
// Blobs already uploaded are kept when a later step fails.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*Vehicle, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	vehicleType, err := ParseType(dto.Type)
	if err != nil {
		return nil, err
	}
	if s.repo == nil || s.blobs == nil {
		return nil, errors.ErrStoreUnavailable
	}

	plate := strings.TrimSpace(dto.Plate)
	// The id is fixed before upload so each registration owns its blobs,
	// even when plates repeat or slugify alike.
	id := uuid.NewString()

	contentType, ext := sniffPhoto(dto.Photo)
	photoURL, err := s.blobs.Put(ctx, blob.ObjectPath("photos", "", plate, id, ext), dto.Photo, contentType)
	if err != nil {
		s.logger.Error("vehicle photo upload failed", "plate", plate, "error", err)
		return nil, errors.NewUploadFailedError("failed to upload vehicle photo", err)
	}

	png, err := s.codec.Encode(Token(plate))
	if err != nil {
		return nil, errors.NewInternalError("failed to render vehicle qr", err)
	}
	qrURL, err := s.blobs.Put(ctx, blob.ObjectPath("qr", "qr_", plate, id, ".png"), png, "image/png")
	if err != nil {
		s.logger.Error("vehicle qr upload failed", "plate", plate, "error", err)
		return nil, errors.NewUploadFailedError("failed to upload vehicle qr", err)
	}

	record := &vehicleDatamodel.Vehicle{
		ID:          id,
		OwnerID:     dto.OwnerID,
		OwnerName:   dto.OwnerName,
		OwnerNIM:    dto.OwnerNIM,
		Plate:       plate,
		VehicleType: string(vehicleType),
		PhotoURL:    photoURL,
		QRURL:       qrURL,
		OwnerRole:   string(dto.OwnerRole),
		Status:      string(StatusPending),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("failed to create vehicle", "plate", plate, "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}

	s.logger.Info("vehicle registered", "vehicle_id", record.ID, "owner_id", record.OwnerID, "type", record.VehicleType)
	return FromDataModel(record), nil
}

func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]*Vehicle, error) {
	if s.repo == nil {
		return nil, errors.ErrStoreUnavailable
	}
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list vehicles for owner", "owner_id", ownerID, "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}
	return fromDataModels(rows), nil
}

// ListAll is only reachable from the admin menu.
func (s *Service) ListAll(ctx context.Context) ([]*Vehicle, error) {
	if s.repo == nil {
		return nil, errors.ErrStoreUnavailable
	}
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list vehicles", "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}
	return fromDataModels(rows), nil
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if s.repo == nil {
		return nil, errors.ErrStoreUnavailable
	}
	rows, err := s.repo.CountByTypeAndStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count vehicles", "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}

	summary := &Summary{
		ByType:   map[Type]int64{TypeMotor: 0, TypeCar: 0, TypeOther: 0},
		ByStatus: map[Status]int64{StatusPending: 0, StatusApproved: 0, StatusRejected: 0},
	}
	for _, r := range rows {
		summary.Total += r.Total
		summary.ByType[Type(r.VehicleType)] += r.Total
		summary.ByStatus[Status(r.Status)] += r.Total
	}
	return summary, nil
}
