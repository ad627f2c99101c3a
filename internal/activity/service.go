package activity

import (
	"context"
	"log/slog"
	"sort"

	errors "github.com/campusid/parking-portal/internal"
	activityDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/activity"
)

type RepositoryAPI interface {
	Append(ctx context.Context, userID, action string) error
	// FindByUser returns at most limit rows for userID in no particular order.
	FindByUser(ctx context.Context, userID string, limit int) ([]*activityDatamodel.Entry, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record appends one entry. Callers on the login and logout paths log the
// returned error and carry on.
func (s *Service) Record(ctx context.Context, userID, action string) error {
	if s.repo == nil {
		return errors.ErrStoreUnavailable
	}
	if err := s.repo.Append(ctx, userID, action); err != nil {
		s.logger.Warn("failed to record activity", "user_id", userID, "action", action, "error", err)
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

// RecentForUser fetches up to limit entries by user id and sorts them newest
// first in process, so the store needs no composite index.
func (s *Service) RecentForUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.ErrStoreUnavailable
	}
	rows, err := s.repo.FindByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		s.logger.Error("failed to load activity", "user_id", userID, "error", err)
		return nil, errors.NewStoreUnavailableError(err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromDataModel(row))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return newerFirst(entries[i], entries[j])
	})
	return entries, nil
}
