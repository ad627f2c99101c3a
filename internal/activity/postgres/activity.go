package postgres

import (
	"context"
	"fmt"

	"github.com/campusid/parking-portal/internal/activity"
	activityDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/activity"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository works with any driver sqlx knows the bind style of
// ("pgx" in production, "sqlite3" in tests).
func NewActivityRepository(db *sqlx.DB) activity.RepositoryAPI {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Append(ctx context.Context, userID, action string) error {
	query := r.db.Rebind(`
INSERT INTO activity_logs (id, user_id, action, created_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)`)
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, action); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*activityDatamodel.Entry, error) {
	query := r.db.Rebind(`
SELECT id, user_id, action, created_at
FROM activity_logs
WHERE user_id = ?
LIMIT ?`)
	var rows []*activityDatamodel.Entry
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("find activity by user: %w", err)
	}
	return rows, nil
}
