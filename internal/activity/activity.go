package activity

import (
	"time"

	activityDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/activity"
)

const (
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionAdminLogin      = "login admin"
	ActionRegisterVehicle = "register vehicle"

	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

type Entry struct {
	UserID    string     `json:"user_id"`
	Action    string     `json:"action"`
	CreatedAt *time.Time `json:"created_at"`
}

func FromDataModel(e *activityDatamodel.Entry) Entry {
	entry := Entry{
		UserID: e.UserID,
		Action: e.Action,
	}
	if e.CreatedAt.Valid {
		t := e.CreatedAt.Time
		entry.CreatedAt = &t
	}
	return entry
}

// newerFirst orders entries by descending timestamp, entries without one last.
func newerFirst(a, b Entry) bool {
	switch {
	case a.CreatedAt == nil:
		return false
	case b.CreatedAt == nil:
		return true
	default:
		return a.CreatedAt.After(*b.CreatedAt)
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}
