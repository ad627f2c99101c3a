package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserLoggedIn      = "user.logged_in"
	EventTypeAdminLoggedIn     = "admin.logged_in"
	EventTypeUserLoggedOut     = "user.logged_out"
	EventTypeVehicleRegistered = "vehicle.registered"
)

// UserActionEvent is raised by the session controller for every action that
// ends up in the activity log. ActorID is a user id, or "admin:<username>"
// for the administrator.
type UserActionEvent struct {
	BaseEvent
	ActorID string `json:"actor_id"`
	Action  string `json:"action"`
}

func NewUserActionEvent(eventType, actorID, action string) *UserActionEvent {
	return &UserActionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"actor_id": actorID,
				"action":   action,
			},
		},
		ActorID: actorID,
		Action:  action,
	}
}
