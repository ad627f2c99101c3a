package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusid/parking-portal/internal/core/events"
)

// EventHandler turns user action events into activity log entries.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandleUserAction(ctx context.Context, event events.Event) error {
	actionEvent, ok := event.(*events.UserActionEvent)
	if !ok {
		h.logger.Error("invalid event type for activity handler", "event_type", event.EventType())
		return fmt.Errorf("expected UserActionEvent, got %T", event)
	}

	if err := h.service.Record(ctx, actionEvent.ActorID, actionEvent.Action); err != nil {
		return fmt.Errorf("record %q for %s: %w", actionEvent.Action, actionEvent.ActorID, err)
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	types := []string{
		events.EventTypeUserLoggedIn,
		events.EventTypeAdminLoggedIn,
		events.EventTypeUserLoggedOut,
		events.EventTypeVehicleRegistered,
	}
	for _, t := range types {
		eventBus.Subscribe(t, h.HandleUserAction)
	}

	h.logger.Info("activity event handlers registered", "handlers", types)
}
