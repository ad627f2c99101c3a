package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/campusid/parking-portal/internal/activity"
	activityPostgres "github.com/campusid/parking-portal/internal/activity/postgres"
	"github.com/campusid/parking-portal/internal/core/events"
	"github.com/campusid/parking-portal/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish user action events through the same bus and activity handler the server uses.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a user action event",
	Long:  `Publish a user action event so it lands in the actor's activity log, for backfills and debugging.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishUserAction(cmd.OutOrStdout(), args[0])
	},
}

var (
	eventActor  string
	eventAction string
)

var eventActions = map[string]string{
	events.EventTypeUserLoggedIn:      activity.ActionLogin,
	events.EventTypeAdminLoggedIn:     activity.ActionAdminLogin,
	events.EventTypeUserLoggedOut:     activity.ActionLogout,
	events.EventTypeVehicleRegistered: activity.ActionRegisterVehicle,
}

func publishUserAction(out io.Writer, eventType string) error {
	action, known := eventActions[eventType]
	if !known {
		return fmt.Errorf("unknown event type %q", eventType)
	}
	if eventAction != "" {
		action = eventAction
	}
	if eventActor == "" {
		return errors.New("--actor is required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	_, sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	defer sqlDB.Close()

	lg := logger.LoggerWrapper()
	activities := activity.NewService(activityPostgres.NewActivityRepository(sqlx.NewDb(sqlDB, "pgx")), lg)
	eventBus := events.NewEventBus(lg)
	activity.NewEventHandler(activities, lg).RegisterEventHandlers(eventBus)

	event := events.NewUserActionEvent(eventType, eventActor, action)
	lg.Info("publishing event", "event_type", eventType, "event_id", event.EventID(), "actor_id", eventActor)

	if err := eventBus.PublishSync(context.Background(), event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	fmt.Fprintf(out, "Recorded %q for %s\n", action, eventActor)
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventActor, "actor", "", "user id, or admin:<username> for the administrator")
	publishEventCmd.Flags().StringVar(&eventAction, "action", "", "override the action text recorded for the event type")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
