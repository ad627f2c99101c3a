package activity_test

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"

	"github.com/campusid/parking-portal/internal/activity"
	"github.com/campusid/parking-portal/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Activity EventHandler", func() {
	var (
		ctx  context.Context
		repo *MockRepository
		bus  *events.EventBus
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		repo = NewMockRepository()
		bus = events.NewEventBus(logger)
		activity.NewEventHandler(activity.NewService(repo, logger), logger).RegisterEventHandlers(bus)
	})

	It("records published user actions", func() {
		Expect(bus.PublishSync(ctx, events.NewUserActionEvent(events.EventTypeUserLoggedIn, "u1", activity.ActionLogin))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewUserActionEvent(events.EventTypeAdminLoggedIn, "admin:root", activity.ActionAdminLogin))).To(Succeed())

		Expect(repo.rows).To(HaveLen(2))
		Expect(repo.rows[0].UserID).To(Equal("u1"))
		Expect(repo.rows[1].Action).To(Equal("login admin"))
	})

	It("surfaces store failures to the publisher", func() {
		repo.failError = stdErrors.New("down")
		err := bus.PublishSync(ctx, events.NewUserActionEvent(events.EventTypeUserLoggedOut, "u1", activity.ActionLogout))
		Expect(err).To(HaveOccurred())
	})

	It("rejects foreign event payloads", func() {
		err := bus.PublishSync(ctx, events.BaseEvent{ID: "x", Type: events.EventTypeUserLoggedIn})
		Expect(err).To(HaveOccurred())
		Expect(repo.rows).To(BeEmpty())
	})
})
