package activity_test

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"io"
	"log/slog"
	"testing"
	"time"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/activity"
	activityDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/activity"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestActivity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Activity Suite")
}

// MockRepository stores rows in insertion order and stamps them with clock().
type MockRepository struct {
	rows      []*activityDatamodel.Entry
	clock     func() sql.NullTime
	failError error
	lastLimit int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		clock: func() sql.NullTime { return sql.NullTime{Time: time.Now(), Valid: true} },
	}
}

func (m *MockRepository) Append(_ context.Context, userID, action string) error {
	if m.failError != nil {
		return m.failError
	}
	m.rows = append(m.rows, &activityDatamodel.Entry{UserID: userID, Action: action, CreatedAt: m.clock()})
	return nil
}

func (m *MockRepository) FindByUser(_ context.Context, userID string, limit int) ([]*activityDatamodel.Entry, error) {
	m.lastLimit = limit
	if m.failError != nil {
		return nil, m.failError
	}
	var out []*activityDatamodel.Entry
	for _, r := range m.rows {
		if r.UserID == userID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func at(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

var _ = Describe("Activity Service", func() {
	var (
		ctx     context.Context
		repo    *MockRepository
		service *activity.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = NewMockRepository()
		service = activity.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	Describe("RecentForUser", func() {
		It("orders entries newest first whatever the insertion order", func() {
			t1 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
			t2 := t1.Add(time.Minute)
			t3 := t2.Add(time.Minute)
			repo.rows = []*activityDatamodel.Entry{
				{UserID: "u1", Action: "b", CreatedAt: at(t2)},
				{UserID: "u1", Action: "c", CreatedAt: at(t3)},
				{UserID: "u2", Action: "other", CreatedAt: at(t3)},
				{UserID: "u1", Action: "a", CreatedAt: at(t1)},
			}

			entries, err := service.RecentForUser(ctx, "u1", 10)
			Expect(err).NotTo(HaveOccurred())

			actions := []string{}
			for _, e := range entries {
				actions = append(actions, e.Action)
			}
			Expect(actions).To(Equal([]string{"c", "b", "a"}))
		})

		It("sorts entries without a timestamp as oldest", func() {
			repo.rows = []*activityDatamodel.Entry{
				{UserID: "u1", Action: "unstamped"},
				{UserID: "u1", Action: "stamped", CreatedAt: at(time.Unix(0, 0))},
			}

			entries, err := service.RecentForUser(ctx, "u1", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Action).To(Equal("stamped"))
			Expect(entries[1].Action).To(Equal("unstamped"))
			Expect(entries[1].CreatedAt).To(BeNil())
		})

		DescribeTable("clamps the limit",
			func(requested, expected int) {
				_, err := service.RecentForUser(ctx, "u1", requested)
				Expect(err).NotTo(HaveOccurred())
				Expect(repo.lastLimit).To(Equal(expected))
			},
			Entry("zero uses the default", 0, activity.DefaultRecentLimit),
			Entry("negative uses the default", -5, activity.DefaultRecentLimit),
			Entry("in range is kept", 3, 3),
			Entry("too large is capped", 1000, activity.MaxRecentLimit),
		)

		It("reports store failures as unavailable", func() {
			repo.failError = stdErrors.New("boom")
			_, err := service.RecentForUser(ctx, "u1", 10)
			Expect(errors.HasCode(err, errors.ErrCodeStoreUnavailable)).To(BeTrue())
		})
	})

	Describe("Record", func() {
		It("appends an entry", func() {
			Expect(service.Record(ctx, "u1", activity.ActionLogin)).To(Succeed())
			Expect(repo.rows).To(HaveLen(1))
			Expect(repo.rows[0].Action).To(Equal("login"))
		})

		It("returns an error without a store", func() {
			service = activity.NewService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
			Expect(service.Record(ctx, "u1", "login")).To(Equal(errors.ErrStoreUnavailable))
		})
	})
})
