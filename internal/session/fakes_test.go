package session_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/activity"
	activityDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/activity"
	userDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/user"
	vehicleDatamodel "github.com/campusid/parking-portal/internal/core/datamodel/vehicle"
	"github.com/campusid/parking-portal/internal/core/events"
	"github.com/campusid/parking-portal/internal/credential"
	"github.com/campusid/parking-portal/internal/identity"
	"github.com/campusid/parking-portal/internal/qr"
	"github.com/campusid/parking-portal/internal/session"
	"github.com/campusid/parking-portal/internal/user"
	"github.com/campusid/parking-portal/internal/vehicle"
	"github.com/google/uuid"
)

// clock hands out strictly increasing timestamps.
type clock struct {
	mu   sync.Mutex
	next time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.next.Add(time.Second)
	return c.next
}

type userRepo struct {
	users map[string]*userDatamodel.User
	down  bool
}

func (m *userRepo) Create(_ context.Context, u *userDatamodel.User) error {
	if m.down {
		return errors.ErrStoreUnavailable
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return errors.ErrDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *userRepo) find(match func(*userDatamodel.User) bool) (*userDatamodel.User, error) {
	if m.down {
		return nil, errors.ErrStoreUnavailable
	}
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *userRepo) GetByEmail(_ context.Context, email string) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.Email == email })
}

func (m *userRepo) GetByEmailAndRole(_ context.Context, email, role string) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.Email == email && u.Role == role })
}

func (m *userRepo) GetByID(_ context.Context, id string) (*userDatamodel.User, error) {
	return m.find(func(u *userDatamodel.User) bool { return u.ID == id })
}

func (m *userRepo) UpdateIdentityQRRef(_ context.Context, id, ref string) error {
	u, ok := m.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.IdentityQRRef = ref
	return nil
}

type activityRepo struct {
	rows  []*activityDatamodel.Entry
	clock *clock
	fail  bool
}

func (m *activityRepo) Append(_ context.Context, userID, action string) error {
	if m.fail {
		return errors.ErrStoreUnavailable
	}
	m.rows = append(m.rows, &activityDatamodel.Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		CreatedAt: sql.NullTime{Time: m.clock.now(), Valid: true},
	})
	return nil
}

func (m *activityRepo) FindByUser(_ context.Context, userID string, limit int) ([]*activityDatamodel.Entry, error) {
	var out []*activityDatamodel.Entry
	for _, r := range m.rows {
		if r.UserID == userID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *activityRepo) actionsFor(userID string) []string {
	var out []string
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r.Action)
		}
	}
	return out
}

type vehicleRepo struct {
	vehicles []*vehicleDatamodel.Vehicle
	clock    *clock
}

func (m *vehicleRepo) Create(_ context.Context, v *vehicleDatamodel.Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = m.clock.now()
	m.vehicles = append(m.vehicles, v)
	return nil
}

func (m *vehicleRepo) newestFirst(keep func(*vehicleDatamodel.Vehicle) bool) []*vehicleDatamodel.Vehicle {
	var out []*vehicleDatamodel.Vehicle
	for _, v := range m.vehicles {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *vehicleRepo) ListByOwner(_ context.Context, ownerID string) ([]*vehicleDatamodel.Vehicle, error) {
	return m.newestFirst(func(v *vehicleDatamodel.Vehicle) bool { return v.OwnerID == ownerID }), nil
}

func (m *vehicleRepo) ListAll(_ context.Context) ([]*vehicleDatamodel.Vehicle, error) {
	return m.newestFirst(func(*vehicleDatamodel.Vehicle) bool { return true }), nil
}

func (m *vehicleRepo) CountByTypeAndStatus(_ context.Context) ([]vehicle.CountRow, error) {
	counts := map[[2]string]int64{}
	for _, v := range m.vehicles {
		counts[[2]string{v.VehicleType, v.Status}]++
	}
	var rows []vehicle.CountRow
	for k, n := range counts {
		rows = append(rows, vehicle.CountRow{VehicleType: k[0], Status: k[1], Total: n})
	}
	return rows, nil
}

type blobStore struct {
	puts []string
}

func (m *blobStore) Put(_ context.Context, objectPath string, _ []byte, _ string) (string, error) {
	m.puts = append(m.puts, objectPath)
	return "https://cdn.example.id/" + objectPath, nil
}

// recordingCodec renders real PNGs and remembers what it encoded.
type recordingCodec struct {
	inner  qr.Codec
	tokens []string
}

func (c *recordingCodec) Encode(token string) ([]byte, error) {
	c.tokens = append(c.tokens, token)
	return c.inner.Encode(token)
}

const (
	adminUsername = "root"
	adminPassword = "s3cret"
)

type fixture struct {
	users      *userRepo
	activity   *activityRepo
	vehicles   *vehicleRepo
	blobs      *blobStore
	codec      *recordingCodec
	controller *session.Controller
}

func newFixture(tempDir string) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := &clock{next: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	f := &fixture{
		users:    &userRepo{users: map[string]*userDatamodel.User{}},
		activity: &activityRepo{clock: clk},
		vehicles: &vehicleRepo{clock: clk},
		blobs:    &blobStore{},
		codec:    &recordingCodec{inner: qr.NewPNGCodec(64, tempDir)},
	}

	hasher := credential.SHA256Hasher{}
	adminDigest, _ := hasher.Hash(adminPassword)

	users := user.NewService(f.users, hasher, logger)
	activities := activity.NewService(f.activity, logger)
	bus := events.NewEventBus(logger)
	activity.NewEventHandler(activities, logger).RegisterEventHandlers(bus)

	f.controller = session.NewController(session.Dependencies{
		Users:     users,
		Activity:  activities,
		Identity:  identity.NewIssuer(users, f.blobs, f.codec, logger),
		Vehicles:  vehicle.NewService(f.vehicles, f.blobs, f.codec, logger),
		Publisher: bus,
		Hasher:    hasher,
		Admin:     session.AdminAccount{Username: adminUsername, PasswordDigest: adminDigest},
		Logger:    logger,
	})
	return f
}

var jpegPhoto = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}
