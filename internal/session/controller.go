package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	errors "github.com/campusid/parking-portal/internal"
	"github.com/campusid/parking-portal/internal/activity"
	"github.com/campusid/parking-portal/internal/core/events"
	"github.com/campusid/parking-portal/internal/credential"
	"github.com/campusid/parking-portal/internal/user"
	"github.com/campusid/parking-portal/internal/vehicle"
)

type UserDirectory interface {
	Register(ctx context.Context, dto user.RegisterDTO) (*user.User, error)
	Authenticate(ctx context.Context, dto user.LoginDTO, role user.Role) (*user.User, error)
	FindByID(ctx context.Context, id string) (*user.User, error)
}

type ActivityLog interface {
	RecentForUser(ctx context.Context, userID string, limit int) ([]activity.Entry, error)
}

type IdentityIssuer interface {
	IssueIfAbsent(ctx context.Context, userID string, role user.Role, nim string) (string, error)
}

type VehicleRegistry interface {
	Register(ctx context.Context, dto vehicle.RegisterDTO) (*vehicle.Vehicle, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*vehicle.Vehicle, error)
	ListAll(ctx context.Context) ([]*vehicle.Vehicle, error)
	Summary(ctx context.Context) (*vehicle.Summary, error)
}

// AdminAccount is the single configured administrator. PasswordDigest is
// checked with the same Hasher as stored users.
type AdminAccount struct {
	Username       string
	PasswordDigest string
}

type Dependencies struct {
	Users     UserDirectory
	Activity  ActivityLog
	Identity  IdentityIssuer
	Vehicles  VehicleRegistry
	Publisher events.Publisher
	Hasher    credential.Hasher
	Admin     AdminAccount
	Logger    *slog.Logger
}

type Controller struct {
	users     UserDirectory
	activity  ActivityLog
	identity  IdentityIssuer
	vehicles  VehicleRegistry
	publisher events.Publisher
	hasher    credential.Hasher
	admin     AdminAccount
	logger    *slog.Logger
}

func NewController(deps Dependencies) *Controller {
	lg := deps.Logger
	if lg == nil {
		lg = slog.Default()
	}
	return &Controller{
		users:     deps.Users,
		activity:  deps.Activity,
		identity:  deps.Identity,
		vehicles:  deps.Vehicles,
		publisher: deps.Publisher,
		hasher:    deps.Hasher,
		admin:     deps.Admin,
		logger:    lg,
	}
}

// VehicleForm holds the fields a member submits when registering a vehicle.
type VehicleForm struct {
	Plate string
	Type  string
	Photo []byte
}

type ProfileView struct {
	User     user.User        `json:"user"`
	Activity []activity.Entry `json:"activity"`
}

type DashboardView struct {
	Summary *vehicle.Summary `json:"summary"`
}

func invalidTransition(trigger string, from State) error {
	return errors.NewConflictError(fmt.Sprintf("cannot %s from %s", trigger, from), errors.ErrCodeInvalidTransition)
}

// publish reports a user action to the activity log. Failures are logged only.
func (c *Controller) publish(ctx context.Context, eventType string, p Principal, action string) {
	if c.publisher == nil {
		return
	}
	event := events.NewUserActionEvent(eventType, p.ActorID(), action)
	if err := c.publisher.PublishSync(ctx, event); err != nil {
		c.logger.Warn("activity not recorded", "actor_id", p.ActorID(), "action", action, "error", err)
	}
}

func (c *Controller) SelectRole(_ context.Context, s Session, raw string) (Session, error) {
	if s.State != StateRoleSelect {
		return s, invalidTransition("pick a role", s.State)
	}
	role, err := user.ParseStandardRole(raw)
	if err != nil {
		return s, err
	}
	return Session{State: StateLogin, SelectedRole: role}, nil
}

func (c *Controller) OpenAdminPanel(_ context.Context, s Session) (Session, error) {
	if s.State != StateRoleSelect {
		return s, invalidTransition("open the admin panel", s.State)
	}
	s.AdminPanelOpen = true
	return s, nil
}

func (c *Controller) CloseAdminPanel(_ context.Context, s Session) (Session, error) {
	if s.State != StateRoleSelect || !s.AdminPanelOpen {
		return s, invalidTransition("close the admin panel", s.State)
	}
	s.AdminPanelOpen = false
	return s, nil
}

func (c *Controller) AdminLogin(ctx context.Context, s Session, username, password string) (Session, error) {
	if s.State != StateRoleSelect || !s.AdminPanelOpen {
		return s, invalidTransition("log in as admin", s.State)
	}
	if !c.adminMatches(username, password) {
		c.logger.Info("admin login rejected")
		return s, errors.ErrInvalidCredentials
	}

	admin := Administrator{Username: c.admin.Username}
	c.publish(ctx, events.EventTypeAdminLoggedIn, admin, activity.ActionAdminLogin)
	return Session{State: StateAuthenticated, Principal: admin}, nil
}

func (c *Controller) adminMatches(username, password string) bool {
	if c.admin.Username == "" || c.admin.PasswordDigest == "" || c.hasher == nil {
		return false
	}
	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.admin.Username)) == 1
	passwordOK := c.hasher.Verify(c.admin.PasswordDigest, password)
	return nameOK && passwordOK
}

// Login authenticates against the role chosen in SelectRole.
func (c *Controller) Login(ctx context.Context, s Session, dto user.LoginDTO) (Session, error) {
	if s.State != StateLogin {
		return s, invalidTransition("log in", s.State)
	}
	u, err := c.users.Authenticate(ctx, dto, s.SelectedRole)
	if err != nil {
		return s, err
	}

	member := Member{User: *u}
	c.publish(ctx, events.EventTypeUserLoggedIn, member, activity.ActionLogin)
	return Session{State: StateAuthenticated, Principal: member, SelectedRole: s.SelectedRole}, nil
}

func (c *Controller) StartRegistration(_ context.Context, s Session) (Session, error) {
	if s.State != StateLogin {
		return s, invalidTransition("open registration", s.State)
	}
	s.State = StateRegister
	return s, nil
}

func (c *Controller) Back(_ context.Context, s Session) (Session, error) {
	if s.State != StateLogin && s.State != StateRegister {
		return s, invalidTransition("go back", s.State)
	}
	return New(), nil
}

// Register creates an account with the selected role and logs it straight in.
func (c *Controller) Register(ctx context.Context, s Session, dto user.RegisterDTO) (Session, error) {
	if s.State != StateRegister {
		return s, invalidTransition("register", s.State)
	}
	dto.Role = string(s.SelectedRole)
	u, err := c.users.Register(ctx, dto)
	if err != nil {
		return s, err
	}

	member := Member{User: *u}
	c.publish(ctx, events.EventTypeUserLoggedIn, member, activity.ActionLogin)
	return Session{State: StateAuthenticated, Principal: member, SelectedRole: s.SelectedRole}, nil
}

func (c *Controller) Logout(ctx context.Context, s Session) (Session, error) {
	if !s.Authenticated() {
		return s, invalidTransition("log out", s.State)
	}
	c.publish(ctx, events.EventTypeUserLoggedOut, s.Principal, activity.ActionLogout)
	return New(), nil
}

func (c *Controller) Menu(s Session) ([]Feature, error) {
	if !s.Authenticated() {
		return nil, errors.ErrUnauthenticated
	}
	return MenuFor(s.Principal), nil
}

func authorize(s Session, f Feature) (Principal, error) {
	if !s.Authenticated() {
		return nil, errors.ErrUnauthenticated
	}
	if !Allows(s.Principal, f) {
		return nil, errors.ErrForbidden
	}
	return s.Principal, nil
}

func authorizeMember(s Session, f Feature) (Member, error) {
	p, err := authorize(s, f)
	if err != nil {
		return Member{}, err
	}
	m, ok := p.(Member)
	if !ok {
		return Member{}, errors.ErrForbidden
	}
	return m, nil
}

// IdentityQR issues the member's identity QR when missing and returns the
// session with a refreshed user snapshot.
func (c *Controller) IdentityQR(ctx context.Context, s Session) (Session, string, error) {
	m, err := authorizeMember(s, FeatureIdentityQR)
	if err != nil {
		return s, "", err
	}
	ref, err := c.identity.IssueIfAbsent(ctx, m.User.ID, m.User.Role, m.User.NIM)
	if err != nil {
		return s, "", err
	}

	refreshed := m.User
	if fresh, err := c.users.FindByID(ctx, m.User.ID); err == nil {
		refreshed = *fresh
	} else {
		c.logger.Warn("could not refresh user after identity qr", "user_id", m.User.ID, "error", err)
	}
	refreshed.IdentityQRRef = ref
	s.Principal = Member{User: refreshed}
	return s, ref, nil
}

func (c *Controller) RegisterVehicle(ctx context.Context, s Session, form VehicleForm) (*vehicle.Vehicle, error) {
	m, err := authorizeMember(s, FeatureRegisterVehicle)
	if err != nil {
		return nil, err
	}
	v, err := c.vehicles.Register(ctx, vehicle.RegisterDTO{
		OwnerID:   m.User.ID,
		OwnerName: m.User.Name,
		OwnerNIM:  m.User.NIM,
		OwnerRole: m.User.Role,
		Plate:     form.Plate,
		Type:      form.Type,
		Photo:     form.Photo,
	})
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.EventTypeVehicleRegistered, m, activity.ActionRegisterVehicle)
	return v, nil
}

func (c *Controller) MyVehicles(ctx context.Context, s Session) ([]*vehicle.Vehicle, error) {
	m, err := authorizeMember(s, FeatureMyVehicles)
	if err != nil {
		return nil, err
	}
	return c.vehicles.ListForOwner(ctx, m.User.ID)
}

func (c *Controller) Profile(ctx context.Context, s Session) (*ProfileView, error) {
	m, err := authorizeMember(s, FeatureProfile)
	if err != nil {
		return nil, err
	}
	u, err := c.users.FindByID(ctx, m.User.ID)
	if err != nil {
		return nil, err
	}
	entries, err := c.activity.RecentForUser(ctx, u.ID, activity.DefaultRecentLimit)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: *u, Activity: entries}, nil
}

// Activity returns the caller's own log, for members and the administrator.
func (c *Controller) Activity(ctx context.Context, s Session, limit int) ([]activity.Entry, error) {
	p, err := authorize(s, FeatureActivityLog)
	if err != nil {
		return nil, err
	}
	return c.activity.RecentForUser(ctx, p.ActorID(), limit)
}

func (c *Controller) AllVehicles(ctx context.Context, s Session) ([]*vehicle.Vehicle, error) {
	if _, err := authorize(s, FeatureAllVehicles); err != nil {
		return nil, err
	}
	return c.vehicles.ListAll(ctx)
}

func (c *Controller) Dashboard(ctx context.Context, s Session) (*DashboardView, error) {
	if _, err := authorize(s, FeatureDashboard); err != nil {
		return nil, err
	}
	summary, err := c.vehicles.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardView{Summary: summary}, nil
}
