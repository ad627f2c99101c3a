package session

import (
	"github.com/campusid/parking-portal/internal/user"
)

type State string

const (
	StateRoleSelect    State = "role_select"
	StateLogin         State = "login"
	StateRegister      State = "register"
	StateAuthenticated State = "authenticated"
)

func (s State) valid() bool {
	switch s {
	case StateRoleSelect, StateLogin, StateRegister, StateAuthenticated:
		return true
	}
	return false
}

type Feature string

const (
	FeatureDashboard       Feature = "dashboard"
	FeatureAllVehicles     Feature = "all_vehicles"
	FeatureActivityLog     Feature = "activity_log"
	FeatureIdentityQR      Feature = "identity_qr"
	FeatureRegisterVehicle Feature = "register_vehicle"
	FeatureMyVehicles      Feature = "my_vehicles"
	FeatureProfile         Feature = "profile"
)

var (
	adminMenu  = []Feature{FeatureDashboard, FeatureAllVehicles, FeatureActivityLog}
	memberMenu = []Feature{FeatureIdentityQR, FeatureRegisterVehicle, FeatureMyVehicles, FeatureProfile, FeatureActivityLog}
)

// Principal is whoever is logged in: a Member backed by a stored user, or the
// configured Administrator.
type Principal interface {
	ActorID() string
	DisplayName() string
	Role() user.Role
	IsAdmin() bool
	principal()
}

// Member carries a snapshot of the stored user taken at login.
type Member struct {
	User user.User
}

func (m Member) ActorID() string     { return m.User.ID }
func (m Member) DisplayName() string { return m.User.Name }
func (m Member) Role() user.Role     { return m.User.Role }
func (m Member) IsAdmin() bool       { return false }
func (Member) principal()            {}

// Administrator has no stored record. Its activity is logged under
// "admin:<username>".
type Administrator struct {
	Username string
}

func (a Administrator) ActorID() string     { return "admin:" + a.Username }
func (a Administrator) DisplayName() string { return a.Username }
func (a Administrator) Role() user.Role     { return user.RoleAdmin }
func (a Administrator) IsAdmin() bool       { return true }
func (Administrator) principal()            {}

// Session is passed into and returned from every controller action. Actions
// that fail return the session they were given.
type Session struct {
	State          State
	Principal      Principal
	SelectedRole   user.Role
	AdminPanelOpen bool
}

func New() Session {
	return Session{State: StateRoleSelect}
}

func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.Principal != nil
}

// MenuFor is decided by IsAdmin alone.
func MenuFor(p Principal) []Feature {
	if p == nil {
		return nil
	}
	menu := memberMenu
	if p.IsAdmin() {
		menu = adminMenu
	}
	out := make([]Feature, len(menu))
	copy(out, menu)
	return out
}

func Allows(p Principal, f Feature) bool {
	for _, m := range MenuFor(p) {
		if m == f {
			return true
		}
	}
	return false
}
