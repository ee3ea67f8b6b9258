package leads

import (
	"strings"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// Role is a staff permission level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSeller  Role = "seller"
)

// ParseRole maps a header or token value to a Role. Unknown values return
// false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleManager, RoleSeller:
		return r, true
	}
	return "", false
}

// Session is the acting user passed explicitly into every lead operation.
// The zero value is the anonymous quoting visitor.
type Session struct {
	UserID string
	Role   Role
	City   string
}

// Anonymous returns the session used by the public quoting flow.
func Anonymous() Session {
	return Session{}
}

// IsStaff reports whether the session belongs to a signed-in staff member.
func (s Session) IsStaff() bool {
	if s.UserID == "" {
		return false
	}
	_, ok := ParseRole(string(s.Role))
	return ok
}

// IsGlobal reports whether the session sees leads from every city.
func (s Session) IsGlobal() bool {
	return s.IsStaff() && (s.Role == RoleAdmin || s.Role == RoleManager)
}

// IsPrivileged reports whether the session may bypass pipeline ordering and
// edit closed leads.
func (s Session) IsPrivileged() bool {
	return s.IsStaff() && s.Role == RoleAdmin
}

// Scope is the subset of leads a session may see.
type Scope struct {
	City   string
	UserID string
	Global bool
}

// ScopeOf derives the listing scope of a session.
func ScopeOf(s Session) Scope {
	if s.IsGlobal() {
		return Scope{Global: true}
	}
	return Scope{City: s.City, UserID: s.UserID}
}

// Contains reports whether a lead with the given city and assignee falls
// within the scope.
func (sc Scope) Contains(city string, assignedTo *string) bool {
	if sc.Global {
		return true
	}
	if sc.UserID != "" && assignedTo != nil && *assignedTo == sc.UserID {
		return true
	}
	return sc.City != "" && cities.Equal(city, sc.City)
}

// Visible reports whether the session may see the lead. Global roles see
// everything; sellers see their own city and leads assigned to them.
func Visible(s Session, l models.Lead) bool {
	if !s.IsStaff() {
		return false
	}
	return ScopeOf(s).Contains(l.City, l.AssignedTo)
}
