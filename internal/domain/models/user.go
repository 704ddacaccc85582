package models

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the current user lacks the role for an action.
var ErrForbidden = errors.New("action not allowed for this user")

// Role names a user's permission level in the ERP.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleProduction Role = "production"
	RoleViewer     Role = "viewer"
)

// CurrentUser is the authenticated operator, passed explicitly to every
// operation that needs it.
type CurrentUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Anonymous is used when a request carries no user.
var Anonymous = CurrentUser{Role: RoleViewer}

// ParseRole maps a raw role string onto a Role, defaulting to viewer.
func ParseRole(value string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(value))); r {
	case RoleAdmin, RoleManager, RoleProduction:
		return r
	}
	return RoleViewer
}

// IsAdmin reports whether the user may perform corrective actions.
func (u CurrentUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageStock reports whether the user may change materials and the stock ledger.
func (u CurrentUser) CanManageStock() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// CanManageProduction reports whether the user may plan batches and move them along.
func (u CurrentUser) CanManageProduction() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager || u.Role == RoleProduction
}
