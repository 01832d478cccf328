// Package model defines domain entities for the application.
package model

import "time"

// Role is the authorization role assigned to a user account.
type Role string

// Valid roles, in increasing order of privilege.
const (
	RoleUser      Role = "user"
	RolePublisher Role = "publisher"
	RoleAdmin     Role = "admin"
)

// ValidRoles contains all recognized role values.
var ValidRoles = []Role{RoleUser, RolePublisher, RoleAdmin}

// ParseRole converts a raw string into a Role.
// Unknown values yield RoleUser and ok=false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RolePublisher, RoleAdmin:
		return Role(s), true
	default:
		return RoleUser, false
	}
}

// Valid reports whether the role is one of the recognized values.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// User represents a user account.
// PasswordHash and the reset-ticket fields are never serialized.
type User struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo,omitempty"`
	Role              Role       `json:"role"`
	PasswordHash      string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	ResetTokenHash    *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	Active            bool       `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ChangedPasswordAfter reports whether the password was changed after
// the given instant. Comparison is at second granularity because token
// issued-at claims carry Unix seconds.
func (u *User) ChangedPasswordAfter(t time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > t.Unix()
}

// HasActiveResetTicket reports whether a non-expired reset ticket exists.
func (u *User) HasActiveResetTicket(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetTokenExpires != nil && u.ResetTokenExpires.After(now)
}

// Principal is the authenticated identity resolved from a valid credential.
// It is injected into the request context by the Protect middleware.
type Principal struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// Is reports whether the principal holds any of the given roles.
func (p *Principal) Is(roles ...Role) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
