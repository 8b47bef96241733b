// AngelaMos | 2026
// actor.go

package core

import (
	"fmt"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleCook    Role = "cook"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCook, RoleAdmin:
		return true
	}
	return false
}

func (r Role) IsStaff() bool {
	return r == RoleCook || r == RoleAdmin
}

// Actor is the authenticated identity performing an operation. Every
// service method that mutates canteen state takes one explicitly.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAuthenticated() bool {
	return a.UserID != ""
}

func (a Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Require returns ErrUnauthorized for an anonymous actor and ErrForbidden
// when the actor's role is not in roles.
func (a Actor) Require(op string, roles ...Role) error {
	if !a.IsAuthenticated() {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	if !a.Is(roles...) {
		return fmt.Errorf("%s: role %q: %w", op, a.Role, ErrForbidden)
	}
	return nil
}
