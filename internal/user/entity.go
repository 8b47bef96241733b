// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

type User struct {
	ID              string     `db:"id"`
	Username        string     `db:"username"`
	PasswordHash    string     `db:"password_hash"`
	Role            core.Role  `db:"role"`
	Balance         float64    `db:"balance"`
	SubscriptionEnd *time.Time `db:"subscription_end"`
	TokenVersion    int        `db:"token_version"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == core.RoleAdmin
}

// IsSubscribed reports whether the subscription window is still open at now.
func (u *User) IsSubscribed(now time.Time) bool {
	return u.SubscriptionEnd != nil && u.SubscriptionEnd.After(now)
}
