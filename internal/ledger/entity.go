// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/order"
)

// Account is the monetary view of a user row.
type Account struct {
	ID              string     `db:"id"`
	Role            core.Role  `db:"role"`
	Balance         float64    `db:"balance"`
	SubscriptionEnd *time.Time `db:"subscription_end"`
}

func (a *Account) IsSubscribed(now time.Time) bool {
	return a.SubscriptionEnd != nil && a.SubscriptionEnd.After(now)
}

func (a *Account) CanAfford(amount float64) bool {
	return a.Balance >= amount
}

// ExtendedSubscriptionEnd returns the expiry after buying one more period:
// renewals stack on an unexpired window instead of restarting from now.
func ExtendedSubscriptionEnd(current *time.Time, now time.Time, period time.Duration) time.Time {
	start := now
	if current != nil && current.After(now) {
		start = *current
	}
	return start.Add(period)
}

// Receipt is the outcome of a purchase.
type Receipt struct {
	Order           *order.Order
	Balance         float64
	SubscriptionEnd *time.Time
}
