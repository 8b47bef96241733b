// AngelaMos | 2026
// entity.go

package order

import (
	"time"
)

type Status string

const (
	StatusPaid         Status = "Paid"
	StatusPreparing    Status = "Preparing"
	StatusReady        Status = "Ready"
	StatusReceived     Status = "Received"
	StatusSubscription Status = "Subscription"
)

var transitions = map[Status][]Status{
	StatusPaid:         {StatusPreparing, StatusReady, StatusReceived},
	StatusPreparing:    {StatusReady, StatusReceived},
	StatusReady:        {StatusReceived},
	StatusReceived:     nil,
	StatusSubscription: nil,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order records one debit: a meal (ItemID set) or a subscription purchase
// (ItemID nil, status Subscription). ItemID is also nil once the menu item
// has been deleted.
type Order struct {
	ID               string    `db:"id"`
	UserID           string    `db:"user_id"`
	ItemID           *string   `db:"item_id"`
	Status           Status    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	StudentConfirmed bool      `db:"student_confirmed"`
	PricePaid        float64   `db:"price_paid"`
}

func (o *Order) IsSubscriptionPurchase() bool {
	return o.Status == StatusSubscription
}

// View is an order joined with the names a person reads it by.
type View struct {
	Order
	Username string  `db:"username"`
	ItemName *string `db:"item_name"`
}
