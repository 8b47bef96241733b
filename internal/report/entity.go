// AngelaMos | 2026
// entity.go

package report

import (
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/order"
)

type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

func NewTotals(income, expenses float64) Totals {
	return Totals{Income: income, Expenses: expenses, Profit: income - expenses}
}

// Line is one order as it appears in the transaction detail.
type Line struct {
	OrderID   string       `json:"order_id"`
	CreatedAt time.Time    `json:"created_at"`
	Student   string       `json:"student"`
	Purpose   string       `json:"purpose"`
	Amount    float64      `json:"amount"`
	Status    order.Status `json:"status"`
}

func NewLine(v *order.View) Line {
	return Line{
		OrderID:   v.ID,
		CreatedAt: v.CreatedAt,
		Student:   v.Username,
		Purpose:   order.Purpose(&v.Order, v.ItemName),
		Amount:    v.PricePaid,
		Status:    v.Status,
	}
}

type Financial struct {
	GeneratedAt time.Time `json:"generated_at"`
	Totals      Totals    `json:"totals"`
	Lines       []Line    `json:"lines"`
}

const (
	VisitSubscriptionPurchase = "subscription purchase"
	VisitSubscription         = "subscription"
	VisitPaid                 = "paid"
)

type Visitor struct {
	Username string    `json:"username"`
	Time     time.Time `json:"time"`
	Type     string    `json:"type"`
	Spent    float64   `json:"spent"`
}

// Visitors lists who came to the canteen, given orders in creation order.
// Each student appears once for their first order, and again for every
// further subscription purchase.
func Visitors(views []order.View) []Visitor {
	seen := make(map[string]struct{}, len(views))
	out := make([]Visitor, 0, len(views))

	for i := range views {
		v := &views[i]
		_, returning := seen[v.UserID]

		switch {
		case !returning:
			seen[v.UserID] = struct{}{}
			out = append(out, newVisitor(v, visitType(&v.Order)))
		case v.IsSubscriptionPurchase():
			out = append(out, newVisitor(v, VisitSubscriptionPurchase))
		}
	}

	return out
}

func visitType(o *order.Order) string {
	switch {
	case o.IsSubscriptionPurchase():
		return VisitSubscriptionPurchase
	case o.PricePaid == 0:
		return VisitSubscription
	default:
		return VisitPaid
	}
}

func newVisitor(v *order.View, kind string) Visitor {
	return Visitor{
		Username: v.Username,
		Time:     v.CreatedAt,
		Type:     kind,
		Spent:    v.PricePaid,
	}
}
