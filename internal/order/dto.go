// AngelaMos | 2026
// dto.go

package order

import (
	"time"
)

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,max=32"`
}

type OrderResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username,omitempty"`
	ItemID           *string   `json:"item_id"`
	ItemName         string    `json:"item_name"`
	Status           Status    `json:"status"`
	StudentConfirmed bool      `json:"student_confirmed"`
	PricePaid        float64   `json:"price_paid"`
	CreatedAt        time.Time `json:"created_at"`
}

const (
	PurposeSubscription = "subscription purchase"
	PurposeDeletedItem  = "item no longer exists"
)

// Purpose names what an order paid for.
func Purpose(o *Order, itemName *string) string {
	switch {
	case itemName != nil:
		return *itemName
	case o.IsSubscriptionPurchase():
		return PurposeSubscription
	default:
		return PurposeDeletedItem
	}
}

func ToOrderResponse(o *Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		ItemID:           o.ItemID,
		Status:           o.Status,
		StudentConfirmed: o.StudentConfirmed,
		PricePaid:        o.PricePaid,
		CreatedAt:        o.CreatedAt,
	}
}

func ToViewResponse(v *View) OrderResponse {
	resp := ToOrderResponse(&v.Order)
	resp.Username = v.Username
	resp.ItemName = Purpose(&v.Order, v.ItemName)
	return resp
}

func ToViewResponseList(views []View) []OrderResponse {
	out := make([]OrderResponse, 0, len(views))
	for i := range views {
		out = append(out, ToViewResponse(&views[i]))
	}
	return out
}
