// AngelaMos | 2026
// dto.go

package ledger

import (
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/order"
)

type TopUpRequest struct {
	Amount *float64 `json:"amount" validate:"required,gt=0"`
}

type PurchaseItemRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}

type BalanceResponse struct {
	Balance         float64    `json:"balance"`
	SubscriptionEnd *time.Time `json:"subscription_end,omitempty"`
	IsSubscribed    bool       `json:"is_subscribed"`
}

type ReceiptResponse struct {
	Order           order.OrderResponse `json:"order"`
	Balance         float64             `json:"balance"`
	SubscriptionEnd *time.Time          `json:"subscription_end,omitempty"`
}

func ToReceiptResponse(r *Receipt) ReceiptResponse {
	return ReceiptResponse{
		Order:           order.ToOrderResponse(r.Order),
		Balance:         r.Balance,
		SubscriptionEnd: r.SubscriptionEnd,
	}
}
