// AngelaMos | 2026
// dto.go

package dashboard

import (
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/allergy"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
	"github.com/carterperez-dev/canteen-backend/internal/order"
	"github.com/carterperez-dev/canteen-backend/internal/stock"
)

type StudentDashboard struct {
	Balance           float64                   `json:"balance"`
	IsSubscribed      bool                      `json:"is_subscribed"`
	SubscriptionEnd   *time.Time                `json:"subscription_end,omitempty"`
	SubscriptionPrice float64                   `json:"subscription_price"`
	Menu              menu.Grouped              `json:"menu"`
	Orders            []order.OrderResponse     `json:"orders"`
	Allergies         []allergy.AllergyResponse `json:"allergies"`
	Suggestions       []string                  `json:"suggestions"`
}

type CookDashboard struct {
	Queue    []order.OrderResponse           `json:"queue"`
	Products []stock.ProductResponse         `json:"products"`
	Requests []stock.PurchaseRequestResponse `json:"requests"`
}
