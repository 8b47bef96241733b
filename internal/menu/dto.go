// AngelaMos | 2026
// dto.go

package menu

import (
	"time"
)

type CreateItemRequest struct {
	Name        string   `json:"name"        validate:"required,min=1,max=200"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Description string   `json:"description" validate:"max=2000"`
	Category    string   `json:"category"    validate:"required,oneof=breakfast lunch combo"`
	Ingredients string   `json:"ingredients" validate:"max=2000"`
}

type ItemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Ingredients string    `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grouped is the menu split by category, the way students browse it.
type Grouped struct {
	Breakfast []ItemResponse `json:"breakfast"`
	Lunch     []ItemResponse `json:"lunch"`
	Combo     []ItemResponse `json:"combo"`
}

func ToItemResponse(it *Item) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Price:       it.Price,
		Description: it.Description,
		Category:    it.Category,
		Ingredients: it.Ingredients,
		CreatedAt:   it.CreatedAt,
	}
}

func ToItemResponseList(items []Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, ToItemResponse(&items[i]))
	}
	return out
}

func GroupByCategory(items []Item) Grouped {
	g := Grouped{
		Breakfast: []ItemResponse{},
		Lunch:     []ItemResponse{},
		Combo:     []ItemResponse{},
	}
	for i := range items {
		resp := ToItemResponse(&items[i])
		switch items[i].Category {
		case CategoryBreakfast:
			g.Breakfast = append(g.Breakfast, resp)
		case CategoryLunch:
			g.Lunch = append(g.Lunch, resp)
		case CategoryCombo:
			g.Combo = append(g.Combo, resp)
		}
	}
	return g
}
