// AngelaMos | 2026
// entity.go

package menu

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryCombo     Category = "combo"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBreakfast, CategoryLunch, CategoryCombo:
		return true
	}
	return false
}

type Item struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Price       float64   `db:"price"`
	Description string    `db:"description"`
	Category    Category  `db:"category"`
	Ingredients string    `db:"ingredients"`
	CreatedAt   time.Time `db:"created_at"`
}

// IngredientTokens splits a comma-separated ingredient list into trimmed,
// lowercased, non-empty tokens.
func IngredientTokens(ingredients string) []string {
	parts := strings.Split(ingredients, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToLower(strings.TrimSpace(p)); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
