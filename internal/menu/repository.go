// AngelaMos | 2026
// repository.go

package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context) ([]Item, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO menu_items (id, name, price, description, category, ingredients)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &item.CreatedAt, query,
		item.ID,
		item.Name,
		item.Price,
		item.Description,
		item.Category,
		item.Ingredients,
	)
	if err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Item, error) {
	query := `
		SELECT id, name, price, description, category, ingredients, created_at
		FROM menu_items
		WHERE id = $1`

	var item Item
	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get menu item: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	return &item, nil
}

func (r *repository) List(ctx context.Context) ([]Item, error) {
	query := `
		SELECT id, name, price, description, category, ingredients, created_at
		FROM menu_items
		ORDER BY category, name`

	var items []Item
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}

	return items, nil
}

// Delete removes the item. Orders that referenced it keep their row with a
// null item_id.
func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}

	return core.RequireAffected(result, "delete menu item")
}
