// AngelaMos | 2026
// repository.go

package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, confirmed bool) error
	ListByUser(ctx context.Context, userID string) ([]View, error)
	ListQueue(ctx context.Context) ([]View, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const viewSelect = `
		SELECT o.id, o.user_id, o.item_id, o.status, o.created_at,
		       o.student_confirmed, o.price_paid,
		       u.username, m.name AS item_name
		FROM orders o
		JOIN users u ON u.id = o.user_id
		LEFT JOIN menu_items m ON m.id = o.item_id`

func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (id, user_id, item_id, status, student_confirmed, price_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &o.CreatedAt, query,
		o.ID,
		o.UserID,
		o.ItemID,
		o.Status,
		o.StudentConfirmed,
		o.PricePaid,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

func (r *repository) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	query := `
		SELECT id, user_id, item_id, status, created_at, student_confirmed, price_paid
		FROM orders
		WHERE id = $1
		FOR UPDATE`

	var o Order
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &o, nil
}

func (r *repository) UpdateStatus(
	ctx context.Context,
	id string,
	status Status,
	confirmed bool,
) error {
	query := `
		UPDATE orders
		SET status = $2, student_confirmed = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, confirmed)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	return core.RequireAffected(result, "update order status")
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]View, error) {
	query := viewSelect + `
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC`

	var views []View
	if err := r.db.SelectContext(ctx, &views, query, userID); err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}

	return views, nil
}

// ListQueue returns the meals waiting for the kitchen. Subscription
// purchases never appear here.
func (r *repository) ListQueue(ctx context.Context) ([]View, error) {
	query := viewSelect + `
		WHERE o.status = 'Paid' AND o.item_id IS NOT NULL
		ORDER BY o.created_at DESC`

	var views []View
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list order queue: %w", err)
	}

	return views, nil
}
