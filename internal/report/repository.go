// AngelaMos | 2026
// repository.go

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/order"
)

type Repository interface {
	Income(ctx context.Context) (float64, error)
	Expenses(ctx context.Context) (float64, error)
	Orders(ctx context.Context) ([]order.View, error)
	OrdersBetween(ctx context.Context, from, to time.Time) ([]order.View, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const ordersSelect = `
		SELECT o.id, o.user_id, o.item_id, o.status, o.created_at,
		       o.student_confirmed, o.price_paid,
		       u.username, m.name AS item_name
		FROM orders o
		JOIN users u ON u.id = o.user_id
		LEFT JOIN menu_items m ON m.id = o.item_id`

func (r *repository) Income(ctx context.Context) (float64, error) {
	var total float64
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(price_paid), 0) FROM orders`); err != nil {
		return 0, fmt.Errorf("sum income: %w", err)
	}
	return total, nil
}

func (r *repository) Expenses(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(cost), 0)
		FROM purchase_requests
		WHERE status = 'Approved'`

	var total float64
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

func (r *repository) Orders(ctx context.Context) ([]order.View, error) {
	query := ordersSelect + `
		ORDER BY o.created_at, o.id`

	var views []order.View
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list report orders: %w", err)
	}
	return views, nil
}

func (r *repository) OrdersBetween(
	ctx context.Context,
	from, to time.Time,
) ([]order.View, error) {
	query := ordersSelect + `
		WHERE o.created_at >= $1 AND o.created_at < $2
		ORDER BY o.created_at, o.id`

	var views []order.View
	if err := r.db.SelectContext(ctx, &views, query, from, to); err != nil {
		return nil, fmt.Errorf("list orders between: %w", err)
	}
	return views, nil
}
