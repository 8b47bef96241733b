// AngelaMos | 2026
// repository.go

package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

type Repository interface {
	CreateRequest(ctx context.Context, req *PurchaseRequest) error
	GetRequest(ctx context.Context, id string) (*PurchaseRequest, error)
	ResolveRequest(ctx context.Context, id string, status RequestStatus, cost float64) (*PurchaseRequest, error)
	ListRequests(ctx context.Context, limit int) ([]PurchaseRequest, error)
	AddToProduct(ctx context.Context, id, name string, quantity float64, unit string) (*Product, error)
	UpdateQuantity(ctx context.Context, id string, quantity float64) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	TotalApprovedCost(ctx context.Context) (float64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const requestColumns = `id, product_name, quantity, status, cost, created_at, resolved_at`

func (r *repository) CreateRequest(ctx context.Context, req *PurchaseRequest) error {
	query := `
		INSERT INTO purchase_requests (id, product_name, quantity, status, cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &req.CreatedAt, query,
		req.ID,
		req.ProductName,
		req.Quantity,
		req.Status,
		req.Cost,
	)
	if err != nil {
		return fmt.Errorf("create purchase request: %w", err)
	}

	return nil
}

func (r *repository) GetRequest(ctx context.Context, id string) (*PurchaseRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM purchase_requests WHERE id = $1`

	var req PurchaseRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get purchase request: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase request: %w", err)
	}

	return &req, nil
}

// ResolveRequest moves a Pending request to status. It returns ErrInvalidState
// when the row exists but was already resolved.
func (r *repository) ResolveRequest(
	ctx context.Context,
	id string,
	status RequestStatus,
	cost float64,
) (*PurchaseRequest, error) {
	query := `
		UPDATE purchase_requests
		SET status = $2, cost = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'Pending'
		RETURNING ` + requestColumns

	var req PurchaseRequest
	err := r.db.GetContext(ctx, &req, query, id, status, cost)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetRequest(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("resolve purchase request: %w", core.ErrInvalidState)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve purchase request: %w", err)
	}

	return &req, nil
}

func (r *repository) ListRequests(ctx context.Context, limit int) ([]PurchaseRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM purchase_requests ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var reqs []PurchaseRequest
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, fmt.Errorf("list purchase requests: %w", err)
	}

	return reqs, nil
}

// AddToProduct increments the named product, creating it with unit when it
// does not exist yet. id is used only on insert.
func (r *repository) AddToProduct(
	ctx context.Context,
	id, name string,
	quantity float64,
	unit string,
) (*Product, error) {
	query := `
		INSERT INTO products (id, name, quantity, unit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET quantity = products.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, name, quantity, unit, updated_at`

	var p Product
	if err := r.db.GetContext(ctx, &p, query, id, name, quantity, unit); err != nil {
		return nil, fmt.Errorf("add to product: %w", err)
	}

	return &p, nil
}

func (r *repository) UpdateQuantity(
	ctx context.Context,
	id string,
	quantity float64,
) (*Product, error) {
	query := `
		UPDATE products
		SET quantity = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, quantity, unit, updated_at`

	var p Product
	err := r.db.GetContext(ctx, &p, query, id, quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update stock: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	return &p, nil
}

func (r *repository) ListProducts(ctx context.Context) ([]Product, error) {
	query := `
		SELECT id, name, quantity, unit, updated_at
		FROM products
		ORDER BY name`

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func (r *repository) TotalApprovedCost(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(cost), 0)
		FROM purchase_requests
		WHERE status = 'Approved'`

	var total float64
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("total approved cost: %w", err)
	}

	return total, nil
}
