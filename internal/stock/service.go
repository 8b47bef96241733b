// AngelaMos | 2026
// service.go

package stock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/canteen-backend/internal/config"
	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/events"
	"github.com/carterperez-dev/canteen-backend/internal/metrics"
)

type Service struct {
	store        core.Transactor[Repository]
	defaultUnit  string
	cookRequests int
	publisher    events.Publisher
}

func NewService(
	store core.Transactor[Repository],
	cfg config.CanteenConfig,
	publisher events.Publisher,
) *Service {
	return &Service{
		store:        store,
		defaultUnit:  cfg.DefaultUnit,
		cookRequests: cfg.CookRequestLimit,
		publisher:    publisher,
	}
}

type resolution struct {
	Request PurchaseRequestResponse `json:"request"`
	Product *ProductResponse        `json:"product,omitempty"`
	ActorID string                  `json:"actor_id"`
}

// CreateRequests files a batch of Pending requests. A single bad line fails
// the whole batch.
func (s *Service) CreateRequests(
	ctx context.Context,
	actor core.Actor,
	lines []Line,
) ([]PurchaseRequest, error) {
	const op = "create purchase requests"

	if err := actor.Require(op, core.RoleCook); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: no products given: %w", op, core.ErrInvalidInput)
	}

	created := make([]PurchaseRequest, 0, len(lines))
	for i, line := range lines {
		name := strings.TrimSpace(line.ProductName)
		if name == "" {
			return nil, fmt.Errorf("%s: line %d: product name is required: %w", op, i+1, core.ErrInvalidInput)
		}
		if !core.IsFinite(line.Quantity) || line.Quantity <= 0 {
			return nil, fmt.Errorf("%s: line %d: quantity must be positive: %w", op, i+1, core.ErrInvalidInput)
		}
		created = append(created, PurchaseRequest{
			ID:          uuid.New().String(),
			ProductName: name,
			Quantity:    line.Quantity,
			Status:      RequestPending,
		})
	}

	err := s.store.InTx(ctx, func(repo Repository) error {
		for i := range created {
			if err := repo.CreateRequest(ctx, &created[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch := make([]events.Event, 0, len(created))
	for i := range created {
		batch = append(batch, events.New(
			events.PurchaseRequestCreated,
			created[i].ID,
			ToPurchaseRequestResponse(&created[i]),
		))
	}
	events.Emit(ctx, s.publisher, batch...)

	slog.InfoContext(ctx, "purchase requests created",
		"count", len(created),
		"actor_id", actor.UserID,
	)

	return created, nil
}

// ResolveRequest approves or rejects a Pending request. Approval records the
// cost and adds the quantity to stock, creating the product if needed.
func (s *Service) ResolveRequest(
	ctx context.Context,
	actor core.Actor,
	id string,
	status RequestStatus,
	cost float64,
) (*PurchaseRequest, error) {
	const op = "resolve purchase request"

	if err := actor.Require(op, core.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.IsResolution() {
		return nil, fmt.Errorf("%s: unknown resolution %q: %w", op, status, core.ErrInvalidInput)
	}
	if !core.ValidAmount(cost) {
		return nil, fmt.Errorf("%s: cost must be non-negative with at most two decimals: %w", op, core.ErrInvalidInput)
	}
	if err := core.RequireID(op, id); err != nil {
		return nil, err
	}
	if status == RequestRejected {
		cost = 0
	}

	ctx, span := core.StartSpan(ctx, "stock.ResolveRequest")
	var err error
	defer func() { core.EndSpan(span, err) }()

	var (
		resolved *PurchaseRequest
		product  *Product
	)
	err = s.store.InTx(ctx, func(repo Repository) error {
		req, err := repo.ResolveRequest(ctx, id, status, cost)
		if err != nil {
			return err
		}
		resolved = req

		if status != RequestApproved {
			return nil
		}

		product, err = repo.AddToProduct(
			ctx,
			uuid.New().String(),
			req.ProductName,
			req.Quantity,
			s.defaultUnit,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	payload := resolution{
		Request: ToPurchaseRequestResponse(resolved),
		ActorID: actor.UserID,
	}
	if product != nil {
		p := ToProductResponse(product)
		payload.Product = &p
	}

	metrics.RecordRequestResolved(string(status))
	events.Emit(ctx, s.publisher, events.New(events.PurchaseRequestResolved, resolved.ID, payload))
	slog.InfoContext(ctx, "purchase request resolved",
		"request_id", resolved.ID,
		"status", status,
		"cost", resolved.Cost,
	)

	return resolved, nil
}

// UpdateStock overwrites a product's quantity after a manual count.
func (s *Service) UpdateStock(
	ctx context.Context,
	actor core.Actor,
	productID string,
	quantity float64,
) (*Product, error) {
	const op = "update stock"

	if err := actor.Require(op, core.RoleCook); err != nil {
		return nil, err
	}
	if !core.IsFinite(quantity) {
		return nil, fmt.Errorf("%s: quantity must be a number: %w", op, core.ErrInvalidInput)
	}
	if err := core.RequireID(op, productID); err != nil {
		return nil, err
	}

	product, err := s.store.Repos().UpdateQuantity(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "stock updated",
		"product_id", product.ID,
		"quantity", product.Quantity,
	)

	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, actor core.Actor) ([]Product, error) {
	if err := actor.Require("list products", core.RoleCook, core.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.Repos().ListProducts(ctx)
}

// ListRequests returns the most recent requests for a cook and every
// request for an admin.
func (s *Service) ListRequests(ctx context.Context, actor core.Actor) ([]PurchaseRequest, error) {
	if err := actor.Require("list purchase requests", core.RoleCook, core.RoleAdmin); err != nil {
		return nil, err
	}

	limit := 0
	if actor.Role == core.RoleCook {
		limit = s.cookRequests
	}

	return s.store.Repos().ListRequests(ctx, limit)
}

func (s *Service) TotalExpenses(ctx context.Context) (float64, error) {
	return s.store.Repos().TotalApprovedCost(ctx)
}
