// AngelaMos | 2026
// service.go

package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/events"
	"github.com/carterperez-dev/canteen-backend/internal/metrics"
)

type Service struct {
	store     core.Transactor[Repository]
	publisher events.Publisher
}

func NewService(store core.Transactor[Repository], publisher events.Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

type statusChange struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	ActorID string `json:"actor_id"`
}

// SetStatus moves an order along the kitchen workflow. Setting the status
// an order already has is a no-op.
func (s *Service) SetStatus(
	ctx context.Context,
	actor core.Actor,
	id string,
	status Status,
) (*Order, error) {
	const op = "set order status"

	if err := actor.Require(op, core.RoleCook, core.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%s: unknown status %q: %w", op, status, core.ErrInvalidInput)
	}
	if err := core.RequireID(op, id); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "order.SetStatus")
	var err error
	defer func() { core.EndSpan(span, err) }()

	var (
		updated *Order
		from    Status
	)
	err = s.store.InTx(ctx, func(repo Repository) error {
		o, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		from = o.Status
		if o.Status == status {
			updated = o
			return nil
		}

		if o.Status.IsTerminal() {
			return fmt.Errorf("%s: order is already %s: %w", op, o.Status, core.ErrInvalidState)
		}
		if !o.Status.CanTransitionTo(status) {
			return fmt.Errorf(
				"%s: cannot move order from %s to %s: %w",
				op, o.Status, status, core.ErrInvalidState,
			)
		}

		if err := repo.UpdateStatus(ctx, o.ID, status, o.StudentConfirmed); err != nil {
			return err
		}

		o.Status = status
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != status {
		metrics.RecordStatusChange(string(status))
		events.Emit(ctx, s.publisher, events.New(events.OrderStatusChanged, updated.ID, statusChange{
			OrderID: updated.ID,
			UserID:  updated.UserID,
			From:    from,
			To:      status,
			ActorID: actor.UserID,
		}))
		slog.InfoContext(ctx, "order status changed",
			"order_id", updated.ID,
			"from", from,
			"to", status,
			"actor_id", actor.UserID,
		)
	}

	return updated, nil
}

// ConfirmReceipt is called by the student who owns the order once the meal
// is in hand. It is idempotent, and a no-op for subscription purchases,
// which are confirmed at creation.
func (s *Service) ConfirmReceipt(
	ctx context.Context,
	actor core.Actor,
	id string,
) (*Order, error) {
	const op = "confirm receipt"

	if err := actor.Require(op, core.RoleStudent); err != nil {
		return nil, err
	}
	if err := core.RequireID(op, id); err != nil {
		return nil, err
	}

	var (
		confirmed *Order
		changed   bool
	)
	err := s.store.InTx(ctx, func(repo Repository) error {
		o, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if o.UserID != actor.UserID {
			return fmt.Errorf("%s: order belongs to another user: %w", op, core.ErrForbidden)
		}

		confirmed = o
		if o.IsSubscriptionPurchase() || (o.Status == StatusReceived && o.StudentConfirmed) {
			return nil
		}

		if err := repo.UpdateStatus(ctx, o.ID, StatusReceived, true); err != nil {
			return err
		}

		o.Status = StatusReceived
		o.StudentConfirmed = true
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.RecordStatusChange(string(StatusReceived))
		events.Emit(ctx, s.publisher, events.New(events.OrderConfirmed, confirmed.ID, ToOrderResponse(confirmed)))
	}

	return confirmed, nil
}

func (s *Service) CookQueue(ctx context.Context, actor core.Actor) ([]View, error) {
	if err := actor.Require("cook queue", core.RoleCook, core.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.Repos().ListQueue(ctx)
}

func (s *Service) ListForUser(ctx context.Context, actor core.Actor) ([]View, error) {
	if err := actor.Require("list orders", core.RoleStudent); err != nil {
		return nil, err
	}
	return s.store.Repos().ListByUser(ctx, actor.UserID)
}
