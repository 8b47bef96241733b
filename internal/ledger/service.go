// AngelaMos | 2026
// service.go

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/canteen-backend/internal/config"
	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/events"
	"github.com/carterperez-dev/canteen-backend/internal/metrics"
	"github.com/carterperez-dev/canteen-backend/internal/order"
)

type Service struct {
	store     core.Transactor[Repos]
	price     float64
	period    time.Duration
	publisher events.Publisher
	now       func() time.Time
}

func NewService(
	store core.Transactor[Repos],
	cfg config.CanteenConfig,
	publisher events.Publisher,
) *Service {
	return &Service{
		store:     store,
		price:     cfg.SubscriptionPrice,
		period:    cfg.SubscriptionPeriod(),
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *Service) SubscriptionPrice() float64 {
	return s.price
}

func (s *Service) Balance(ctx context.Context, actor core.Actor) (*Account, error) {
	if err := actor.Require("get balance", core.RoleStudent); err != nil {
		return nil, err
	}
	return s.store.Repos().Accounts.Get(ctx, actor.UserID)
}

func (s *Service) TopUp(
	ctx context.Context,
	actor core.Actor,
	amount float64,
) (float64, error) {
	const op = "top up"

	if err := actor.Require(op, core.RoleStudent); err != nil {
		return 0, err
	}
	if !core.ValidAmount(amount) || amount == 0 {
		return 0, fmt.Errorf("%s: amount must be positive with at most two decimals: %w", op, core.ErrInvalidInput)
	}

	balance, err := s.store.Repos().Accounts.Credit(ctx, actor.UserID, amount)
	if err != nil {
		return 0, err
	}

	metrics.RecordTopUp()
	events.Emit(ctx, s.publisher, events.New(events.BalanceToppedUp, actor.UserID, map[string]any{
		"user_id": actor.UserID,
		"amount":  amount,
		"balance": balance,
	}))
	slog.InfoContext(ctx, "balance topped up", "user_id", actor.UserID, "amount", amount)

	return balance, nil
}

// PurchaseSubscription debits the subscription price and extends the
// window by one period.
func (s *Service) PurchaseSubscription(
	ctx context.Context,
	actor core.Actor,
) (*Receipt, error) {
	const op = "purchase subscription"

	if err := actor.Require(op, core.RoleStudent); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "ledger.PurchaseSubscription")
	var err error
	defer func() { core.EndSpan(span, err) }()

	now := s.now()
	receipt := &Receipt{}

	err = s.store.InTx(ctx, func(repos Repos) error {
		acc, err := repos.Accounts.Lock(ctx, actor.UserID)
		if err != nil {
			return err
		}

		if !acc.CanAfford(s.price) {
			return fmt.Errorf("%s: %w", op, core.ErrInsufficientFunds)
		}

		balance, err := repos.Accounts.Debit(ctx, acc.ID, s.price)
		if err != nil {
			return err
		}

		end := ExtendedSubscriptionEnd(acc.SubscriptionEnd, now, s.period)
		if err := repos.Accounts.SetSubscriptionEnd(ctx, acc.ID, end); err != nil {
			return err
		}

		o := &order.Order{
			ID:               uuid.New().String(),
			UserID:           acc.ID,
			Status:           order.StatusSubscription,
			StudentConfirmed: true,
			PricePaid:        s.price,
		}
		if err := repos.Orders.Create(ctx, o); err != nil {
			return err
		}

		receipt.Order = o
		receipt.Balance = balance
		receipt.SubscriptionEnd = &end
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	metrics.RecordOrderPlaced("subscription", receipt.Order.PricePaid)
	events.Emit(ctx, s.publisher, events.New(
		events.SubscriptionPurchased,
		actor.UserID,
		ToReceiptResponse(receipt),
	))
	slog.InfoContext(ctx, "subscription purchased",
		"user_id", actor.UserID,
		"order_id", receipt.Order.ID,
		"subscription_end", receipt.SubscriptionEnd,
	)

	return receipt, nil
}

// PurchaseMenuItem charges the item's price, or nothing while the student's
// subscription is active, and queues the meal for the kitchen.
func (s *Service) PurchaseMenuItem(
	ctx context.Context,
	actor core.Actor,
	itemID string,
) (*Receipt, error) {
	const op = "purchase menu item"

	if err := actor.Require(op, core.RoleStudent); err != nil {
		return nil, err
	}
	if err := core.RequireID(op, itemID); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "ledger.PurchaseMenuItem")
	var err error
	defer func() { core.EndSpan(span, err) }()

	now := s.now()
	receipt := &Receipt{}

	err = s.store.InTx(ctx, func(repos Repos) error {
		item, err := repos.Menu.GetByID(ctx, itemID)
		if err != nil {
			return err
		}

		acc, err := repos.Accounts.Lock(ctx, actor.UserID)
		if err != nil {
			return err
		}

		price := item.Price
		if acc.IsSubscribed(now) {
			price = 0
		}

		if !acc.CanAfford(price) {
			return fmt.Errorf("%s: %w", op, core.ErrInsufficientFunds)
		}

		balance := acc.Balance
		if price > 0 {
			balance, err = repos.Accounts.Debit(ctx, acc.ID, price)
			if err != nil {
				return err
			}
		}

		o := &order.Order{
			ID:        uuid.New().String(),
			UserID:    acc.ID,
			ItemID:    &item.ID,
			Status:    order.StatusPaid,
			PricePaid: price,
		}
		if err := repos.Orders.Create(ctx, o); err != nil {
			return err
		}

		receipt.Order = o
		receipt.Balance = balance
		receipt.SubscriptionEnd = acc.SubscriptionEnd
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	kind := "meal"
	if receipt.Order.PricePaid == 0 {
		kind = "covered_meal"
	}
	metrics.RecordOrderPlaced(kind, receipt.Order.PricePaid)
	events.Emit(ctx, s.publisher, events.New(
		events.OrderPlaced,
		receipt.Order.ID,
		order.ToOrderResponse(receipt.Order),
	))
	slog.InfoContext(ctx, "menu item purchased",
		"user_id", actor.UserID,
		"order_id", receipt.Order.ID,
		"item_id", itemID,
		"price_paid", receipt.Order.PricePaid,
	)

	return receipt, nil
}

func (s *Service) recordFailure(err error) {
	if errors.Is(err, core.ErrInsufficientFunds) {
		metrics.RecordInsufficientFunds()
	}
}
