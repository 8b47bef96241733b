// AngelaMos | 2026
// service.go

package dashboard

import (
	"context"
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/allergy"
	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/ledger"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
	"github.com/carterperez-dev/canteen-backend/internal/order"
	"github.com/carterperez-dev/canteen-backend/internal/stock"
)

type MenuSource interface {
	Grouped(ctx context.Context) (menu.Grouped, error)
}

type Orders interface {
	ListForUser(ctx context.Context, actor core.Actor) ([]order.View, error)
	CookQueue(ctx context.Context, actor core.Actor) ([]order.View, error)
}

type Accounts interface {
	Balance(ctx context.Context, actor core.Actor) (*ledger.Account, error)
	SubscriptionPrice() float64
}

type Allergies interface {
	ListForUser(ctx context.Context, actor core.Actor) ([]allergy.Allergy, error)
	Suggestions(ctx context.Context) ([]string, error)
}

type Stock interface {
	ListProducts(ctx context.Context, actor core.Actor) ([]stock.Product, error)
	ListRequests(ctx context.Context, actor core.Actor) ([]stock.PurchaseRequest, error)
}

type Deps struct {
	Menu      MenuSource
	Orders    Orders
	Accounts  Accounts
	Allergies Allergies
	Stock     Stock
}

// Service assembles the per-role landing views from the domain services.
type Service struct {
	deps Deps
	now  func() time.Time
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps, now: time.Now}
}

func (s *Service) Student(ctx context.Context, actor core.Actor) (*StudentDashboard, error) {
	if err := actor.Require("student dashboard", core.RoleStudent); err != nil {
		return nil, err
	}

	acc, err := s.deps.Accounts.Balance(ctx, actor)
	if err != nil {
		return nil, err
	}

	grouped, err := s.deps.Menu.Grouped(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.deps.Orders.ListForUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	allergies, err := s.deps.Allergies.ListForUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.deps.Allergies.Suggestions(ctx)
	if err != nil {
		return nil, err
	}

	return &StudentDashboard{
		Balance:           acc.Balance,
		IsSubscribed:      acc.IsSubscribed(s.now()),
		SubscriptionEnd:   acc.SubscriptionEnd,
		SubscriptionPrice: s.deps.Accounts.SubscriptionPrice(),
		Menu:              grouped,
		Orders:            order.ToViewResponseList(orders),
		Allergies:         allergy.ToAllergyResponseList(allergies),
		Suggestions:       suggestions,
	}, nil
}

func (s *Service) Cook(ctx context.Context, actor core.Actor) (*CookDashboard, error) {
	if err := actor.Require("cook dashboard", core.RoleCook, core.RoleAdmin); err != nil {
		return nil, err
	}

	queue, err := s.deps.Orders.CookQueue(ctx, actor)
	if err != nil {
		return nil, err
	}

	products, err := s.deps.Stock.ListProducts(ctx, actor)
	if err != nil {
		return nil, err
	}

	requests, err := s.deps.Stock.ListRequests(ctx, actor)
	if err != nil {
		return nil, err
	}

	return &CookDashboard{
		Queue:    order.ToViewResponseList(queue),
		Products: stock.ToProductResponseList(products),
		Requests: stock.ToPurchaseRequestResponseList(requests),
	}, nil
}
