// AngelaMos | 2026
// service.go

package admin

import (
	"context"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
	"github.com/carterperez-dev/canteen-backend/internal/report"
	"github.com/carterperez-dev/canteen-backend/internal/stock"
	"github.com/carterperez-dev/canteen-backend/internal/user"
)

type Reports interface {
	Totals(ctx context.Context, actor core.Actor) (report.Totals, error)
	TodaysVisitors(ctx context.Context, actor core.Actor) ([]report.Visitor, error)
}

type Staff interface {
	ListStaff(ctx context.Context, actor core.Actor) ([]user.User, error)
}

type Menu interface {
	List(ctx context.Context) ([]menu.Item, error)
}

type PurchaseRequests interface {
	ListRequests(ctx context.Context, actor core.Actor) ([]stock.PurchaseRequest, error)
}

type Service struct {
	reports  Reports
	staff    Staff
	menu     Menu
	requests PurchaseRequests
}

func NewService(reports Reports, staff Staff, menu Menu, requests PurchaseRequests) *Service {
	return &Service{
		reports:  reports,
		staff:    staff,
		menu:     menu,
		requests: requests,
	}
}

// Dashboard gathers everything the administration screen shows at once.
func (s *Service) Dashboard(ctx context.Context, actor core.Actor) (*Dashboard, error) {
	if err := actor.Require("admin dashboard", core.RoleAdmin); err != nil {
		return nil, err
	}

	totals, err := s.reports.Totals(ctx, actor)
	if err != nil {
		return nil, err
	}

	visitors, err := s.reports.TodaysVisitors(ctx, actor)
	if err != nil {
		return nil, err
	}

	staff, err := s.staff.ListStaff(ctx, actor)
	if err != nil {
		return nil, err
	}

	items, err := s.menu.List(ctx)
	if err != nil {
		return nil, err
	}

	requests, err := s.requests.ListRequests(ctx, actor)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Totals:   totals,
		Visitors: visitors,
		Staff:    user.ToStaffResponseList(staff),
		Menu:     menu.ToItemResponseList(items),
		Requests: stock.ToPurchaseRequestResponseList(requests),
	}, nil
}
