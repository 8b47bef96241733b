// AngelaMos | 2026
// service.go

package report

import (
	"context"
	"math"
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/order"
)

type Service struct {
	store core.Snapshotter[Repository]
	loc   *time.Location
	now   func() time.Time
}

func NewService(store core.Snapshotter[Repository], loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

func (s *Service) Totals(ctx context.Context, actor core.Actor) (Totals, error) {
	if err := actor.Require("financial totals", core.RoleAdmin); err != nil {
		return Totals{}, err
	}

	var totals Totals
	err := s.store.Snapshot(ctx, func(repo Repository) error {
		income, err := repo.Income(ctx)
		if err != nil {
			return err
		}
		expenses, err := repo.Expenses(ctx)
		if err != nil {
			return err
		}
		totals = NewTotals(income, expenses)
		return nil
	})
	return totals, err
}

// Financial builds the full report: totals plus one line per order. Income
// is the sum of the lines so the two always agree.
func (s *Service) Financial(ctx context.Context, actor core.Actor) (*Financial, error) {
	if err := actor.Require("financial report", core.RoleAdmin); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "report.Financial")
	var err error
	defer func() { core.EndSpan(span, err) }()

	var (
		expenses float64
		views    []order.View
	)
	err = s.store.Snapshot(ctx, func(repo Repository) error {
		var err error
		if expenses, err = repo.Expenses(ctx); err != nil {
			return err
		}
		views, err = repo.Orders(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var income float64
	lines := make([]Line, 0, len(views))
	for i := range views {
		line := NewLine(&views[i])
		income += line.Amount
		lines = append(lines, line)
	}

	return &Financial{
		GeneratedAt: s.now().In(s.loc),
		Totals:      NewTotals(math.Round(income*100)/100, expenses),
		Lines:       lines,
	}, nil
}

// TodaysVisitors lists today's visitors, where today is the current
// calendar day in the canteen's time zone.
func (s *Service) TodaysVisitors(ctx context.Context, actor core.Actor) ([]Visitor, error) {
	if err := actor.Require("todays visitors", core.RoleAdmin); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	views, err := s.store.Repos().OrdersBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	return Visitors(views), nil
}
