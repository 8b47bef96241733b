// AngelaMos | 2026
// service.go

package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/events"
)

// SuggestionInvalidator drops cached allergy suggestions, which are derived
// from menu ingredients.
type SuggestionInvalidator interface {
	InvalidateSuggestions(ctx context.Context)
}

type Service struct {
	repo        Repository
	invalidator SuggestionInvalidator
	publisher   events.Publisher
}

func NewService(
	repo Repository,
	invalidator SuggestionInvalidator,
	publisher events.Publisher,
) *Service {
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		publisher:   publisher,
	}
}

func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

func (s *Service) Grouped(ctx context.Context) (Grouped, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Grouped{}, err
	}
	return GroupByCategory(items), nil
}

func (s *Service) AddItem(
	ctx context.Context,
	actor core.Actor,
	req CreateItemRequest,
) (*Item, error) {
	if err := actor.Require("add menu item", core.RoleAdmin); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("add menu item: name is required: %w", core.ErrInvalidInput)
	}

	if req.Price == nil || !core.ValidAmount(*req.Price) {
		return nil, fmt.Errorf(
			"add menu item: price must be non-negative with at most two decimals: %w",
			core.ErrInvalidInput,
		)
	}

	category := Category(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf(
			"add menu item: unknown category %q: %w",
			req.Category,
			core.ErrInvalidInput,
		)
	}

	item := &Item{
		ID:          uuid.New().String(),
		Name:        name,
		Price:       *req.Price,
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Ingredients: strings.TrimSpace(req.Ingredients),
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	events.Emit(ctx, s.publisher, events.New(events.MenuItemAdded, item.ID, ToItemResponse(item)))

	slog.InfoContext(ctx, "menu item added",
		"item_id", item.ID,
		"category", item.Category,
		"price", item.Price,
	)

	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, actor core.Actor, id string) error {
	if err := actor.Require("delete menu item", core.RoleAdmin); err != nil {
		return err
	}
	if err := core.RequireID("delete menu item", id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	events.Emit(ctx, s.publisher, events.New(events.MenuItemDeleted, id, map[string]string{
		"item_id": id,
	}))

	slog.InfoContext(ctx, "menu item deleted", "item_id", id)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidateSuggestions(ctx)
	}
}
