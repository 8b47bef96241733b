// AngelaMos | 2026
// service.go

package allergy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
)

const (
	suggestionsKey = "canteen:allergy:suggestions"

	// staleFillWindow bounds how long a load that read the old data may
	// take to write it back.
	staleFillWindow = 2 * time.Second
)

// IngredientSource lists the menu items whose ingredients feed suggestions.
type IngredientSource interface {
	List(ctx context.Context) ([]menu.Item, error)
}

type Service struct {
	store    core.Transactor[Repository]
	menu     IngredientSource
	cache    *redis.Client
	cacheTTL time.Duration

	redropAfter time.Duration
}

// NewService builds the registry. cache may be nil, in which case
// suggestions are computed on every call.
func NewService(
	store core.Transactor[Repository],
	menuSource IngredientSource,
	cache *redis.Client,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		store:    store,
		menu:     menuSource,
		cache:    cache,
		cacheTTL: cacheTTL,

		redropAfter: staleFillWindow,
	}
}

// AddAllergy records a normalized allergy for the student, creating the
// shared allergy row on first use.
func (s *Service) AddAllergy(ctx context.Context, actor core.Actor, rawName string) (*Allergy, error) {
	const op = "add allergy"

	if err := actor.Require(op, core.RoleStudent); err != nil {
		return nil, err
	}

	name := Normalize(rawName)
	if name == "" {
		return nil, fmt.Errorf("%s: name is required: %w", op, core.ErrInvalidInput)
	}

	var (
		added   *Allergy
		created bool
	)
	err := s.store.InTx(ctx, func(repo Repository) error {
		a, inserted, err := repo.GetOrCreate(ctx, uuid.New().String(), name)
		if err != nil {
			return err
		}
		if err := repo.Associate(ctx, actor.UserID, a.ID); err != nil {
			return err
		}
		added, created = a, inserted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.InvalidateSuggestions(ctx)
	}

	slog.InfoContext(ctx, "allergy added",
		"user_id", actor.UserID,
		"allergy", added.Name,
		"new_name", created,
	)

	return added, nil
}

// RemoveAllergy drops the student's link to the allergy. Removing an
// allergy the student does not have is not an error.
func (s *Service) RemoveAllergy(ctx context.Context, actor core.Actor, allergyID string) error {
	const op = "remove allergy"

	if err := actor.Require(op, core.RoleStudent); err != nil {
		return err
	}
	if uuid.Validate(allergyID) != nil {
		return nil
	}

	return s.store.Repos().Dissociate(ctx, actor.UserID, allergyID)
}

func (s *Service) ListForUser(ctx context.Context, actor core.Actor) ([]Allergy, error) {
	if err := actor.Require("list allergies", core.RoleStudent); err != nil {
		return nil, err
	}
	return s.store.Repos().ListForUser(ctx, actor.UserID)
}

// Suggestions is the sorted vocabulary offered when typing an allergy: every
// known allergy name plus every menu ingredient.
func (s *Service) Suggestions(ctx context.Context) ([]string, error) {
	return core.GetOrLoad(ctx, s.cache, suggestionsKey, s.cacheTTL, s.buildSuggestions)
}

func (s *Service) buildSuggestions(ctx context.Context) ([]string, error) {
	names, err := s.store.Repos().ListNames(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.menu.List(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	for i := range items {
		for _, token := range menu.IngredientTokens(items[i].Ingredients) {
			set[token] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)

	return out, nil
}

// InvalidateSuggestions drops the cached list now and once more after
// staleFillWindow, in case a load already in flight stores the old list
// after the first delete.
func (s *Service) InvalidateSuggestions(ctx context.Context) {
	if s.cache == nil {
		return
	}

	s.dropSuggestions(ctx)

	detached := context.WithoutCancel(ctx)
	time.AfterFunc(s.redropAfter, func() { s.dropSuggestions(detached) })
}

func (s *Service) dropSuggestions(ctx context.Context) {
	if err := s.cache.Del(ctx, suggestionsKey).Err(); err != nil {
		slog.WarnContext(ctx, "failed to invalidate allergy suggestions", "error", err)
	}
}

var _ menu.SuggestionInvalidator = (*Service)(nil)
