// AngelaMos | 2026
// service_test.go

package allergy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
)

type link struct{ userID, allergyID string }

type memRepo struct {
	byName map[string]*Allergy
	links  map[link]bool
}

func newMemRepo() *memRepo {
	return &memRepo{byName: map[string]*Allergy{}, links: map[link]bool{}}
}

func (m *memRepo) GetOrCreate(_ context.Context, id, name string) (*Allergy, bool, error) {
	if a, ok := m.byName[name]; ok {
		return a, false, nil
	}
	a := &Allergy{ID: id, Name: name}
	m.byName[name] = a
	return a, true, nil
}

func (m *memRepo) Associate(_ context.Context, userID, allergyID string) error {
	k := link{userID, allergyID}
	if m.links[k] {
		return core.ErrAlreadyExists
	}
	m.links[k] = true
	return nil
}

func (m *memRepo) Dissociate(_ context.Context, userID, allergyID string) error {
	delete(m.links, link{userID, allergyID})
	return nil
}

func (m *memRepo) ListForUser(_ context.Context, userID string) ([]Allergy, error) {
	var out []Allergy
	for _, a := range m.byName {
		if m.links[link{userID, a.ID}] {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) ListNames(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(m.byName))
	for n := range m.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

type memStore struct{ repo *memRepo }

func (s memStore) Repos() Repository { return s.repo }

func (s memStore) InTx(_ context.Context, fn func(Repository) error) error {
	return fn(s.repo)
}

type staticMenu []menu.Item

func (m staticMenu) List(context.Context) ([]menu.Item, error) { return m, nil }

var (
	alice = core.Actor{UserID: "a11ce000-0000-4000-8000-000000000000", Role: core.RoleStudent}
	bob   = core.Actor{UserID: "b0b00000-0000-4000-8000-000000000000", Role: core.RoleStudent}
)

func newTestService(items ...menu.Item) (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(memStore{repo: repo}, staticMenu(items), nil, 0), repo
}

func TestAddAllergyNormalizesAndDedupes(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.AddAllergy(ctx, alice, "  Peanuts ")
	require.NoError(t, err)
	assert.Equal(t, "peanuts", first.Name)

	_, err = svc.AddAllergy(ctx, alice, "PEANUTS")
	assert.ErrorIs(t, err, core.ErrAlreadyExists)

	mine, err := svc.ListForUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	assert.Len(t, repo.byName, 1)
}

func TestAllergyRowSharedAcrossUsers(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, err := svc.AddAllergy(ctx, alice, "gluten")
	require.NoError(t, err)
	b, err := svc.AddAllergy(ctx, bob, "Gluten")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Len(t, repo.byName, 1)
	assert.Len(t, repo.links, 2)
}

func TestAddAllergyValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddAllergy(ctx, alice, "   ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.AddAllergy(ctx, core.Actor{UserID: "c", Role: core.RoleCook}, "milk")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestRemoveAllergyIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, err := svc.AddAllergy(ctx, alice, "soy")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveAllergy(ctx, bob, a.ID))
	assert.Len(t, repo.links, 1)

	require.NoError(t, svc.RemoveAllergy(ctx, alice, a.ID))
	require.NoError(t, svc.RemoveAllergy(ctx, alice, a.ID))
	require.NoError(t, svc.RemoveAllergy(ctx, alice, "not-an-id"))
	assert.Empty(t, repo.links)
}

func TestSuggestionsMergeNamesAndIngredients(t *testing.T) {
	svc, _ := newTestService(
		menu.Item{Ingredients: "Milk, oats , honey"},
		menu.Item{Ingredients: "eggs,,milk"},
	)
	ctx := context.Background()

	_, err := svc.AddAllergy(ctx, alice, "Peanuts")
	require.NoError(t, err)
	_, err = svc.AddAllergy(ctx, bob, "honey")
	require.NoError(t, err)

	got, err := svc.Suggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eggs", "honey", "milk", "oats", "peanuts"}, got)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "lactose", Normalize("  LacTose\t"))
	assert.Empty(t, Normalize("   "))
}

// cacheLog answers every Redis command locally and records its name and key.
type cacheLog struct {
	mu   sync.Mutex
	cmds []string
}

func (l *cacheLog) DialHook(next redis.DialHook) redis.DialHook { return next }

func (l *cacheLog) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		l.mu.Lock()
		defer l.mu.Unlock()

		entry := cmd.Name()
		if args := cmd.Args(); len(args) > 1 {
			entry += " " + fmt.Sprint(args[1])
		}
		l.cmds = append(l.cmds, entry)
		return nil
	}
}

func (l *cacheLog) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (l *cacheLog) count(entry string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, c := range l.cmds {
		if c == entry {
			n++
		}
	}
	return n
}

func TestInvalidateSuggestionsDropsTwice(t *testing.T) {
	cmds := &cacheLog{}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(cmds)
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(memStore{repo: newMemRepo()}, staticMenu(nil), client, time.Minute)
	svc.redropAfter = 20 * time.Millisecond

	_, err := svc.AddAllergy(context.Background(), alice, "Sesame")
	require.NoError(t, err)

	del := "del " + suggestionsKey
	assert.Equal(t, 1, cmds.count(del))
	assert.Eventually(t, func() bool { return cmds.count(del) == 2 },
		time.Second, 5*time.Millisecond)
}
