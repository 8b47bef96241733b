// AngelaMos | 2026
// service_test.go

package stock

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/canteen-backend/internal/config"
	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/events"
)

type memRepo struct {
	requests map[string]*PurchaseRequest
	products map[string]*Product
	clock    time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		requests: map[string]*PurchaseRequest{},
		products: map[string]*Product{},
		clock:    time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) CreateRequest(_ context.Context, req *PurchaseRequest) error {
	m.clock = m.clock.Add(time.Minute)
	req.CreatedAt = m.clock
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *memRepo) GetRequest(_ context.Context, id string) (*PurchaseRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (m *memRepo) ResolveRequest(
	ctx context.Context,
	id string,
	status RequestStatus,
	cost float64,
) (*PurchaseRequest, error) {
	req, err := m.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsPending() {
		return nil, core.ErrInvalidState
	}
	stored := m.requests[id]
	stored.Status = status
	stored.Cost = cost
	now := m.clock
	stored.ResolvedAt = &now
	cp := *stored
	return &cp, nil
}

func (m *memRepo) ListRequests(_ context.Context, limit int) ([]PurchaseRequest, error) {
	out := make([]PurchaseRequest, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) AddToProduct(
	_ context.Context,
	id, name string,
	quantity float64,
	unit string,
) (*Product, error) {
	for _, p := range m.products {
		if p.Name == name {
			p.Quantity += quantity
			cp := *p
			return &cp, nil
		}
	}
	p := &Product{ID: id, Name: name, Quantity: quantity, Unit: unit}
	m.products[id] = p
	cp := *p
	return &cp, nil
}

func (m *memRepo) UpdateQuantity(_ context.Context, id string, quantity float64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	p.Quantity = quantity
	cp := *p
	return &cp, nil
}

func (m *memRepo) ListProducts(_ context.Context) ([]Product, error) {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memRepo) TotalApprovedCost(_ context.Context) (float64, error) {
	var total float64
	for _, r := range m.requests {
		if r.Status == RequestApproved {
			total += r.Cost
		}
	}
	return total, nil
}

func (m *memRepo) productByName(name string) *Product {
	for _, p := range m.products {
		if p.Name == name {
			return p
		}
	}
	return nil
}

type memStore struct {
	repo *memRepo
}

func (s memStore) Repos() Repository { return s.repo }

func (s memStore) InTx(_ context.Context, fn func(Repository) error) error {
	return fn(s.repo)
}

var (
	cook  = core.Actor{UserID: "c0000000-0000-4000-8000-000000000001", Role: core.RoleCook}
	admin = core.Actor{UserID: "a0000000-0000-4000-8000-000000000001", Role: core.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *memRepo, *events.Recorder) {
	t.Helper()

	repo := newMemRepo()
	rec := &events.Recorder{}
	svc := NewService(memStore{repo: repo}, config.CanteenConfig{
		DefaultUnit:      "kg",
		CookRequestLimit: 10,
	}, rec)

	return svc, repo, rec
}

func TestApproveFlourRequest(t *testing.T) {
	svc, repo, rec := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRequests(ctx, cook, []Line{{ProductName: " flour ", Quantity: 10}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "flour", created[0].ProductName)
	assert.Equal(t, RequestPending, created[0].Status)
	assert.Zero(t, created[0].Cost)

	resolved, err := svc.ResolveRequest(ctx, admin, created[0].ID, RequestApproved, 500)
	require.NoError(t, err)
	assert.Equal(t, RequestApproved, resolved.Status)
	assert.InDelta(t, 500, resolved.Cost, 0.001)

	flour := repo.productByName("flour")
	require.NotNil(t, flour)
	assert.InDelta(t, 10, flour.Quantity, 0.001)
	assert.Equal(t, "kg", flour.Unit)

	_, err = svc.ResolveRequest(ctx, admin, created[0].ID, RequestApproved, 500)
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.InDelta(t, 10, repo.productByName("flour").Quantity, 0.001)

	assert.Equal(t, []events.Type{
		events.PurchaseRequestCreated,
		events.PurchaseRequestResolved,
	}, rec.Types())
}

func TestApproveIncrementsExistingProduct(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	repo.products["p1"] = &Product{ID: "p1", Name: "sugar", Quantity: 2.5, Unit: "kg"}

	created, err := svc.CreateRequests(ctx, cook, []Line{{ProductName: "sugar", Quantity: 4}})
	require.NoError(t, err)

	_, err = svc.ResolveRequest(ctx, admin, created[0].ID, RequestApproved, 120)
	require.NoError(t, err)

	assert.Len(t, repo.products, 1)
	assert.InDelta(t, 6.5, repo.products["p1"].Quantity, 0.001)
}

func TestRejectLeavesStockAndCost(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRequests(ctx, cook, []Line{{ProductName: "milk", Quantity: 3}})
	require.NoError(t, err)

	resolved, err := svc.ResolveRequest(ctx, admin, created[0].ID, RequestRejected, 999)
	require.NoError(t, err)
	assert.Equal(t, RequestRejected, resolved.Status)
	assert.Zero(t, resolved.Cost)
	assert.Empty(t, repo.products)

	_, err = svc.ResolveRequest(ctx, admin, created[0].ID, RequestApproved, 10)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestResolveValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	id := "9b2f6c1e-0000-4000-8000-000000000000"

	tests := []struct {
		name   string
		actor  core.Actor
		status RequestStatus
		cost   float64
		want   error
	}{
		{"cook cannot resolve", cook, RequestApproved, 1, core.ErrForbidden},
		{"pending is not a resolution", admin, RequestPending, 1, core.ErrInvalidInput},
		{"negative cost", admin, RequestApproved, -1, core.ErrInvalidInput},
		{"sub cent cost", admin, RequestApproved, 0.004, core.ErrInvalidInput},
		{"cost above column", admin, RequestApproved, 1e12, core.ErrInvalidInput},
		{"missing request", admin, RequestApproved, 1, core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveRequest(ctx, tt.actor, id, tt.status, tt.cost)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateRequestsBatchIsAllOrNothing(t *testing.T) {
	svc, repo, rec := newTestService(t)

	_, err := svc.CreateRequests(context.Background(), cook, []Line{
		{ProductName: "rice", Quantity: 5},
		{ProductName: "  ", Quantity: 1},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.CreateRequests(context.Background(), cook, []Line{
		{ProductName: "rice", Quantity: 5},
		{ProductName: "oil", Quantity: 0},
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Empty(t, repo.requests)
	assert.Empty(t, rec.Events())
}

func TestCreateRequestsRequiresCook(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateRequests(context.Background(), admin, []Line{{ProductName: "rice", Quantity: 1}})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestUpdateStock(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := "3c1e1f2a-0000-4000-8000-000000000000"
	repo.products[id] = &Product{ID: id, Name: "flour", Quantity: 10, Unit: "kg"}

	p, err := svc.UpdateStock(ctx, cook, id, 7.25)
	require.NoError(t, err)
	assert.InDelta(t, 7.25, p.Quantity, 0.001)

	_, err = svc.UpdateStock(ctx, cook, "3c1e1f2a-0000-4000-8000-0000000000ff", 1)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.UpdateStock(ctx, admin, id, 1)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestListRequestsLimitedForCook(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	lines := make([]Line, 12)
	for i := range lines {
		lines[i] = Line{ProductName: "item", Quantity: float64(i + 1)}
	}
	_, err := svc.CreateRequests(ctx, cook, lines)
	require.NoError(t, err)

	forCook, err := svc.ListRequests(ctx, cook)
	require.NoError(t, err)
	assert.Len(t, forCook, 10)
	assert.InDelta(t, 12, forCook[0].Quantity, 0.001)

	forAdmin, err := svc.ListRequests(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, forAdmin, 12)
}

func TestTotalExpensesCountsApprovedOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateRequests(ctx, cook, []Line{
		{ProductName: "a", Quantity: 1},
		{ProductName: "b", Quantity: 1},
		{ProductName: "c", Quantity: 1},
	})
	require.NoError(t, err)

	_, err = svc.ResolveRequest(ctx, admin, created[0].ID, RequestApproved, 100)
	require.NoError(t, err)
	_, err = svc.ResolveRequest(ctx, admin, created[1].ID, RequestApproved, 250.5)
	require.NoError(t, err)
	_, err = svc.ResolveRequest(ctx, admin, created[2].ID, RequestRejected, 0)
	require.NoError(t, err)

	total, err := svc.TotalExpenses(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 350.5, total, 0.001)
}
