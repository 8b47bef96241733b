// AngelaMos | 2026
// service_test.go

package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/events"
)

type memRepo struct {
	orders  map[string]*Order
	updates int
}

func (m *memRepo) Create(_ context.Context, o *Order) error {
	o.CreatedAt = time.Now()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memRepo) GetForUpdate(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id string, status Status, confirmed bool) error {
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("update order status: %w", core.ErrNotFound)
	}
	o.Status = status
	o.StudentConfirmed = confirmed
	m.updates++
	return nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string) ([]View, error) {
	var out []View
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, View{Order: *o})
		}
	}
	return out, nil
}

func (m *memRepo) ListQueue(context.Context) ([]View, error) {
	var out []View
	for _, o := range m.orders {
		if o.Status == StatusPaid && o.ItemID != nil {
			out = append(out, View{Order: *o})
		}
	}
	return out, nil
}

type memStore struct{ repo *memRepo }

func (s memStore) Repos() Repository { return s.repo }

func (s memStore) InTx(_ context.Context, fn func(Repository) error) error {
	return fn(s.repo)
}

var (
	cook    = core.Actor{UserID: uuid.NewString(), Role: core.RoleCook}
	admin   = core.Actor{UserID: uuid.NewString(), Role: core.RoleAdmin}
	student = core.Actor{UserID: uuid.NewString(), Role: core.RoleStudent}
	other   = core.Actor{UserID: uuid.NewString(), Role: core.RoleStudent}
)

func newTestService() (*Service, *memRepo, *events.Recorder) {
	repo := &memRepo{orders: map[string]*Order{}}
	rec := &events.Recorder{}
	return NewService(memStore{repo: repo}, rec), repo, rec
}

func seedMeal(t *testing.T, repo *memRepo, owner core.Actor, status Status) *Order {
	t.Helper()

	itemID := uuid.NewString()
	o := &Order{
		ID:        uuid.NewString(),
		UserID:    owner.UserID,
		ItemID:    &itemID,
		Status:    status,
		PricePaid: 150,
	}
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestSetStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPaid, StatusPreparing, true},
		{StatusPaid, StatusReady, true},
		{StatusPaid, StatusReceived, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusReceived, true},
		{StatusReady, StatusPaid, false},
		{StatusReceived, StatusPreparing, false},
		{StatusPreparing, StatusSubscription, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s to %s", tt.from, tt.to), func(t *testing.T) {
			svc, repo, rec := newTestService()
			o := seedMeal(t, repo, student, tt.from)

			got, err := svc.SetStatus(context.Background(), cook, o.ID, tt.to)
			if !tt.ok {
				assert.ErrorIs(t, err, core.ErrInvalidState)
				assert.Equal(t, tt.from, repo.orders[o.ID].Status)
				assert.Empty(t, rec.Types())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
			assert.Equal(t, tt.to, repo.orders[o.ID].Status)
			assert.Equal(t, []events.Type{events.OrderStatusChanged}, rec.Types())
		})
	}
}

func TestSetStatusOnFinishedOrder(t *testing.T) {
	assert.True(t, StatusReceived.IsTerminal())
	assert.True(t, StatusSubscription.IsTerminal())
	assert.False(t, StatusReady.IsTerminal())

	for _, from := range []Status{StatusReceived, StatusSubscription} {
		svc, repo, rec := newTestService()
		o := seedMeal(t, repo, student, from)

		_, err := svc.SetStatus(context.Background(), cook, o.ID, StatusReady)
		require.ErrorIs(t, err, core.ErrInvalidState)
		assert.Contains(t, err.Error(), "already "+string(from))
		assert.Zero(t, repo.updates)
		assert.Empty(t, rec.Types())
	}
}

func TestSetStatusSameStatusIsNoop(t *testing.T) {
	svc, repo, rec := newTestService()
	o := seedMeal(t, repo, student, StatusReady)

	got, err := svc.SetStatus(context.Background(), admin, o.ID, StatusReady)
	require.NoError(t, err)

	assert.Equal(t, StatusReady, got.Status)
	assert.Zero(t, repo.updates)
	assert.Empty(t, rec.Types())
}

func TestSetStatusRejects(t *testing.T) {
	svc, repo, _ := newTestService()
	o := seedMeal(t, repo, student, StatusPaid)
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, student, o.ID, StatusReady)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.SetStatus(ctx, cook, o.ID, Status("Burnt"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.SetStatus(ctx, cook, "123", StatusReady)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.SetStatus(ctx, cook, uuid.NewString(), StatusReady)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestConfirmReceipt(t *testing.T) {
	svc, repo, rec := newTestService()
	o := seedMeal(t, repo, student, StatusReady)
	ctx := context.Background()

	_, err := svc.ConfirmReceipt(ctx, other, o.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.ConfirmReceipt(ctx, cook, o.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	got, err := svc.ConfirmReceipt(ctx, student, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, got.Status)
	assert.True(t, got.StudentConfirmed)

	again, err := svc.ConfirmReceipt(ctx, student, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, again.Status)
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, []events.Type{events.OrderConfirmed}, rec.Types())
}

func TestConfirmReceiptFromPaid(t *testing.T) {
	svc, repo, _ := newTestService()
	o := seedMeal(t, repo, student, StatusPaid)

	got, err := svc.ConfirmReceipt(context.Background(), student, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, got.Status)
}

func TestConfirmReceiptSubscriptionUnchanged(t *testing.T) {
	svc, repo, rec := newTestService()
	sub := &Order{
		ID:               uuid.NewString(),
		UserID:           student.UserID,
		Status:           StatusSubscription,
		StudentConfirmed: true,
		PricePaid:        3000,
	}
	require.NoError(t, repo.Create(context.Background(), sub))

	got, err := svc.ConfirmReceipt(context.Background(), student, sub.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusSubscription, got.Status)
	assert.Zero(t, repo.updates)
	assert.Empty(t, rec.Types())
}

func TestQueueAndHistory(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	seedMeal(t, repo, student, StatusPaid)
	seedMeal(t, repo, student, StatusReceived)
	seedMeal(t, repo, other, StatusPaid)

	queue, err := svc.CookQueue(ctx, cook)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	_, err = svc.CookQueue(ctx, student)
	assert.ErrorIs(t, err, core.ErrForbidden)

	mine, err := svc.ListForUser(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestPurpose(t *testing.T) {
	name := "Borscht"
	meal := &Order{Status: StatusPaid}
	sub := &Order{Status: StatusSubscription}

	assert.Equal(t, "Borscht", Purpose(meal, &name))
	assert.Equal(t, PurposeSubscription, Purpose(sub, nil))
	assert.Equal(t, PurposeDeletedItem, Purpose(meal, nil))
}
