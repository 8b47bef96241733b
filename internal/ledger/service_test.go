// AngelaMos | 2026
// service_test.go

package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/canteen-backend/internal/config"
	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/events"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
	"github.com/carterperez-dev/canteen-backend/internal/order"
)

const (
	studentID = "7f1c2a9e-3b4d-4c5e-8f6a-1b2c3d4e5f60"
	itemID    = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

type fakeAccounts struct {
	accounts map[string]*Account
}

func (f *fakeAccounts) Get(_ context.Context, id string) (*Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeAccounts) Lock(ctx context.Context, id string) (*Account, error) {
	return f.Get(ctx, id)
}

func (f *fakeAccounts) Debit(_ context.Context, id string, amount float64) (float64, error) {
	acc := f.accounts[id]
	if acc.Balance < amount {
		return 0, core.ErrInsufficientFunds
	}
	acc.Balance -= amount
	return acc.Balance, nil
}

func (f *fakeAccounts) Credit(_ context.Context, id string, amount float64) (float64, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return 0, core.ErrNotFound
	}
	acc.Balance += amount
	return acc.Balance, nil
}

func (f *fakeAccounts) SetSubscriptionEnd(_ context.Context, id string, end time.Time) error {
	f.accounts[id].SubscriptionEnd = &end
	return nil
}

type fakeMenu map[string]*menu.Item

func (f fakeMenu) GetByID(_ context.Context, id string) (*menu.Item, error) {
	item, ok := f[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return item, nil
}

type fakeOrders struct {
	created []*order.Order
}

func (f *fakeOrders) Create(_ context.Context, o *order.Order) error {
	o.CreatedAt = time.Now()
	f.created = append(f.created, o)
	return nil
}

type fakeStore struct {
	repos Repos
}

func (f *fakeStore) Repos() Repos { return f.repos }

func (f *fakeStore) InTx(_ context.Context, fn func(Repos) error) error {
	return fn(f.repos)
}

type fixture struct {
	svc      *Service
	accounts *fakeAccounts
	orders   *fakeOrders
	events   *events.Recorder
}

func newFixture(t *testing.T, balance float64, now time.Time) *fixture {
	t.Helper()

	accounts := &fakeAccounts{accounts: map[string]*Account{
		studentID: {ID: studentID, Role: core.RoleStudent, Balance: balance},
	}}
	orders := &fakeOrders{}
	rec := &events.Recorder{}

	store := &fakeStore{repos: Repos{
		Accounts: accounts,
		Menu: fakeMenu{itemID: {
			ID:       itemID,
			Name:     "Porridge",
			Price:    150,
			Category: menu.CategoryBreakfast,
		}},
		Orders: orders,
	}}

	svc := NewService(store, config.CanteenConfig{
		SubscriptionPrice: 3000,
		SubscriptionDays:  30,
	}, rec)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, accounts: accounts, orders: orders, events: rec}
}

var student = core.Actor{UserID: studentID, Role: core.RoleStudent}

func TestTopUp(t *testing.T) {
	f := newFixture(t, 100, time.Now())

	balance, err := f.svc.TopUp(context.Background(), student, 250.5)
	require.NoError(t, err)
	assert.InDelta(t, 350.5, balance, 0.001)
	assert.Equal(t, []events.Type{events.BalanceToppedUp}, f.events.Types())
}

func TestTopUpRejectsBadAmounts(t *testing.T) {
	f := newFixture(t, 100, time.Now())

	for _, amount := range []float64{0, -5, 0.004, 1e12, math.NaN()} {
		_, err := f.svc.TopUp(context.Background(), student, amount)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	}
	assert.InDelta(t, 100, f.accounts.accounts[studentID].Balance, 0.001)
}

func TestTopUpRequiresStudent(t *testing.T) {
	f := newFixture(t, 100, time.Now())

	_, err := f.svc.TopUp(context.Background(), core.Actor{UserID: "x", Role: core.RoleCook}, 10)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.TopUp(context.Background(), core.Actor{}, 10)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestPurchaseSubscription(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, 4000, now)

	receipt, err := f.svc.PurchaseSubscription(context.Background(), student)
	require.NoError(t, err)

	assert.InDelta(t, 1000, receipt.Balance, 0.001)
	require.NotNil(t, receipt.SubscriptionEnd)
	assert.Equal(t, now.Add(30*24*time.Hour), *receipt.SubscriptionEnd)

	require.Len(t, f.orders.created, 1)
	o := f.orders.created[0]
	assert.Equal(t, order.StatusSubscription, o.Status)
	assert.Nil(t, o.ItemID)
	assert.True(t, o.StudentConfirmed)
	assert.InDelta(t, 3000, o.PricePaid, 0.001)
	assert.Equal(t, []events.Type{events.SubscriptionPurchased}, f.events.Types())
}

func TestPurchaseSubscriptionStacksOnActiveWindow(t *testing.T) {
	day10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	currentEnd := day10.Add(30 * 24 * time.Hour)

	f := newFixture(t, 3000, day10)
	f.accounts.accounts[studentID].SubscriptionEnd = &currentEnd

	receipt, err := f.svc.PurchaseSubscription(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, currentEnd.Add(30*24*time.Hour), *receipt.SubscriptionEnd)
}

func TestPurchaseSubscriptionInsufficientFunds(t *testing.T) {
	f := newFixture(t, 2999.99, time.Now())

	_, err := f.svc.PurchaseSubscription(context.Background(), student)
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)

	acc := f.accounts.accounts[studentID]
	assert.InDelta(t, 2999.99, acc.Balance, 0.001)
	assert.Nil(t, acc.SubscriptionEnd)
	assert.Empty(t, f.orders.created)
	assert.Empty(t, f.events.Events())
}

func TestPurchaseMenuItemCharges(t *testing.T) {
	f := newFixture(t, 200, time.Now())

	receipt, err := f.svc.PurchaseMenuItem(context.Background(), student, itemID)
	require.NoError(t, err)

	assert.InDelta(t, 50, receipt.Balance, 0.001)
	assert.Equal(t, order.StatusPaid, receipt.Order.Status)
	assert.InDelta(t, 150, receipt.Order.PricePaid, 0.001)
	require.NotNil(t, receipt.Order.ItemID)
	assert.Equal(t, itemID, *receipt.Order.ItemID)
	assert.False(t, receipt.Order.StudentConfirmed)
	assert.Equal(t, []events.Type{events.OrderPlaced}, f.events.Types())
}

func TestPurchaseMenuItemFreeWhileSubscribed(t *testing.T) {
	now := time.Now()
	end := now.Add(time.Hour)

	f := newFixture(t, 0, now)
	f.accounts.accounts[studentID].SubscriptionEnd = &end

	receipt, err := f.svc.PurchaseMenuItem(context.Background(), student, itemID)
	require.NoError(t, err)
	assert.Zero(t, receipt.Order.PricePaid)
	assert.Zero(t, receipt.Balance)
}

func TestPurchaseMenuItemExpiredSubscriptionCharges(t *testing.T) {
	now := time.Now()
	end := now.Add(-time.Minute)

	f := newFixture(t, 100, now)
	f.accounts.accounts[studentID].SubscriptionEnd = &end

	_, err := f.svc.PurchaseMenuItem(context.Background(), student, itemID)
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Empty(t, f.orders.created)
}

func TestPurchaseMenuItemUnknownItem(t *testing.T) {
	f := newFixture(t, 1000, time.Now())

	_, err := f.svc.PurchaseMenuItem(context.Background(), student, "not-a-uuid")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.PurchaseMenuItem(
		context.Background(),
		student,
		"9b2f6c1e-0000-4000-8000-000000000000",
	)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.InDelta(t, 1000, f.accounts.accounts[studentID].Balance, 0.001)
}

func TestExtendedSubscriptionEnd(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period := 30 * 24 * time.Hour
	past := now.Add(-time.Hour)
	future := now.Add(10 * 24 * time.Hour)

	assert.Equal(t, now.Add(period), ExtendedSubscriptionEnd(nil, now, period))
	assert.Equal(t, now.Add(period), ExtendedSubscriptionEnd(&past, now, period))
	assert.Equal(t, future.Add(period), ExtendedSubscriptionEnd(&future, now, period))
}
