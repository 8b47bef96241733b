// AngelaMos | 2026
// repository_test.go

package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

const orderID = "0b7e4c1d-2a3f-4e5d-8c9b-1a2b3c4d5e6f"

var viewColumns = []string{
	"id", "user_id", "item_id", "status", "created_at",
	"student_confirmed", "price_paid", "username", "item_name",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return NewRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestCreateSetsCreatedAt(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(orderID, "u1", nil, StatusSubscription, true, 3000.0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	o := &Order{
		ID:               orderID,
		UserID:           "u1",
		Status:           StatusSubscription,
		StudentConfirmed: true,
		PricePaid:        3000,
	}
	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, now, o.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdateLocksAndReportsMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForUpdate(context.Background(), orderID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs(orderID, StatusReady, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), orderID, StatusReady, false)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListQueueScansDeletedItems(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	itemID := "m1"

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.status = 'Paid' AND o.item_id IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows(viewColumns).
			AddRow(orderID, "u1", itemID, "Paid", now, false, 150.0, "ann", "Soup").
			AddRow("o2", "u2", itemID, "Paid", now, false, 0.0, "ben", nil))

	views, err := repo.ListQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "ann", views[0].Username)
	require.NotNil(t, views[0].ItemName)
	assert.Equal(t, "Soup", *views[0].ItemName)
	assert.Nil(t, views[1].ItemName)
}
