// AngelaMos | 2026
// repository_test.go

package menu

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

const itemID = "0b7c9e2a-5f43-4d1e-8a6b-3c2d1e0f9a87"

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return NewRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestCreateSetsCreatedAt(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO menu_items")).
		WithArgs(itemID, "Soup", 150.0, "", CategoryLunch, "beet, cabbage").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	item := &Item{ID: itemID, Name: "Soup", Price: 150, Category: CategoryLunch, Ingredients: "beet, cabbage"}
	require.NoError(t, repo.Create(context.Background(), item))

	assert.Equal(t, created, item.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM menu_items")).
		WithArgs(itemID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), itemID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM menu_items WHERE id = $1")).
		WithArgs(itemID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), itemID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
