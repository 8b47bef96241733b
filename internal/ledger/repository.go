// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/menu"
	"github.com/carterperez-dev/canteen-backend/internal/order"
)

type AccountRepository interface {
	Get(ctx context.Context, userID string) (*Account, error)
	Lock(ctx context.Context, userID string) (*Account, error)
	Debit(ctx context.Context, userID string, amount float64) (float64, error)
	Credit(ctx context.Context, userID string, amount float64) (float64, error)
	SetSubscriptionEnd(ctx context.Context, userID string, end time.Time) error
}

type MenuReader interface {
	GetByID(ctx context.Context, id string) (*menu.Item, error)
}

type OrderWriter interface {
	Create(ctx context.Context, o *order.Order) error
}

// Repos is everything one purchase touches, bound to one transaction.
type Repos struct {
	Accounts AccountRepository
	Menu     MenuReader
	Orders   OrderWriter
}

func NewRepos(db core.DBTX) Repos {
	return Repos{
		Accounts: NewAccountRepository(db),
		Menu:     menu.NewRepository(db),
		Orders:   order.NewRepository(db),
	}
}

type accountRepository struct {
	db core.DBTX
}

func NewAccountRepository(db core.DBTX) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, userID string) (*Account, error) {
	query := `
		SELECT id, role, balance, subscription_end
		FROM users
		WHERE id = $1`

	return r.getAccount(ctx, query, userID)
}

// Lock reads the account and holds its row lock until the transaction ends,
// so concurrent purchases by one student are serialized.
func (r *accountRepository) Lock(ctx context.Context, userID string) (*Account, error) {
	query := `
		SELECT id, role, balance, subscription_end
		FROM users
		WHERE id = $1
		FOR UPDATE`

	return r.getAccount(ctx, query, userID)
}

func (r *accountRepository) getAccount(
	ctx context.Context,
	query, userID string,
) (*Account, error) {
	var acc Account
	err := r.db.GetContext(ctx, &acc, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &acc, nil
}

// Debit subtracts amount only when the balance covers it.
func (r *accountRepository) Debit(
	ctx context.Context,
	userID string,
	amount float64,
) (float64, error) {
	query := `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING balance`

	var balance float64
	err := r.db.GetContext(ctx, &balance, query, userID, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("debit: %w", core.ErrInsufficientFunds)
	}
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}

	return balance, nil
}

func (r *accountRepository) Credit(
	ctx context.Context,
	userID string,
	amount float64,
) (float64, error) {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance`

	var balance float64
	err := r.db.GetContext(ctx, &balance, query, userID, amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("credit: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}

	return balance, nil
}

func (r *accountRepository) SetSubscriptionEnd(
	ctx context.Context,
	userID string,
	end time.Time,
) error {
	query := `
		UPDATE users
		SET subscription_end = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, end)
	if err != nil {
		return fmt.Errorf("set subscription end: %w", err)
	}

	return core.RequireAffected(result, "set subscription end")
}
