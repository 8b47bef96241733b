// AngelaMos | 2026
// repository.go

package allergy

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/canteen-backend/internal/core"
)

type Repository interface {
	GetOrCreate(ctx context.Context, id, name string) (*Allergy, bool, error)
	Associate(ctx context.Context, userID, allergyID string) error
	Dissociate(ctx context.Context, userID, allergyID string) error
	ListForUser(ctx context.Context, userID string) ([]Allergy, error)
	ListNames(ctx context.Context) ([]string, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// GetOrCreate returns the allergy called name, inserting it with id when it
// does not exist. The bool reports whether a row was inserted.
func (r *repository) GetOrCreate(
	ctx context.Context,
	id, name string,
) (*Allergy, bool, error) {
	query := `
		INSERT INTO allergies (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, (xmax = 0) AS inserted`

	var row struct {
		Allergy
		Inserted bool `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, id, name); err != nil {
		return nil, false, fmt.Errorf("get or create allergy: %w", err)
	}

	return &row.Allergy, row.Inserted, nil
}

// Associate links the allergy to the user, returning ErrAlreadyExists when
// the link is already present.
func (r *repository) Associate(ctx context.Context, userID, allergyID string) error {
	query := `
		INSERT INTO user_allergies (user_id, allergy_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, userID, allergyID)
	if err != nil {
		return fmt.Errorf("associate allergy: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("associate allergy: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("associate allergy: %w", core.ErrAlreadyExists)
	}

	return nil
}

func (r *repository) Dissociate(ctx context.Context, userID, allergyID string) error {
	query := `DELETE FROM user_allergies WHERE user_id = $1 AND allergy_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, allergyID); err != nil {
		return fmt.Errorf("dissociate allergy: %w", err)
	}

	return nil
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]Allergy, error) {
	query := `
		SELECT a.id, a.name
		FROM allergies a
		JOIN user_allergies ua ON ua.allergy_id = a.id
		WHERE ua.user_id = $1
		ORDER BY a.name`

	var allergies []Allergy
	if err := r.db.SelectContext(ctx, &allergies, query, userID); err != nil {
		return nil, fmt.Errorf("list user allergies: %w", err)
	}

	return allergies, nil
}

func (r *repository) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, `SELECT name FROM allergies ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list allergy names: %w", err)
	}

	return names, nil
}
