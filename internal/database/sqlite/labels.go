package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hemedy99/facegate/internal/database"
)

// LabelRepository provides SQLite-backed label storage.
type LabelRepository struct {
	pool *Pool
}

// NewLabelRepository creates a new label repository.
func NewLabelRepository(pool *Pool) *LabelRepository {
	return &LabelRepository{pool: pool}
}

// GetOrCreate returns the label with the given name, inserting it if absent.
// Uniqueness is enforced here at the lookup boundary, not by a constraint.
func (r *LabelRepository) GetOrCreate(ctx context.Context, name string) (*database.Label, error) {
	label, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if label != nil {
		return label, nil
	}

	result, err := r.pool.db.ExecContext(ctx, "INSERT INTO labels (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("insert label: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read label id: %w", err)
	}

	return &database.Label{ID: id, Name: name}, nil
}

// GetByID returns the label with the given id, or nil if it does not exist.
func (r *LabelRepository) GetByID(ctx context.Context, id int64) (*database.Label, error) {
	var l database.Label
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT id, name FROM labels WHERE id = ?", id,
	).Scan(&l.ID, &l.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get label by id: %w", err)
	}
	return &l, nil
}

// GetByName returns the label with the given name, or nil if it does not exist.
func (r *LabelRepository) GetByName(ctx context.Context, name string) (*database.Label, error) {
	var l database.Label
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT id, name FROM labels WHERE name = ? ORDER BY id LIMIT 1", name,
	).Scan(&l.ID, &l.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get label by name: %w", err)
	}
	return &l, nil
}

// List returns all labels ordered by id.
func (r *LabelRepository) List(ctx context.Context) ([]database.Label, error) {
	rows, err := r.pool.db.QueryContext(ctx, "SELECT id, name FROM labels ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []database.Label
	for rows.Next() {
		var l database.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return labels, nil
}

// DeleteAll removes every label row.
func (r *LabelRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM labels"); err != nil {
		return fmt.Errorf("delete labels: %w", err)
	}
	return nil
}
