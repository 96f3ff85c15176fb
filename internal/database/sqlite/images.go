package sqlite

import (
	"context"
	"fmt"

	"github.com/hemedy99/facegate/internal/database"
)

// ImageRepository provides SQLite-backed image storage.
type ImageRepository struct {
	pool *Pool
}

// NewImageRepository creates a new image repository.
func NewImageRepository(pool *Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

// Create inserts an image row referencing the owning label.
func (r *ImageRepository) Create(ctx context.Context, path string, labelID int64) (*database.Image, error) {
	result, err := r.pool.db.ExecContext(ctx,
		"INSERT INTO images (path, label_id) VALUES (?, ?)", path, labelID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read image id: %w", err)
	}

	return &database.Image{ID: id, Path: path, LabelID: labelID}, nil
}

// ListByLabel returns all images owned by a label, ordered by id.
func (r *ImageRepository) ListByLabel(ctx context.Context, labelID int64) ([]database.Image, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT id, path, label_id FROM images WHERE label_id = ? ORDER BY id", labelID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []database.Image
	for rows.Next() {
		var img database.Image
		if err := rows.Scan(&img.ID, &img.Path, &img.LabelID); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return images, nil
}

// CountAll returns the total number of image rows.
func (r *ImageRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

// DeleteAll removes every image row.
func (r *ImageRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM images"); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	return nil
}
