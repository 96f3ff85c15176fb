// Package database defines the label/image storage interfaces and their
// record types. The sqlite subpackage provides the file-backed implementation,
// the mock subpackage an in-memory one for tests.
package database

import "context"

// LabelStore persists enrollment labels keyed by name.
type LabelStore interface {
	// GetOrCreate returns the label with the given name, creating it first
	// if it does not exist.
	GetOrCreate(ctx context.Context, name string) (*Label, error)
	// GetByID returns the label with the given id, or nil if absent.
	GetByID(ctx context.Context, id int64) (*Label, error)
	// GetByName returns the label with the given name, or nil if absent.
	GetByName(ctx context.Context, name string) (*Label, error)
	// List returns all labels ordered by id.
	List(ctx context.Context) ([]Label, error)
	// DeleteAll removes every label row.
	DeleteAll(ctx context.Context) error
}

// ImageStore persists face capture records.
type ImageStore interface {
	// Create inserts an image row referencing the owning label.
	Create(ctx context.Context, path string, labelID int64) (*Image, error)
	// ListByLabel returns all images owned by a label, ordered by id.
	ListByLabel(ctx context.Context, labelID int64) ([]Image, error)
	// CountAll returns the total number of image rows.
	CountAll(ctx context.Context) (int, error)
	// DeleteAll removes every image row.
	DeleteAll(ctx context.Context) error
}
