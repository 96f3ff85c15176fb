// Package mock provides in-memory implementations of the database interfaces
// for testing.
package mock

import (
	"context"
	"sync"

	"github.com/hemedy99/facegate/internal/database"
)

// MockLabelStore is an in-memory implementation of database.LabelStore.
type MockLabelStore struct {
	mu     sync.Mutex
	nextID int64
	labels []database.Label

	// Error injection
	GetOrCreateError error
	GetError         error
	ListError        error
	DeleteAllError   error
}

// NewMockLabelStore creates a new mock label store.
func NewMockLabelStore() *MockLabelStore {
	return &MockLabelStore{nextID: 1}
}

// GetOrCreate returns the label with the given name, creating it if absent.
func (m *MockLabelStore) GetOrCreate(ctx context.Context, name string) (*database.Label, error) {
	if m.GetOrCreateError != nil {
		return nil, m.GetOrCreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.labels {
		if l.Name == name {
			found := l
			return &found, nil
		}
	}
	label := database.Label{ID: m.nextID, Name: name}
	m.nextID++
	m.labels = append(m.labels, label)
	return &label, nil
}

// GetByID returns the label with the given id, or nil if absent.
func (m *MockLabelStore) GetByID(ctx context.Context, id int64) (*database.Label, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.labels {
		if l.ID == id {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

// GetByName returns the label with the given name, or nil if absent.
func (m *MockLabelStore) GetByName(ctx context.Context, name string) (*database.Label, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.labels {
		if l.Name == name {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

// List returns all labels ordered by id.
func (m *MockLabelStore) List(ctx context.Context) ([]database.Label, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]database.Label, len(m.labels))
	copy(out, m.labels)
	return out, nil
}

// DeleteAll removes every label.
func (m *MockLabelStore) DeleteAll(ctx context.Context) error {
	if m.DeleteAllError != nil {
		return m.DeleteAllError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels = nil
	return nil
}

// MockImageStore is an in-memory implementation of database.ImageStore.
type MockImageStore struct {
	mu     sync.Mutex
	nextID int64
	images []database.Image

	// Error injection
	CreateError    error
	ListError      error
	CountError     error
	DeleteAllError error
}

// NewMockImageStore creates a new mock image store.
func NewMockImageStore() *MockImageStore {
	return &MockImageStore{nextID: 1}
}

// Create inserts an image record.
func (m *MockImageStore) Create(ctx context.Context, path string, labelID int64) (*database.Image, error) {
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img := database.Image{ID: m.nextID, Path: path, LabelID: labelID}
	m.nextID++
	m.images = append(m.images, img)
	return &img, nil
}

// ListByLabel returns all images owned by a label, ordered by id.
func (m *MockImageStore) ListByLabel(ctx context.Context, labelID int64) ([]database.Image, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Image
	for _, img := range m.images {
		if img.LabelID == labelID {
			out = append(out, img)
		}
	}
	return out, nil
}

// CountAll returns the total number of image records.
func (m *MockImageStore) CountAll(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images), nil
}

// DeleteAll removes every image record.
func (m *MockImageStore) DeleteAll(ctx context.Context) error {
	if m.DeleteAllError != nil {
		return m.DeleteAllError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = nil
	return nil
}
