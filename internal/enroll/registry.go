// Package enroll implements the enrollment pipeline: the label registry with
// its per-label image quota, the capture persistence path, and the corpus
// loader that rebuilds the store from the image directory tree.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hemedy99/facegate/internal/database"
)

// MaxImagesPerLabel is the fixed cap on stored images per enrollment label.
const MaxImagesPerLabel = 10

// ErrInvalidLabelName rejects names that would escape the image directory.
var ErrInvalidLabelName = errors.New("invalid label name")

// Registry owns the set of enrollment labels and their on-disk image
// directories. All directory-level decisions for a label run under that
// label's lock, so a quota check and the write it guards cannot interleave
// with another session on the same label.
type Registry struct {
	dataDir string
	labels  database.LabelStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry creates a registry rooted at dataDir.
func NewRegistry(dataDir string, labels database.LabelStore) *Registry {
	return &Registry{
		dataDir: dataDir,
		labels:  labels,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding a label's directory, creating it on
// first use. Locks are never removed; the label set is small and long-lived.
func (r *Registry) lockFor(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}

// Dir returns the image directory owned by a label.
func (r *Registry) Dir(name string) string {
	return filepath.Join(r.dataDir, name)
}

// validName rejects empty names and names with path meta-characters.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

// EnsureLabel prepares a label for enrollment: a directory that already
// holds the full quota of images is wiped and recreated (re-enrollment
// resets the label), a missing directory is created, and the label row is
// fetched or created by name. Called on every enrollment-setup request, not
// only the first.
func (r *Registry) EnsureLabel(ctx context.Context, name string) (*database.Label, error) {
	if !validName(name) {
		return nil, ErrInvalidLabelName
	}

	lock := r.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	dir := r.Dir(name)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) >= MaxImagesPerLabel {
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("failed to reset label directory: %w", err)
		}
		log.Printf("Reset enrollment directory for label %q", name)
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create label directory: %w", err)
		}
		log.Printf("Created directory: %s", name)
	}

	label, err := r.labels.GetOrCreate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to persist label: %w", err)
	}
	return label, nil
}
