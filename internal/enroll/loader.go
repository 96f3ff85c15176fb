package enroll

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/hemedy99/facegate/internal/database"
	"github.com/hemedy99/facegate/internal/vision"
)

// Loader rebuilds the relational store from the enrollment directory tree
// and loads the training corpus back out of it. The directory tree is the
// source of truth; the label and image rows are a derived cache that gets
// thrown away and rebuilt on every boot.
type Loader struct {
	dataDir string
	labels  database.LabelStore
	images  database.ImageStore

	// Progress, when set, is called after each corpus image is read.
	Progress func(done, total int)
}

// NewLoader creates a loader over the given stores.
func NewLoader(dataDir string, labels database.LabelStore, images database.ImageStore) *Loader {
	return &Loader{dataDir: dataDir, labels: labels, images: images}
}

// Rebuild wipes all image and label rows, then walks the enrollment tree
// re-creating a Label row per subdirectory and an Image row per stored file.
func (l *Loader) Rebuild(ctx context.Context) error {
	if err := l.images.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear images: %w", err)
	}
	log.Println("Images deleted")
	if err := l.labels.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear labels: %w", err)
	}
	log.Println("Labels deleted")

	if err := os.MkdirAll(l.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	entries, err := os.ReadDir(l.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read image directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		label, err := l.labels.GetOrCreate(ctx, entry.Name())
		if err != nil {
			return fmt.Errorf("failed to restore label %q: %w", entry.Name(), err)
		}

		dir := filepath.Join(l.dataDir, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read label directory %q: %w", entry.Name(), err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			path, err := filepath.Abs(filepath.Join(dir, file.Name()))
			if err != nil {
				return fmt.Errorf("failed to resolve image path: %w", err)
			}
			if _, err := l.images.Create(ctx, path, label.ID); err != nil {
				return fmt.Errorf("failed to restore image %q: %w", path, err)
			}
		}
	}

	log.Println("Labels and images loaded")
	return nil
}

// LoadAll reads the complete training corpus: every image of every label,
// in label-then-image enumeration order, each normalized to the fixed
// training resolution. Files that cannot be read or decoded are logged and
// skipped, never failing the bulk load.
func (l *Loader) LoadAll(ctx context.Context) ([]vision.Sample, error) {
	labels, err := l.labels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	total, err := l.images.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	var samples []vision.Sample
	done := 0
	for _, label := range labels {
		images, err := l.images.ListByLabel(ctx, label.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list images for label %q: %w", label.Name, err)
		}
		for _, img := range images {
			done++
			face, err := loadSample(img.Path)
			if err != nil {
				log.Printf("Skipping unreadable image %s: %v", img.Path, err)
				continue
			}
			samples = append(samples, vision.Sample{Image: face, LabelID: label.ID})
			if l.Progress != nil {
				l.Progress(done, total)
			}
		}
	}

	return samples, nil
}

// loadSample reads one stored capture as a grayscale image at the training
// resolution.
func loadSample(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	return vision.Resize(vision.ToGray(img), vision.SampleSize, vision.SampleSize), nil
}
