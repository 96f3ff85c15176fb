package enroll

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"path/filepath"

	"github.com/hemedy99/facegate/internal/database"
	"github.com/hemedy99/facegate/internal/vision"
)

// Outcome classifies the result of a capture persist attempt.
type Outcome int

const (
	// OutcomeStored means the frame held a face and was persisted.
	OutcomeStored Outcome = iota
	// OutcomeSkipped means the frame held no detectable face; nothing was
	// written and the client hears nothing about it.
	OutcomeSkipped
	// OutcomeQuotaReached means the label already holds its full image
	// quota; the frame was discarded without running detection.
	OutcomeQuotaReached
)

// CaptureResult reports what a persist attempt did. Path is set only for
// OutcomeStored.
type CaptureResult struct {
	Outcome Outcome
	Path    string
}

// Capturer persists accepted enrollment frames, one per call.
type Capturer struct {
	registry *Registry
	images   database.ImageStore
	detector vision.Detector
}

// NewCapturer creates a capturer writing through the given registry and
// image store.
func NewCapturer(registry *Registry, images database.ImageStore, detector vision.Detector) *Capturer {
	return &Capturer{registry: registry, images: images, detector: detector}
}

// PersistCapture stores one face frame for a label. The file count check,
// the file write, and the row insert all run under the label's lock, so the
// quota holds even with concurrent sessions enrolling the same label.
// A frame either completes every step or leaves no trace: the written file
// is removed again if the row insert fails.
func (c *Capturer) PersistCapture(ctx context.Context, label *database.Label, frame image.Image) (CaptureResult, error) {
	lock := c.registry.lockFor(label.Name)
	lock.Lock()
	defer lock.Unlock()

	dir := c.registry.Dir(label.Name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("failed to read label directory: %w", err)
	}
	count := len(entries)
	if count >= MaxImagesPerLabel {
		return CaptureResult{Outcome: OutcomeQuotaReached}, nil
	}

	faces := c.detector.Detect(frame)
	if len(faces) == 0 {
		return CaptureResult{Outcome: OutcomeSkipped}, nil
	}

	cropped := vision.CropNormalize(frame, faces[0])

	path, err := filepath.Abs(filepath.Join(dir, fmt.Sprintf("%d.jpg", count)))
	if err != nil {
		return CaptureResult{}, fmt.Errorf("failed to resolve image path: %w", err)
	}
	log.Printf("Saving %s", path)

	if err := writeJPEG(path, cropped); err != nil {
		return CaptureResult{}, err
	}

	if _, err := c.images.Create(ctx, path, label.ID); err != nil {
		// No row without its file and no file without its row.
		os.Remove(path)
		return CaptureResult{}, fmt.Errorf("failed to persist image record: %w", err)
	}

	return CaptureResult{Outcome: OutcomeStored, Path: path}, nil
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := jpeg.Encode(f, img, nil); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close image file: %w", err)
	}
	return nil
}
