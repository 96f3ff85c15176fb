// Package predict serves identity predictions against the currently active
// recognition model.
package predict

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/hemedy99/facegate/internal/database"
	"github.com/hemedy99/facegate/internal/trainer"
	"github.com/hemedy99/facegate/internal/vision"
)

// ErrNoModel means no model has been trained or loaded yet.
var ErrNoModel = errors.New("no trained model available")

// Result is one identity prediction. Distance is non-negative and lower
// means a stronger match; no threshold is applied here, callers decide what
// to accept. Box is the detected face region the crop was taken from.
type Result struct {
	Name     string
	Distance float64
	Box      vision.Rect
}

// Service predicts identities for incoming frames.
type Service struct {
	detector vision.Detector
	labels   database.LabelStore
	state    *trainer.ModelState
}

// NewService creates a prediction service reading models from state.
func NewService(detector vision.Detector, labels database.LabelStore, state *trainer.ModelState) *Service {
	return &Service{detector: detector, labels: labels, state: state}
}

// Predict runs detection on the frame and, when a face is found, infers the
// closest enrolled identity. A frame without a detectable face yields
// (nil, nil). A label id the store cannot resolve also yields no result.
func (s *Service) Predict(ctx context.Context, frame image.Image) (*Result, error) {
	faces := s.detector.Detect(frame)
	if len(faces) == 0 {
		return nil, nil
	}

	model := s.state.Current()
	if model == nil {
		return nil, ErrNoModel
	}

	face := vision.Resize(vision.CropNormalize(frame, faces[0]), vision.SampleSize, vision.SampleSize)
	labelID, distance := model.Infer(face)

	label, err := s.labels.GetByID(ctx, labelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve label %d: %w", labelID, err)
	}
	if label == nil {
		log.Printf("Prediction returned unknown label id %d", labelID)
		return nil, nil
	}

	return &Result{
		Name:     label.Name,
		Distance: distance,
		Box:      faces[0],
	}, nil
}
