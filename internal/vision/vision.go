// Package vision holds the face detection, normalization, and recognition
// capabilities behind small interfaces so the concrete backend stays
// swappable without touching the enrollment or prediction pipeline.
package vision

import "image"

// SampleSize is the fixed edge length, in pixels, of normalized training and
// inference samples.
const SampleSize = 100

// Rect is an axis-aligned face bounding box in source image coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Sample is one normalized training input: a grayscale face image and the
// id of the label it belongs to.
type Sample struct {
	Image   *image.Gray
	LabelID int64
}

// Detector finds face regions in a frame. An empty slice means no face; the
// first returned region is the preferred (largest) one.
type Detector interface {
	Detect(img image.Image) []Rect
}

// Model is a trained face recognition model. Infer returns the closest
// label id and a non-negative distance, where lower means a stronger match.
type Model interface {
	Infer(face *image.Gray) (labelID int64, distance float64)
	Save(path string) error
}

// Recognizer fits models from sample corpora and loads persisted artifacts.
type Recognizer interface {
	Fit(samples []Sample) (Model, error)
	Load(path string) (Model, error)
}
