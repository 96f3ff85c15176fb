// Package trainer orchestrates full retrains of the recognition model and
// owns the process-wide model state the prediction path reads from.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/hemedy99/facegate/internal/vision"
)

// ErrEmptyCorpus is returned when a retrain is attempted with no stored
// images. This is fatal to the triggering call and never retried.
var ErrEmptyCorpus = errors.New("training corpus is empty")

// CorpusLoader supplies the complete training corpus.
type CorpusLoader interface {
	LoadAll(ctx context.Context) ([]vision.Sample, error)
}

// ModelState holds the currently active model. It is swapped atomically on
// every successful retrain, so in-flight predictions keep the model they
// started with.
type ModelState struct {
	mu    sync.RWMutex
	model vision.Model
}

// Current returns the active model, or nil when none has been trained or
// loaded yet.
func (s *ModelState) Current() vision.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Set replaces the active model.
func (s *ModelState) Set(m vision.Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

// Orchestrator runs full retrains: load the complete corpus, fit a fresh
// model, persist the artifact, and publish the new model. There is no
// incremental path; every train covers the entire current store.
type Orchestrator struct {
	loader     CorpusLoader
	recognizer vision.Recognizer
	modelPath  string
	state      *ModelState

	// trainMu serializes retrains; a full fit is expensive and two
	// concurrent ones would race on the artifact file.
	trainMu sync.Mutex
}

// NewOrchestrator creates a training orchestrator writing the artifact to
// modelPath and publishing trained models to state.
func NewOrchestrator(loader CorpusLoader, recognizer vision.Recognizer, modelPath string, state *ModelState) *Orchestrator {
	return &Orchestrator{
		loader:     loader,
		recognizer: recognizer,
		modelPath:  modelPath,
		state:      state,
	}
}

// Train retrains the model over the complete current corpus, overwrites the
// persisted artifact, and swaps the active model. An empty corpus returns
// ErrEmptyCorpus and leaves both the artifact and the active model untouched.
func (o *Orchestrator) Train(ctx context.Context) error {
	o.trainMu.Lock()
	defer o.trainMu.Unlock()

	samples, err := o.loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load training corpus: %w", err)
	}
	if len(samples) == 0 {
		return ErrEmptyCorpus
	}

	model, err := o.recognizer.Fit(samples)
	if err != nil {
		return fmt.Errorf("failed to fit model: %w", err)
	}

	if err := model.Save(o.modelPath); err != nil {
		return fmt.Errorf("failed to persist model artifact: %w", err)
	}

	o.state.Set(model)
	log.Printf("Model trained over %d samples", len(samples))
	return nil
}

// Restore loads a previously persisted artifact into the model state.
// Used at startup when an initial train is not possible yet.
func (o *Orchestrator) Restore() error {
	model, err := o.recognizer.Load(o.modelPath)
	if err != nil {
		return fmt.Errorf("failed to restore model artifact: %w", err)
	}
	o.state.Set(model)
	return nil
}
