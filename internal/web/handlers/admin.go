package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/hemedy99/facegate/internal/trainer"
)

// AdminHandler handles the authenticated admin operations
type AdminHandler struct {
	trainer *trainer.Orchestrator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(orchestrator *trainer.Orchestrator) *AdminHandler {
	return &AdminHandler{trainer: orchestrator}
}

// Train triggers a full retrain over the current corpus. The request carries
// no parameters and is idempotent; repeated calls just retrain again.
func (h *AdminHandler) Train(w http.ResponseWriter, r *http.Request) {
	log.Print("Training the model.")

	if err := h.trainer.Train(r.Context()); err != nil {
		if errors.Is(err, trainer.ErrEmptyCorpus) {
			respondError(w, http.StatusConflict, "training corpus is empty")
			return
		}
		log.Printf("Training failed: %v", err)
		respondError(w, http.StatusInternalServerError, "training failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Enrol points the admin client at the enrollment endpoint.
func (h *AdminHandler) Enrol(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"endpoint": "/enrol"})
}
