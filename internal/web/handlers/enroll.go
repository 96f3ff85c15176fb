package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/hemedy99/facegate/internal/enroll"
	"github.com/hemedy99/facegate/internal/web/middleware"
)

// EnrollHandler handles enrollment setup
type EnrollHandler struct {
	registry       *enroll.Registry
	sessionManager *middleware.SessionManager
}

// NewEnrollHandler creates a new enrollment handler
func NewEnrollHandler(registry *enroll.Registry, sm *middleware.SessionManager) *EnrollHandler {
	return &EnrollHandler{
		registry:       registry,
		sessionManager: sm,
	}
}

// enrollRequest represents an enrollment setup request
type enrollRequest struct {
	label string
}

func (e *enrollRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal enroll request: %w", err)
	}
	e.label = raw["label"]
	return nil
}

// EnrollResponse represents an enrollment setup response
type EnrollResponse struct {
	Success bool   `json:"success"`
	Label   string `json:"label,omitempty"`
	Stream  string `json:"stream,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Setup registers the label for a new enrollment and binds it to the client
// with a signed cookie. The harvest websocket reads the cookie, so the label
// cannot be swapped mid-stream.
func (h *EnrollHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.label == "" {
		log.Print("No label, bailing out")
		respondError(w, http.StatusBadRequest, "label is required")
		return
	}
	log.Printf("Got label %s", sanitizeForLog(req.label))

	label, err := h.registry.EnsureLabel(r.Context(), req.label)
	if err != nil {
		if errors.Is(err, enroll.ErrInvalidLabelName) {
			respondError(w, http.StatusBadRequest, "invalid label name")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to register label")
		return
	}

	h.sessionManager.SetLabelCookie(w, label.Name)

	respondJSON(w, http.StatusOK, EnrollResponse{
		Success: true,
		Label:   label.Name,
		Stream:  "/ws/harvest",
	})
}
