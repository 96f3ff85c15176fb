package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"log"
	"net/http"
	"strconv"

	// Frame decoders for the formats browser clients send.
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/hemedy99/facegate/internal/database"
	"github.com/hemedy99/facegate/internal/enroll"
	"github.com/hemedy99/facegate/internal/predict"
	"github.com/hemedy99/facegate/internal/vision"
	"github.com/hemedy99/facegate/internal/web/middleware"
)

// SocketHandler serves the websocket video streams. Each connection carries
// one mode for its whole lifetime; frames are binary encoded images and are
// processed strictly in arrival order.
type SocketHandler struct {
	detector       vision.Detector
	capturer       *enroll.Capturer
	predictor      *predict.Service
	labels         database.LabelStore
	sessionManager *middleware.SessionManager
}

// NewSocketHandler creates a new websocket handler
func NewSocketHandler(
	detector vision.Detector,
	capturer *enroll.Capturer,
	predictor *predict.Service,
	labels database.LabelStore,
	sm *middleware.SessionManager,
) *SocketHandler {
	return &SocketHandler{
		detector:       detector,
		capturer:       capturer,
		predictor:      predictor,
		labels:         labels,
		sessionManager: sm,
	}
}

// frameFunc processes one decoded frame and may write a reply to the socket.
type frameFunc func(ctx context.Context, ws *websocket.Conn, frame image.Image) error

// FaceDetect returns the handler for the face detection stream.
func (h *SocketHandler) FaceDetect() http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		h.serve(ws, "facedetect", h.detectFrame)
	})
}

// Harvest returns the handler for the enrollment capture stream.
func (h *SocketHandler) Harvest() http.Handler {
	return websocket.Handler(h.serveHarvest)
}

// Predict returns the handler for the prediction stream.
func (h *SocketHandler) Predict() http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		h.serve(ws, "predict", h.predictFrame)
	})
}

// serve runs the per-connection frame loop. Undecodable frames and frame
// processing failures are logged and absorbed; the stream keeps going until
// the client hangs up.
func (h *SocketHandler) serve(ws *websocket.Conn, mode string, process frameFunc) {
	id := uuid.NewString()
	log.Printf("Websocket %s session %s: connection established", mode, id)
	defer log.Printf("Websocket %s session %s: connection closed", mode, id)

	ctx := ws.Request().Context()
	for {
		var payload []byte
		if err := websocket.Message.Receive(ws, &payload); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("Websocket %s session %s: receive failed: %v", mode, id, err)
			}
			return
		}

		frame, _, err := image.Decode(bytes.NewReader(payload))
		if err != nil {
			log.Printf("Websocket %s session %s: skipping undecodable frame: %v", mode, id, err)
			continue
		}

		if err := process(ctx, ws, frame); err != nil {
			log.Printf("Websocket %s session %s: frame failed: %v", mode, id, err)
		}
	}
}

// serveHarvest resolves the enrollment label once per connection from the
// signed cookie, then runs the capture loop against it.
func (h *SocketHandler) serveHarvest(ws *websocket.Conn) {
	name, ok := h.sessionManager.LabelFromRequest(ws.Request())
	if !ok {
		log.Print("No cookie, bailing out")
		return
	}

	label, err := h.labels.GetByName(ws.Request().Context(), name)
	if err != nil || label == nil {
		log.Printf("Unknown enrollment label %s, bailing out", sanitizeForLog(name))
		return
	}
	log.Printf("Got label: %s", sanitizeForLog(label.Name))

	h.serve(ws, "harvest", func(ctx context.Context, ws *websocket.Conn, frame image.Image) error {
		result, err := h.capturer.PersistCapture(ctx, label, frame)
		if err != nil {
			return err
		}
		// Only quota completion is announced; stored and skipped frames
		// stay silent so the client keeps streaming.
		if result.Outcome == enroll.OutcomeQuotaReached {
			return websocket.JSON.Send(ws, "Done")
		}
		return nil
	})
}

// detectFrame replies with the detected face rectangles, or stays silent
// when the frame has none.
func (h *SocketHandler) detectFrame(ctx context.Context, ws *websocket.Conn, frame image.Image) error {
	faces := h.detector.Detect(frame)
	if len(faces) == 0 {
		return nil
	}

	rects := make([][4]int, len(faces))
	for i, f := range faces {
		rects[i] = [4]int{f.X, f.Y, f.Width, f.Height}
	}
	return websocket.JSON.Send(ws, rects)
}

// predictionMessage is the wire shape of one prediction reply. Coordinates
// are decimal strings, matching what the stream clients parse.
type predictionMessage struct {
	Face predictionFace `json:"face"`
}

type predictionFace struct {
	Name     string           `json:"name"`
	Distance float64          `json:"distance"`
	Coords   predictionCoords `json:"coords"`
}

type predictionCoords struct {
	X      string `json:"x"`
	Y      string `json:"y"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// predictFrame replies with the closest enrolled identity when the frame has
// a face, and stays silent otherwise. A missing model is not fatal to the
// stream; the client may connect before the first train completes.
func (h *SocketHandler) predictFrame(ctx context.Context, ws *websocket.Conn, frame image.Image) error {
	result, err := h.predictor.Predict(ctx, frame)
	if err != nil {
		if errors.Is(err, predict.ErrNoModel) {
			log.Print("Prediction requested before a model is available")
			return nil
		}
		return err
	}
	if result == nil {
		return nil
	}

	return websocket.JSON.Send(ws, predictionMessage{
		Face: predictionFace{
			Name:     result.Name,
			Distance: result.Distance,
			Coords: predictionCoords{
				X:      strconv.Itoa(result.Box.X),
				Y:      strconv.Itoa(result.Box.Y),
				Width:  strconv.Itoa(result.Box.Width),
				Height: strconv.Itoa(result.Box.Height),
			},
		},
	})
}
