package handlers

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"github.com/hemedy99/facegate/internal/database/mock"
	"github.com/hemedy99/facegate/internal/enroll"
	"github.com/hemedy99/facegate/internal/predict"
	"github.com/hemedy99/facegate/internal/trainer"
	"github.com/hemedy99/facegate/internal/vision"
	"github.com/hemedy99/facegate/internal/web/middleware"
)

// stubDetector returns a fixed set of face regions.
type stubDetector struct {
	rects []vision.Rect
}

func (d *stubDetector) Detect(img image.Image) []vision.Rect {
	return d.rects
}

// stubModel answers every inference with the same label and distance.
type stubModel struct {
	labelID  int64
	distance float64
}

func (m *stubModel) Infer(face *image.Gray) (int64, float64) {
	return m.labelID, m.distance
}

func (m *stubModel) Save(path string) error { return nil }

type socketEnv struct {
	server   *httptest.Server
	sm       *middleware.SessionManager
	labels   *mock.MockLabelStore
	images   *mock.MockImageStore
	registry *enroll.Registry
	state    *trainer.ModelState
	dataDir  string
}

func setupSockets(t *testing.T, rects []vision.Rect) *socketEnv {
	t.Helper()
	dataDir := t.TempDir()
	labels := mock.NewMockLabelStore()
	images := mock.NewMockImageStore()
	registry := enroll.NewRegistry(dataDir, labels)
	detector := &stubDetector{rects: rects}
	state := &trainer.ModelState{}
	sm := newSessionManager()

	handler := NewSocketHandler(
		detector,
		enroll.NewCapturer(registry, images, detector),
		predict.NewService(detector, labels, state),
		labels,
		sm,
	)

	mux := http.NewServeMux()
	mux.Handle("/ws/facedetect", handler.FaceDetect())
	mux.Handle("/ws/harvest", handler.Harvest())
	mux.Handle("/ws/predict", handler.Predict())

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &socketEnv{
		server:   server,
		sm:       sm,
		labels:   labels,
		images:   images,
		registry: registry,
		state:    state,
		dataDir:  dataDir,
	}
}

// dial opens a websocket to the given stream, optionally with cookies.
func (env *socketEnv) dial(t *testing.T, path string, cookies ...*http.Cookie) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + path
	cfg, err := websocket.NewConfig(url, env.server.URL)
	if err != nil {
		t.Fatalf("failed to build websocket config: %v", err)
	}
	for _, c := range cookies {
		cfg.Header.Add("Cookie", c.String())
	}
	ws, err := websocket.DialConfig(cfg)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", path, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// labelCookie mints a signed enrollment cookie the way POST /enrol does.
func (env *socketEnv) labelCookie(t *testing.T, name string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	env.sm.SetLabelCookie(w, name)
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no label cookie set")
	}
	return cookies[0]
}

// expectSilence asserts that nothing arrives on the stream for a short while.
func expectSilence(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
	var msg string
	if err := websocket.Message.Receive(ws, &msg); err == nil {
		t.Errorf("expected silence, got message %q", msg)
	}
}

func faceRegion() []vision.Rect {
	return []vision.Rect{{X: 10, Y: 10, Width: 80, Height: 80}}
}

func TestFaceDetectStream_RepliesWithRectangles(t *testing.T) {
	env := setupSockets(t, faceRegion())
	ws := env.dial(t, "/ws/facedetect")

	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var rects [][]int
	if err := websocket.JSON.Receive(ws, &rects); err != nil {
		t.Fatalf("failed to receive detection reply: %v", err)
	}
	if len(rects) != 1 {
		t.Fatalf("expected 1 rectangle, got %d", len(rects))
	}
	want := []int{10, 10, 80, 80}
	for i, v := range want {
		if rects[0][i] != v {
			t.Errorf("rect[%d] = %d, want %d", i, rects[0][i], v)
		}
	}
}

func TestFaceDetectStream_SilentWithoutFace(t *testing.T) {
	env := setupSockets(t, nil)
	ws := env.dial(t, "/ws/facedetect")

	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
	expectSilence(t, ws)
}

func TestFaceDetectStream_SurvivesUndecodableFrame(t *testing.T) {
	env := setupSockets(t, faceRegion())
	ws := env.dial(t, "/ws/facedetect")

	// A broken frame is absorbed; the next valid one still gets a reply.
	if err := websocket.Message.Send(ws, []byte("not an image")); err != nil {
		t.Fatalf("failed to send garbage: %v", err)
	}
	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var rects [][]int
	if err := websocket.JSON.Receive(ws, &rects); err != nil {
		t.Fatalf("failed to receive detection reply: %v", err)
	}
}

func TestHarvestStream_StoresSilentlyBelowQuota(t *testing.T) {
	env := setupSockets(t, faceRegion())
	if _, err := env.registry.EnsureLabel(context.Background(), "alice"); err != nil {
		t.Fatalf("EnsureLabel failed: %v", err)
	}

	ws := env.dial(t, "/ws/harvest", env.labelCookie(t, "alice"))
	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
	expectSilence(t, ws)

	entries, err := os.ReadDir(filepath.Join(env.dataDir, "alice"))
	if err != nil {
		t.Fatalf("failed to read label dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 stored frame, got %d", len(entries))
	}
}

func TestHarvestStream_AnnouncesDoneAtQuota(t *testing.T) {
	env := setupSockets(t, faceRegion())
	if _, err := env.registry.EnsureLabel(context.Background(), "alice"); err != nil {
		t.Fatalf("EnsureLabel failed: %v", err)
	}
	dir := filepath.Join(env.dataDir, "alice")
	for i := 0; i < enroll.MaxImagesPerLabel; i++ {
		path := filepath.Join(dir, string(rune('0'+i))+".jpg")
		if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
			t.Fatalf("failed to fill dir: %v", err)
		}
	}

	ws := env.dial(t, "/ws/harvest", env.labelCookie(t, "alice"))
	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg string
	if err := websocket.JSON.Receive(ws, &msg); err != nil {
		t.Fatalf("failed to receive quota reply: %v", err)
	}
	if msg != "Done" {
		t.Errorf("expected Done, got %q", msg)
	}
}

func TestHarvestStream_ClosesWithoutCookie(t *testing.T) {
	env := setupSockets(t, faceRegion())
	ws := env.dial(t, "/ws/harvest")

	// The server bails out immediately; the read fails without a deadline.
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg string
	if err := websocket.Message.Receive(ws, &msg); err == nil {
		t.Errorf("expected the stream to close, got message %q", msg)
	}
}

func TestPredictStream_RepliesWithIdentity(t *testing.T) {
	env := setupSockets(t, faceRegion())
	alice, err := env.labels.GetOrCreate(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	env.state.Set(&stubModel{labelID: alice.ID, distance: 42.5})

	ws := env.dial(t, "/ws/predict")
	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg predictionMessage
	if err := websocket.JSON.Receive(ws, &msg); err != nil {
		t.Fatalf("failed to receive prediction: %v", err)
	}
	if msg.Face.Name != "alice" {
		t.Errorf("expected alice, got %q", msg.Face.Name)
	}
	if msg.Face.Distance != 42.5 {
		t.Errorf("expected distance 42.5, got %f", msg.Face.Distance)
	}
	coords := msg.Face.Coords
	if coords.X != "10" || coords.Y != "10" || coords.Width != "80" || coords.Height != "80" {
		t.Errorf("unexpected coords: %+v", coords)
	}
}

func TestPredictStream_SilentWithoutFace(t *testing.T) {
	env := setupSockets(t, nil)
	env.state.Set(&stubModel{labelID: 1})

	ws := env.dial(t, "/ws/predict")
	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
	expectSilence(t, ws)
}

func TestPredictStream_SilentBeforeFirstTrain(t *testing.T) {
	env := setupSockets(t, faceRegion())

	ws := env.dial(t, "/ws/predict")
	if err := websocket.Message.Send(ws, encodeJPEG(t, testImage(120, 120))); err != nil {
		t.Fatalf("failed to send frame: %v", err)
	}
	expectSilence(t, ws)
}
