package vision

import (
	"fmt"
	"image"
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"

	"github.com/hemedy99/facegate/internal/config"
)

// PigoDetector detects faces with a pigo binary cascade classifier.
type PigoDetector struct {
	classifier *pigo.Pigo
	cfg        config.VisionConfig
}

// NewPigoDetector loads the cascade file named by the vision config and
// unpacks it into a classifier.
func NewPigoDetector(cfg config.VisionConfig) (*PigoDetector, error) {
	cascade, err := os.ReadFile(cfg.Cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file %s: %w", cfg.Cascade, err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	return &PigoDetector{classifier: classifier, cfg: cfg}, nil
}

// Detect runs the cascade over the frame and returns the clustered face
// regions, largest first. An empty result means no face.
func (d *PigoDetector) Detect(img image.Image) []Rect {
	gray := ToGray(img)
	bounds := gray.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	if rows == 0 || cols == 0 {
		return nil
	}

	maxSize := d.cfg.MaxFaceSize
	if m := min(rows, cols); maxSize > m {
		maxSize = m
	}
	if maxSize < d.cfg.MinFaceSize {
		return nil
	}

	params := pigo.CascadeParams{
		MinSize:     d.cfg.MinFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: d.cfg.ShiftFactor,
		ScaleFactor: d.cfg.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: grayPixels(gray),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.cfg.IoUThreshold)

	var rects []Rect
	for _, det := range dets {
		if float64(det.Q) < d.cfg.QualityThreshold {
			continue
		}
		rects = append(rects, Rect{
			X:      bounds.Min.X + det.Col - det.Scale/2,
			Y:      bounds.Min.Y + det.Row - det.Scale/2,
			Width:  det.Scale,
			Height: det.Scale,
		})
	}

	// Largest region first: downstream consumers take the first rect.
	sort.Slice(rects, func(i, j int) bool {
		return rects[i].Width > rects[j].Width
	})

	return rects
}

// grayPixels returns the image's pixels as a contiguous row-major slice.
func grayPixels(g *image.Gray) []uint8 {
	bounds := g.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	if g.Stride == cols && len(g.Pix) == rows*cols {
		return g.Pix
	}
	pixels := make([]uint8, rows*cols)
	for y := 0; y < rows; y++ {
		copy(pixels[y*cols:(y+1)*cols], g.Pix[y*g.Stride:y*g.Stride+cols])
	}
	return pixels
}
