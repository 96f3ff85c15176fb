package vision

import (
	"encoding/gob"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoSamples is returned when a model fit is attempted over an empty corpus.
var ErrNoSamples = errors.New("no training samples")

// EigenRecognizer fits eigenface models: samples are projected into a PCA
// subspace and inference is a nearest-neighbor search over the projected
// training corpus, with Euclidean distance in coefficient space.
type EigenRecognizer struct {
	// MaxComponents caps the number of principal components kept.
	MaxComponents int
}

// NewEigenRecognizer creates a recognizer with the default component cap.
func NewEigenRecognizer() *EigenRecognizer {
	return &EigenRecognizer{MaxComponents: 50}
}

// eigenPayload is the gob-serialized model artifact. The artifact is opaque
// and versionless: each retrain fully overwrites the previous one.
type eigenPayload struct {
	Mean     []float64
	Basis    [][]float64 // principal components, each of length len(Mean)
	Coeffs   [][]float64 // per-sample projections (raw centered vectors when Basis is empty)
	LabelIDs []int64
}

// EigenModel is a trained eigenface model.
type EigenModel struct {
	payload eigenPayload
}

// Fit trains a model over the sample corpus. Every sample must be a
// SampleSize x SampleSize grayscale image. An empty corpus is an error.
func (r *EigenRecognizer) Fit(samples []Sample) (Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	dim := SampleSize * SampleSize
	n := len(samples)

	vecs := make([][]float64, n)
	labelIDs := make([]int64, n)
	for i, s := range samples {
		v, err := imageVector(s.Image)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		vecs[i] = v
		labelIDs[i] = s.LabelID
	}

	mean := make([]float64, dim)
	for _, v := range vecs {
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	centered := make([][]float64, n)
	for i, v := range vecs {
		c := make([]float64, dim)
		for j, x := range v {
			c[j] = x - mean[j]
		}
		centered[i] = c
	}

	basis := r.principalComponents(centered)

	coeffs := make([][]float64, n)
	for i, c := range centered {
		coeffs[i] = project(basis, c)
	}

	return &EigenModel{payload: eigenPayload{
		Mean:     mean,
		Basis:    basis,
		Coeffs:   coeffs,
		LabelIDs: labelIDs,
	}}, nil
}

// Load reads a persisted model artifact.
func (r *EigenRecognizer) Load(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer f.Close()

	var payload eigenPayload
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if len(payload.LabelIDs) == 0 || len(payload.Coeffs) != len(payload.LabelIDs) {
		return nil, errors.New("model artifact is empty or inconsistent")
	}

	return &EigenModel{payload: payload}, nil
}

// Infer projects the face into the model's subspace and returns the label of
// the nearest training sample together with the distance to it.
func (m *EigenModel) Infer(face *image.Gray) (int64, float64) {
	v, err := imageVector(face)
	if err != nil {
		// Wrong geometry cannot match anything meaningfully.
		return m.payload.LabelIDs[0], math.MaxFloat64
	}

	c := make([]float64, len(v))
	for j, x := range v {
		c[j] = x - m.payload.Mean[j]
	}
	coords := project(m.payload.Basis, c)

	bestIdx := 0
	bestDist := math.MaxFloat64
	for i, sample := range m.payload.Coeffs {
		d := sqDistance(coords, sample)
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}

	return m.payload.LabelIDs[bestIdx], math.Sqrt(bestDist)
}

// Save writes the model artifact, replacing any previous one atomically.
func (m *EigenModel) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(&m.payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace model artifact: %w", err)
	}
	return nil
}

// principalComponents derives the PCA basis from centered sample vectors via
// the Gram matrix trick (the corpus is far smaller than the pixel dimension).
// Returns nil when no component carries signal, in which case projections
// fall back to the raw centered vectors.
func (r *EigenRecognizer) principalComponents(centered [][]float64) [][]float64 {
	n := len(centered)
	if n < 2 {
		return nil
	}

	gram := make([][]float64, n)
	for i := range gram {
		gram[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			d := dot(centered[i], centered[j])
			gram[i][j] = d
			gram[j][i] = d
		}
	}

	vals, vecs := jacobiEigen(gram)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return vals[order[a]] > vals[order[b]]
	})

	maxK := r.MaxComponents
	if maxK <= 0 || maxK > n-1 {
		maxK = n - 1
	}

	var basis [][]float64
	for _, idx := range order {
		if len(basis) >= maxK || vals[idx] <= 1e-9 {
			break
		}
		// Lift the Gram-space eigenvector into pixel space and normalize.
		u := make([]float64, len(centered[0]))
		for i, c := range centered {
			w := vecs[i][idx]
			for j, x := range c {
				u[j] += w * x
			}
		}
		norm := math.Sqrt(dot(u, u))
		if norm <= 1e-12 {
			continue
		}
		for j := range u {
			u[j] /= norm
		}
		basis = append(basis, u)
	}

	return basis
}

// project maps a centered vector onto the basis, or returns the vector
// itself when no basis exists.
func project(basis [][]float64, centered []float64) []float64 {
	if len(basis) == 0 {
		out := make([]float64, len(centered))
		copy(out, centered)
		return out
	}
	coords := make([]float64, len(basis))
	for k, u := range basis {
		coords[k] = dot(u, centered)
	}
	return coords
}

// jacobiEigen computes eigenvalues and eigenvectors of a symmetric matrix
// with the cyclic Jacobi method. Column k of the returned matrix is the
// eigenvector for eigenvalue k.
func jacobiEigen(a [][]float64) ([]float64, [][]float64) {
	n := len(a)

	m := make([][]float64, n)
	v := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		copy(m[i], a[i])
		v[i] = make([]float64, n)
		v[i][i] = 1
	}

	for sweep := 0; sweep < 100; sweep++ {
		off := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += m[i][j] * m[i][j]
			}
		}
		if off < 1e-12 {
			break
		}

		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(m[p][q]) < 1e-15 {
					continue
				}
				theta := (m[q][q] - m[p][p]) / (2 * m[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				for i := 0; i < n; i++ {
					mip, miq := m[i][p], m[i][q]
					m[i][p] = c*mip - s*miq
					m[i][q] = s*mip + c*miq
				}
				for i := 0; i < n; i++ {
					mpi, mqi := m[p][i], m[q][i]
					m[p][i] = c*mpi - s*mqi
					m[q][i] = s*mpi + c*mqi
				}
				for i := 0; i < n; i++ {
					vip, viq := v[i][p], v[i][q]
					v[i][p] = c*vip - s*viq
					v[i][q] = s*vip + c*viq
				}
			}
		}
	}

	vals := make([]float64, n)
	for i := range vals {
		vals[i] = m[i][i]
	}
	return vals, v
}

// imageVector flattens a SampleSize x SampleSize grayscale image row-major.
func imageVector(g *image.Gray) ([]float64, error) {
	bounds := g.Bounds()
	if bounds.Dx() != SampleSize || bounds.Dy() != SampleSize {
		return nil, fmt.Errorf("expected %dx%d sample, got %dx%d",
			SampleSize, SampleSize, bounds.Dx(), bounds.Dy())
	}
	v := make([]float64, SampleSize*SampleSize)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v[i] = float64(g.GrayAt(x, y).Y)
			i++
		}
	}
	return v, nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sqDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
