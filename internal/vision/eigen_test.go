package vision

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

// patternFace builds a deterministic SampleSize x SampleSize grayscale image
// whose content is controlled by the seed, so different seeds are far apart
// in pixel space.
func patternFace(seed uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, SampleSize, SampleSize))
	for y := 0; y < SampleSize; y++ {
		for x := 0; x < SampleSize; x++ {
			g.SetGray(x, y, color.Gray{Y: uint8(int(seed)*37 + x*3 + y*5)})
		}
	}
	return g
}

func corpus() []Sample {
	return []Sample{
		{Image: patternFace(0), LabelID: 1},
		{Image: patternFace(1), LabelID: 1},
		{Image: patternFace(5), LabelID: 2},
		{Image: patternFace(6), LabelID: 2},
	}
}

func TestFit_EmptyCorpus(t *testing.T) {
	_, err := NewEigenRecognizer().Fit(nil)
	if !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
}

func TestFit_WrongSampleGeometry(t *testing.T) {
	bad := []Sample{{Image: image.NewGray(image.Rect(0, 0, 10, 10)), LabelID: 1}}
	if _, err := NewEigenRecognizer().Fit(bad); err == nil {
		t.Error("expected error for mis-sized sample")
	}
}

func TestInfer_RecallsTrainingSamples(t *testing.T) {
	model, err := NewEigenRecognizer().Fit(corpus())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	labelID, distance := model.Infer(patternFace(0))
	if labelID != 1 {
		t.Errorf("expected label 1 for its own training image, got %d", labelID)
	}
	if distance < 0 {
		t.Errorf("expected non-negative distance, got %f", distance)
	}

	labelID, _ = model.Infer(patternFace(6))
	if labelID != 2 {
		t.Errorf("expected label 2 for its own training image, got %d", labelID)
	}
}

func TestInfer_LowerDistanceForCloserMatch(t *testing.T) {
	model, err := NewEigenRecognizer().Fit(corpus())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	_, exact := model.Infer(patternFace(1))
	_, far := model.Infer(patternFace(40))
	if exact >= far {
		t.Errorf("expected training image distance (%f) below stranger distance (%f)", exact, far)
	}
}

func TestFit_SingleSample(t *testing.T) {
	// One sample leaves no principal component; the model must still fit and
	// recall that sample.
	model, err := NewEigenRecognizer().Fit([]Sample{{Image: patternFace(3), LabelID: 7}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	labelID, distance := model.Infer(patternFace(3))
	if labelID != 7 {
		t.Errorf("expected label 7, got %d", labelID)
	}
	if distance > 1e-6 {
		t.Errorf("expected near-zero distance for the only sample, got %f", distance)
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	rec := NewEigenRecognizer()
	model, err := rec.Fit(corpus())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.mdl")
	if err := model.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := rec.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantID, wantDist := model.Infer(patternFace(5))
	gotID, gotDist := loaded.Infer(patternFace(5))
	if gotID != wantID {
		t.Errorf("expected label %d after reload, got %d", wantID, gotID)
	}
	if diff := gotDist - wantDist; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected identical distance after reload, got %f vs %f", gotDist, wantDist)
	}
}

func TestSave_OverwritesPriorArtifact(t *testing.T) {
	rec := NewEigenRecognizer()
	path := filepath.Join(t.TempDir(), "model.mdl")

	first, err := rec.Fit([]Sample{{Image: patternFace(1), LabelID: 1}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := first.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second, err := rec.Fit([]Sample{{Image: patternFace(2), LabelID: 2}})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := second.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := rec.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	labelID, _ := loaded.Infer(patternFace(2))
	if labelID != 2 {
		t.Errorf("expected artifact to hold the second model, got label %d", labelID)
	}
}

func TestLoad_MissingArtifact(t *testing.T) {
	_, err := NewEigenRecognizer().Load(filepath.Join(t.TempDir(), "absent.mdl"))
	if err == nil {
		t.Error("expected error for missing artifact")
	}
}
