package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/pkg/errors"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{
			name:   "separable",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "reversed",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "all scores tied",
			yTrue:  []float64{0, 1, 0, 1},
			yScore: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			// ranks 1, 2.5, 2.5, 4; positives sum to 6.5
			name:   "tie across classes counts half",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.4, 0.4, 0.8},
			want:   0.875,
		},
		{
			name:   "scores outside [0, 1]",
			yTrue:  []float64{1, 0, 1, 0},
			yScore: []float64{3, -2, 0, -1},
			want:   1.0,
		},
		{
			name:    "non-binary labels",
			yTrue:   []float64{0, 2, 1},
			yScore:  []float64{0.1, 0.2, 0.3},
			wantErr: true,
		},
		{
			name:    "length mismatch",
			yTrue:   []float64{0, 1},
			yScore:  []float64{0.1, 0.2, 0.3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(vec(tt.yTrue...), vec(tt.yScore...))
			if (err != nil) != tt.wantErr {
				t.Fatalf("AUC() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAUCSingleClassFold(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	got, err := AUC(vec(1, 1, 1), vec(0.2, 0.9, 0.4))
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.5 {
		t.Errorf("AUC() = %v, want 0.5", got)
	}
	if len(warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(warnings))
	}
}

func TestBinaryLogLoss(t *testing.T) {
	maxLoss := -math.Log(1e-15)

	tests := []struct {
		name   string
		yTrue  []float64
		yProb  []float64
		want   float64
		within float64
	}{
		{
			name:   "known value",
			yTrue:  []float64{1, 0},
			yProb:  []float64{0.8, 0.3},
			want:   -(math.Log(0.8) + math.Log(0.7)) / 2,
			within: 1e-12,
		},
		{
			name:   "certain and right is clipped to near zero",
			yTrue:  []float64{1, 0},
			yProb:  []float64{1, 0},
			want:   0,
			within: 1e-12,
		},
		{
			name:   "certain and wrong is clipped to a finite loss",
			yTrue:  []float64{1, 0},
			yProb:  []float64{0, 1},
			want:   maxLoss,
			within: 0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryLogLoss(vec(tt.yTrue...), vec(tt.yProb...))
			if err != nil {
				t.Fatal(err)
			}
			if math.IsInf(got, 0) || math.IsNaN(got) {
				t.Fatalf("loss is not finite: %v", got)
			}
			if math.Abs(got-tt.want) > tt.within {
				t.Errorf("BinaryLogLoss() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := BinaryLogLoss(vec(0, 3), vec(0.1, 0.2)); err == nil {
		t.Error("expected error for non-binary labels")
	}
}

// TestScorersOnFolds checks the label-based scorers on the small held-out
// folds cross-validation produces.
func TestScorersOnFolds(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  map[string]float64
	}{
		{
			// tp=2 fp=1 fn=1 tn=1
			name:  "five-row fold",
			yTrue: []float64{1, 0, 1, 1, 0},
			yPred: []float64{1, 0, 0, 1, 1},
			want: map[string]float64{
				"accuracy":          3.0 / 5,
				"precision":         2.0 / 3,
				"recall":            2.0 / 3,
				"f1":                2.0 / 3,
				"balanced_accuracy": (2.0/3 + 0.5) / 2,
			},
		},
		{
			name:  "model predicts only the negative class",
			yTrue: []float64{1, 0, 0},
			yPred: []float64{0, 0, 0},
			want: map[string]float64{
				"accuracy":          2.0 / 3,
				"precision":         0,
				"recall":            0,
				"f1":                0,
				"balanced_accuracy": 0.5,
			},
		},
		{
			name:  "two-row fold, perfect",
			yTrue: []float64{0, 1},
			yPred: []float64{0, 1},
			want: map[string]float64{
				"accuracy":          1,
				"precision":         1,
				"recall":            1,
				"f1":                1,
				"balanced_accuracy": 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for name, want := range tt.want {
				s, err := GetScorer(name)
				if err != nil {
					t.Fatal(err)
				}
				got, err := s.fn(vec(tt.yTrue...), vec(tt.yPred...))
				if err != nil {
					t.Fatalf("%s: %v", name, err)
				}
				if math.Abs(s.sign*got-want) > 1e-12 {
					t.Errorf("%s = %v, want %v", name, s.sign*got, want)
				}
			}
		})
	}
	// only the all-negative fold leaves precision undefined
	if len(warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(warnings))
	}
}

func TestBalancedAccuracyMulticlass(t *testing.T) {
	got, err := BalancedAccuracy(vec(0, 0, 1, 2), vec(0, 1, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if want := (0.5 + 1 + 1) / 3; math.Abs(got-want) > 1e-12 {
		t.Errorf("BalancedAccuracy() = %v, want %v", got, want)
	}
}

func TestAccuracyErrors(t *testing.T) {
	if _, err := Accuracy(nil, vec(1)); err == nil {
		t.Error("expected error for nil input")
	}
	if _, err := Accuracy(&mat.VecDense{}, &mat.VecDense{}); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Accuracy(vec(1, 0), vec(1)); err == nil {
		t.Error("expected error for length mismatch")
	}
}
