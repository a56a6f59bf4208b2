package metrics

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/pkg/errors"
)

func vec(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestConfusionMetrics(t *testing.T) {
	yTrue := vec(1, 1, 1, 0, 0, 0, 0, 1)
	yPred := vec(1, 1, 0, 0, 1, 0, 0, 0)
	// tp=2 fp=1 fn=2 tn=3

	tests := []struct {
		name string
		fn   ScoreFunc
		want float64
	}{
		{"precision", Precision, 2.0 / 3},
		{"recall", Recall, 0.5},
		{"f1", F1, 4.0 / 7},
		{"balanced accuracy", BalancedAccuracy, (0.5 + 0.75) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUndefinedMetricsWarn(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	yTrue := vec(0, 0, 0)
	yPred := vec(0, 0, 0)
	for _, fn := range []ScoreFunc{Precision, Recall, F1} {
		got, err := fn(yTrue, yPred)
		if err != nil || got != 0 {
			t.Errorf("got (%v, %v), want (0, nil)", got, err)
		}
	}
	if len(warnings) != 3 {
		t.Fatalf("got %d warnings, want 3", len(warnings))
	}
	var undefined *errors.UndefinedMetricWarning
	if !errors.As(warnings[0], &undefined) {
		t.Errorf("warning %T is not UndefinedMetricWarning", warnings[0])
	}
}

// stubClassifier predicts class 1 when the first feature exceeds 0.5 and
// reports the feature itself as P(class 1).
type stubClassifier struct {
	classes []int
}

func (s *stubClassifier) Fit(X, y mat.Matrix) error { return nil }

func (s *stubClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if X.At(i, 0) > 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

func (s *stubClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, len(s.classes), nil)
	for i := 0; i < r; i++ {
		p := X.At(i, 0)
		if len(s.classes) == 1 {
			out.Set(i, 0, 1)
			continue
		}
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

func (s *stubClassifier) Classes() []int { return s.classes }

func TestScorer(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0.1, 0.6, 0.4, 0.9})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
	clf := &stubClassifier{classes: []int{0, 1}}

	tests := []struct {
		name string
		want float64
	}{
		{"roc_auc", 0.75},
		{"accuracy", 0.5},
		{"balanced_accuracy", 0.5},
		{"precision", 0.5},
		{"recall", 0.5},
		{"f1", 0.5},
		{"neg_log_loss", (math.Log(0.9) + math.Log(0.4) + math.Log(0.4) + math.Log(0.9)) / 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := GetScorer(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			got, err := s.Score(clf, X, y)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if n := len(ScorerNames()); n != len(tests) {
		t.Errorf("ScorerNames() has %d entries, want %d", n, len(tests))
	}
}

func TestScorerErrors(t *testing.T) {
	_, err := GetScorer("r2")
	var cfg *errors.InvalidConfigurationError
	if !errors.As(err, &cfg) || cfg.Param != "scoring" {
		t.Errorf("GetScorer(r2) = %v, want InvalidConfigurationError(scoring)", err)
	}

	if _, err := (Scorer{}).Score(&stubClassifier{}, mat.NewDense(1, 1, nil), mat.NewDense(1, 1, nil)); err == nil {
		t.Error("zero Scorer should fail")
	}
}

func TestPositiveColumn(t *testing.T) {
	proba := mat.NewDense(2, 1, []float64{1, 1})
	got := positiveColumn(proba, []int{0})
	if !reflect.DeepEqual(got.RawVector().Data, []float64{0, 0}) {
		t.Errorf("model without class 1 should give zero probability, got %v", got.RawVector().Data)
	}

	proba = mat.NewDense(2, 3, []float64{0.2, 0.3, 0.5, 0.1, 0.6, 0.3})
	got = positiveColumn(proba, []int{0, 1, 2})
	if !reflect.DeepEqual(got.RawVector().Data, []float64{0.3, 0.6}) {
		t.Errorf("got %v", got.RawVector().Data)
	}
}
