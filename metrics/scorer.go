package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// ScoreFunc compares true labels with predictions or positive-class
// probabilities.
type ScoreFunc func(yTrue, yPred *mat.VecDense) (float64, error)

// Scorer evaluates a fitted classifier on held-out data. Scores are always
// oriented so that greater is better; loss metrics are negated.
type Scorer struct {
	Name string
	// NeedsProba selects PredictProba (positive-class column) over Predict.
	NeedsProba bool
	sign       float64
	fn         ScoreFunc
}

var scorers = map[string]Scorer{
	"roc_auc":           {Name: "roc_auc", NeedsProba: true, sign: 1, fn: AUC},
	"accuracy":          {Name: "accuracy", sign: 1, fn: Accuracy},
	"balanced_accuracy": {Name: "balanced_accuracy", sign: 1, fn: BalancedAccuracy},
	"f1":                {Name: "f1", sign: 1, fn: F1},
	"precision":         {Name: "precision", sign: 1, fn: Precision},
	"recall":            {Name: "recall", sign: 1, fn: Recall},
	"neg_log_loss":      {Name: "neg_log_loss", NeedsProba: true, sign: -1, fn: BinaryLogLoss},
}

// GetScorer looks up a scorer by name.
func GetScorer(name string) (Scorer, error) {
	s, ok := scorers[name]
	if !ok {
		return Scorer{}, errors.NewInvalidConfigurationError("scoring", "unknown scorer; valid: "+joinNames(), name)
	}
	return s, nil
}

// ScorerNames returns the registered scorer names in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for name := range scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinNames() string {
	out := ""
	for i, n := range ScorerNames() {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// Score runs clf on X and scores the output against y (n×1).
func (s Scorer) Score(clf model.Classifier, X, y mat.Matrix) (float64, error) {
	if s.fn == nil {
		return 0, errors.NewValueError("Scorer.Score", "zero Scorer; use GetScorer")
	}
	yTrue, err := ColumnVector(y)
	if err != nil {
		return 0, err
	}

	var yPred *mat.VecDense
	if s.NeedsProba {
		proba, err := clf.PredictProba(X)
		if err != nil {
			return 0, err
		}
		yPred = positiveColumn(proba, clf.Classes())
	} else {
		pred, err := clf.Predict(X)
		if err != nil {
			return 0, err
		}
		if yPred, err = ColumnVector(pred); err != nil {
			return 0, err
		}
	}

	v, err := s.fn(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrapf(err, "scorer %s", s.Name)
	}
	return s.sign * v, nil
}

// positiveColumn extracts P(class == 1). A model that never saw class 1
// assigns it zero probability.
func positiveColumn(proba mat.Matrix, classes []int) *mat.VecDense {
	r, _ := proba.Dims()
	out := mat.NewVecDense(r, nil)
	col := -1
	for j, c := range classes {
		if c == 1 {
			col = j
		}
	}
	if col < 0 {
		return out
	}
	for i := 0; i < r; i++ {
		out.SetVec(i, proba.At(i, col))
	}
	return out
}

// ColumnVector copies the first column of m into a vector.
func ColumnVector(m mat.Matrix) (*mat.VecDense, error) {
	if v, ok := m.(*mat.VecDense); ok && v != nil {
		return v, nil
	}
	return firstColumn("ColumnVector", m)
}
