package linear_model

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/metrics"
	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/sklearn/model_selection"
)

// LogisticRegressionCV selects the inverse regularisation strength C from a
// log-spaced grid by stratified cross-validation, then refits a
// LogisticRegression on all rows with the best C.
//
// When the smallest class has fewer members than the requested folds, the
// fold count is reduced to that size; with fewer than two members per class
// the grid search is skipped and C = 1 is used.
type LogisticRegressionCV struct {
	cs          []float64
	cv          int
	scoring     string
	randomState int64
	maxIter     int

	best    *LogisticRegression
	c_      float64
	scores_ [][]float64 // scores_[i] holds the fold scores for cs[i]
}

// LogisticRegressionCVOption is a functional option for LogisticRegressionCV
type LogisticRegressionCVOption func(*LogisticRegressionCV)

// NewLogisticRegressionCV creates a classifier searching 10 values of C
// between 1e-4 and 1e4 with 5-fold CV scored by accuracy.
func NewLogisticRegressionCV(opts ...LogisticRegressionCVOption) *LogisticRegressionCV {
	cv := &LogisticRegressionCV{
		cs:          LogSpace(1e-4, 1e4, 10),
		cv:          5,
		scoring:     "accuracy",
		randomState: -1,
		maxIter:     1000,
	}
	for _, opt := range opts {
		opt(cv)
	}
	return cv
}

// WithCVCs sets an explicit grid of C values
func WithCVCs(cs []float64) LogisticRegressionCVOption {
	return func(cv *LogisticRegressionCV) {
		cv.cs = append([]float64(nil), cs...)
	}
}

// WithCVFolds sets the number of internal folds
func WithCVFolds(k int) LogisticRegressionCVOption {
	return func(cv *LogisticRegressionCV) {
		cv.cv = k
	}
}

// WithCVScoring sets the metric used to pick C
func WithCVScoring(name string) LogisticRegressionCVOption {
	return func(cv *LogisticRegressionCV) {
		cv.scoring = name
	}
}

// WithCVRandomState seeds every fitted LogisticRegression
func WithCVRandomState(seed int64) LogisticRegressionCVOption {
	return func(cv *LogisticRegressionCV) {
		cv.randomState = seed
	}
}

// WithCVMaxIter sets max_iter for every fitted LogisticRegression
func WithCVMaxIter(n int) LogisticRegressionCVOption {
	return func(cv *LogisticRegressionCV) {
		cv.maxIter = n
	}
}

// LogSpace returns n values spaced evenly on a log scale from start to end
// inclusive.
func LogSpace(start, end float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	return floats.LogSpan(make([]float64, n), start, end)
}

func (cv *LogisticRegressionCV) newLR(c float64, warn bool) *LogisticRegression {
	return NewLogisticRegression(
		WithLRC(c),
		WithLRRandomState(cv.randomState),
		WithLRMaxIter(cv.maxIter),
		WithLRConvergenceWarnings(warn),
	)
}

// Fit runs the grid search and refits on all rows.
func (cv *LogisticRegressionCV) Fit(X, y mat.Matrix) error {
	if len(cv.cs) == 0 {
		return errors.NewInvalidConfigurationError("Cs", "grid must not be empty", cv.cs)
	}
	scorer, err := metrics.GetScorer(cv.scoring)
	if err != nil {
		return err
	}

	folds := cv.cv
	if m := minClassCount(y); m < folds {
		folds = m
	}

	cv.scores_ = nil
	cv.c_ = 1.0
	if folds >= 2 {
		splitter := model_selection.NewStratifiedKFold(folds, false, 0)
		cv.scores_ = make([][]float64, len(cv.cs))
		means := make([]float64, len(cv.cs))
		for i, c := range cv.cs {
			c := c
			factory := func() model.Classifier { return cv.newLR(c, false) }
			scores, err := model_selection.CrossValScore(context.Background(), factory, X, y, splitter, scorer, 1)
			if err != nil {
				return errors.Wrapf(err, "LogisticRegressionCV: C=%g", c)
			}
			cv.scores_[i] = scores
			means[i] = model_selection.MeanScore(scores)
		}
		// floats.MaxIdx returns the first maximum, so ties keep the smaller C.
		cv.c_ = cv.cs[floats.MaxIdx(means)]
	}

	cv.best = cv.newLR(cv.c_, true)
	return cv.best.Fit(X, y)
}

func minClassCount(y mat.Matrix) int {
	rows, _ := y.Dims()
	counts := make(map[float64]int)
	for i := 0; i < rows; i++ {
		counts[y.At(i, 0)]++
	}
	m := rows
	for _, c := range counts {
		if c < m {
			m = c
		}
	}
	return m
}

// Predict implements model.Predictor.
func (cv *LogisticRegressionCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if cv.best == nil {
		return nil, errors.NewNotFittedError("LogisticRegressionCV", "Predict")
	}
	return cv.best.Predict(X)
}

// PredictProba implements model.Classifier.
func (cv *LogisticRegressionCV) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if cv.best == nil {
		return nil, errors.NewNotFittedError("LogisticRegressionCV", "PredictProba")
	}
	return cv.best.PredictProba(X)
}

// Classes implements model.Classifier.
func (cv *LogisticRegressionCV) Classes() []int {
	if cv.best == nil {
		return nil
	}
	return cv.best.Classes()
}

// C returns the selected inverse regularisation strength.
func (cv *LogisticRegressionCV) C() float64 {
	return cv.c_
}

// Cs returns the searched grid.
func (cv *LogisticRegressionCV) Cs() []float64 {
	return append([]float64(nil), cv.cs...)
}

// Scores returns the internal fold scores per grid value, nil when the grid
// search was skipped.
func (cv *LogisticRegressionCV) Scores() [][]float64 {
	return cv.scores_
}

// GetParams returns the model hyperparameters
func (cv *LogisticRegressionCV) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"Cs":           cv.Cs(),
		"cv":           cv.cv,
		"scoring":      cv.scoring,
		"random_state": cv.randomState,
		"max_iter":     cv.maxIter,
	}
}
