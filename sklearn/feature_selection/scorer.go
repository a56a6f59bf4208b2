package feature_selection

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/dataset"
	"github.com/YuminosukeSato/featsel/metrics"
	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/preprocessing"
	"github.com/YuminosukeSato/featsel/sklearn/linear_model"
	"github.com/YuminosukeSato/featsel/sklearn/model_selection"
	"github.com/YuminosukeSato/featsel/sklearn/pipeline"
)

// ModelSeed seeds the logistic regressions built by the subset scorers.
const ModelSeed = 123

// SubsetScore is the cross-validated evaluation of one feature subset.
type SubsetScore struct {
	Features []string
	CVScores []float64
	AvgScore float64
}

// SubsetScorer evaluates a feature subset. Implementations must be safe for
// sequential reuse; the searches never call Score concurrently.
type SubsetScorer interface {
	Score(ctx context.Context, features []string) (SubsetScore, error)
}

// CVSubsetScorer scores subsets by cross-validating a fresh classifier on the
// selected columns of Table.
type CVSubsetScorer struct {
	Table    *dataset.Table
	Labels   []float64
	Factory  model.ClassifierFactory
	Splitter model_selection.Splitter
	Scorer   metrics.Scorer
	// NJobs bounds concurrent folds (<= 0 means GOMAXPROCS).
	NJobs int
}

// NewCVSubsetScorer validates the inputs and returns a scorer using
// stratified folds.
func NewCVSubsetScorer(table *dataset.Table, labels []float64, factory model.ClassifierFactory,
	folds int, scoring string) (*CVSubsetScorer, error) {

	if table.Rows() != len(labels) {
		return nil, errors.NewDimensionError("NewCVSubsetScorer", table.Rows(), len(labels), 0)
	}
	if folds < 2 {
		return nil, errors.NewInvalidConfigurationError("cross_validation_folds", "must be at least 2", folds)
	}
	if table.Rows() < folds {
		return nil, errors.NewInvalidConfigurationError("cross_validation_folds", "exceeds the number of training rows", folds)
	}
	scorer, err := metrics.GetScorer(scoring)
	if err != nil {
		return nil, err
	}
	return &CVSubsetScorer{
		Table:    table,
		Labels:   labels,
		Factory:  factory,
		Splitter: model_selection.NewStratifiedKFold(folds, false, 0),
		Scorer:   scorer,
	}, nil
}

// Score cross-validates the classifier on features.
func (s *CVSubsetScorer) Score(ctx context.Context, features []string) (SubsetScore, error) {
	if len(features) == 0 {
		return SubsetScore{}, errors.NewValueError("CVSubsetScorer.Score", "empty feature subset")
	}
	X, err := s.Table.Matrix(features)
	if err != nil {
		return SubsetScore{}, err
	}
	y := mat.NewVecDense(len(s.Labels), append([]float64(nil), s.Labels...))

	scores, err := model_selection.CrossValScore(ctx, s.Factory, X, y, s.Splitter, s.Scorer, s.NJobs)
	if err != nil {
		return SubsetScore{}, errors.Wrapf(err, "scoring subset %v", features)
	}
	return SubsetScore{
		Features: append([]string(nil), features...),
		CVScores: scores,
		AvgScore: model_selection.MeanScore(scores),
	}, nil
}

// Fit fits a fresh classifier on features over the whole table, for
// evaluation outside cross-validation.
func (s *CVSubsetScorer) Fit(features []string) (model.Classifier, error) {
	X, err := s.Table.Matrix(features)
	if err != nil {
		return nil, err
	}
	clf := s.Factory()
	if err := clf.Fit(X, mat.NewVecDense(len(s.Labels), append([]float64(nil), s.Labels...))); err != nil {
		return nil, err
	}
	return clf, nil
}

// StandardizedLogisticFactory builds StandardScaler -> LogisticRegression
// pipelines, the greedy search model.
func StandardizedLogisticFactory() model.ClassifierFactory {
	return pipeline.Factory(
		func() model.Transformer { return preprocessing.NewStandardScalerDefault() },
		func() model.Classifier {
			return linear_model.NewLogisticRegression(linear_model.WithLRRandomState(ModelSeed))
		},
	)
}

// StandardizedLogisticCVFactory builds StandardScaler -> LogisticRegressionCV
// pipelines whose inner grid search uses folds folds, the exhaustive search
// model.
func StandardizedLogisticCVFactory(folds int) model.ClassifierFactory {
	return pipeline.Factory(
		func() model.Transformer { return preprocessing.NewStandardScalerDefault() },
		func() model.Classifier {
			return linear_model.NewLogisticRegressionCV(
				linear_model.WithCVFolds(folds),
				linear_model.WithCVRandomState(ModelSeed),
			)
		},
	)
}
