package model_selection

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/core/parallel"
	"github.com/YuminosukeSato/featsel/metrics"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// CrossValScore fits a fresh classifier from factory on every training fold
// and scores it on the matching test fold. Folds run concurrently with at
// most nJobs workers (GOMAXPROCS when nJobs <= 0); scores are returned in
// fold order and the first error cancels the remaining folds.
func CrossValScore(ctx context.Context, factory model.ClassifierFactory, X, y mat.Matrix,
	splitter Splitter, scorer metrics.Scorer, nJobs int) ([]float64, error) {

	folds, err := splitter.Split(X, y)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	err = parallel.ForEach(ctx, len(folds), nJobs, func(_ context.Context, i int) (err error) {
		defer errors.Recover(&err, "CrossValScore")

		fold := folds[i]
		XTrain, yTrain := TakeRows(X, fold.TrainIndices), TakeRows(y, fold.TrainIndices)
		XTest, yTest := TakeRows(X, fold.TestIndices), TakeRows(y, fold.TestIndices)

		clf := factory()
		if err := clf.Fit(XTrain, yTrain); err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		score, err := scorer.Score(clf, XTest, yTest)
		if err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		scores[i] = score
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// MeanScore returns the arithmetic mean of scores, or 0 for none.
func MeanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return floats.Sum(scores) / float64(len(scores))
}
