// Package model provides the estimator interfaces shared by the linear
// models, the preprocessing transformers and the feature-selection searches.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Classifier is a fitted-then-predict model over integer class labels.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns one column of probabilities per class, in the
	// order of Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted class labels seen during fitting.
	Classes() []int
}

// ClassifierFactory builds an unfitted classifier. Cross-validation calls it
// once per fold so no state leaks between folds.
type ClassifierFactory func() Classifier

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
