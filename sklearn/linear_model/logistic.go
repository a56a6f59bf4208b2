package linear_model

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/metrics"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// LogisticRegression implements L2-regularised logistic regression fitted by
// full-batch gradient descent. Binary problems fit a single weight vector;
// multiclass problems fit one-vs-rest and normalise with softmax.
//
// The objective matches scikit-learn's: C * Σ logloss + ½‖w‖².
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	C            float64 // Inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	randomState  int64
	warnOnFail   bool // emit ConvergenceWarning when maxIter is reached

	// Model parameters
	coef_      [][]float64 // one row per binary sub-problem
	intercept_ []float64
	classes_   []int
	nIter_     []int

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
		randomState:  -1,
		warnOnFail:   true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none")
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance on the largest gradient component
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed used for weight initialisation
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRConvergenceWarnings toggles the ConvergenceWarning raised when the
// solver stops at max_iter
func WithLRConvergenceWarnings(enabled bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.warnOnFail = enabled
	}
}

func (lr *LogisticRegression) validate() error {
	if lr.C <= 0 || math.IsNaN(lr.C) {
		return errors.NewInvalidConfigurationError("C", "must be positive", lr.C)
	}
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewInvalidConfigurationError("penalty", "must be 'l2' or 'none'", lr.penalty)
	}
	if lr.maxIter < 1 {
		return errors.NewInvalidConfigurationError("max_iter", "must be at least 1", lr.maxIter)
	}
	return nil
}

// Fit trains the logistic regression model. y is an n×1 column of class labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LogisticRegression.Fit")
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	lr.classes_ = uniqueClasses(y)
	if len(lr.classes_) < 2 {
		return errors.Wrapf(errors.ErrSingleClass, "LogisticRegression.Fit: got class %v", lr.classes_)
	}

	Xd := mat.DenseCopyOf(X)
	nModels := len(lr.classes_)
	if nModels == 2 {
		nModels = 1
	}
	lr.coef_ = make([][]float64, nModels)
	lr.intercept_ = make([]float64, nModels)
	lr.nIter_ = make([]int, nModels)

	for k := 0; k < nModels; k++ {
		positive := lr.classes_[k]
		if nModels == 1 {
			positive = lr.classes_[1]
		}
		target := mat.NewVecDense(nSamples, nil)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == positive {
				target.SetVec(i, 1)
			}
		}
		if err := lr.gradientDescent(Xd, target, k); err != nil {
			return errors.NewModelError("LogisticRegression.Fit", "optimisation failed", err)
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

func uniqueClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

// gradientDescent fits sub-problem k against a 0/1 target. Weights and
// intercept take separate fixed steps 1/(2L) from the block Lipschitz
// bounds L_w = ¼‖X‖²_F/n + λ and L_b = ¼; the factor 2 covers the
// off-diagonal block so every step decreases the objective.
func (lr *LogisticRegression) gradientDescent(X *mat.Dense, target *mat.VecDense, k int) error {
	nSamples, nFeatures := X.Dims()
	n := float64(nSamples)

	w := mat.NewVecDense(nFeatures, nil)
	for j := 0; j < nFeatures; j++ {
		w.SetVec(j, lr.rand.NormFloat64()*0.01)
	}
	b := 0.0

	var lambda float64
	if lr.penalty == "l2" {
		lambda = 1.0 / (lr.C * n)
	}
	frob := mat.Norm(X, 2)
	lw := 0.25*frob*frob/n + lambda
	if lw == 0 {
		lw = 1
	}
	stepW, stepB := 1/(2*lw), 2.0

	z := mat.NewVecDense(nSamples, nil)
	residual := mat.NewVecDense(nSamples, nil)
	grad := mat.NewVecDense(nFeatures, nil)

	converged := false
	iter := 0
	for ; iter < lr.maxIter; iter++ {
		z.MulVec(X, w)
		var gradB float64
		for i := 0; i < nSamples; i++ {
			r := sigmoid(z.AtVec(i)+b) - target.AtVec(i)
			residual.SetVec(i, r)
			gradB += r
		}
		gradB /= n

		grad.MulVec(X.T(), residual)
		grad.ScaleVec(1/n, grad)
		if lambda > 0 {
			grad.AddScaledVec(grad, lambda, w)
		}

		w.AddScaledVec(w, -stepW, grad)
		if lr.fitIntercept {
			b -= stepB * gradB
		}

		maxGrad := math.Abs(gradB)
		if !lr.fitIntercept {
			maxGrad = 0
		}
		for j := 0; j < nFeatures; j++ {
			maxGrad = math.Max(maxGrad, math.Abs(grad.AtVec(j)))
		}
		if err := errors.CheckScalar("LogisticRegression.gradient", maxGrad, iter); err != nil {
			return err
		}
		if maxGrad < lr.tol {
			converged = true
			iter++
			break
		}
	}

	if !converged && lr.warnOnFail {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			"gradient norm above tolerance; increase max_iter or scale the data"))
	}

	lr.coef_[k] = mat.Col(nil, 0, w)
	lr.intercept_[k] = b
	lr.nIter_[k] = iter
	return nil
}

func (lr *LogisticRegression) checkInput(op string, X mat.Matrix) error {
	if err := lr.state.RequireFitted("LogisticRegression", op); err != nil {
		return err
	}
	nFeatures, _ := lr.state.GetDimensions()
	if _, c := X.Dims(); c != nFeatures {
		return errors.NewDimensionError("LogisticRegression."+op, nFeatures, c, 1)
	}
	return nil
}

func (lr *LogisticRegression) decision(X mat.Matrix, i, k int) float64 {
	z := lr.intercept_[k]
	for j, c := range lr.coef_[k] {
		z += X.At(i, j) * c
	}
	return z
}

// Predict returns the most probable class label for each row as n×1.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, nClasses := proba.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < nClasses; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates, one column per class in the
// order of Classes().
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkInput("PredictProba", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	nClasses := len(lr.classes_)
	probas := mat.NewDense(nSamples, nClasses, nil)

	if nClasses == 2 {
		for i := 0; i < nSamples; i++ {
			p := sigmoid(lr.decision(X, i, 0))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
		}
		return probas, nil
	}

	scores := make([]float64, nClasses)
	for i := 0; i < nSamples; i++ {
		maxScore := math.Inf(-1)
		for k := range scores {
			scores[k] = lr.decision(X, i, k)
			maxScore = math.Max(maxScore, scores[k])
		}
		sum := 0.0
		for k := range scores {
			scores[k] = errors.StabilizeExp(scores[k] - maxScore)
			sum += scores[k]
		}
		for k := range scores {
			probas.Set(i, k, scores[k]/sum)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnVector(y)
	if err != nil {
		return 0, err
	}
	yPred, err := metrics.ColumnVector(pred)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(yTrue, yPred)
}

// Classes returns the sorted class labels seen during fitting.
func (lr *LogisticRegression) Classes() []int {
	return lr.classes_
}

// Coef returns a copy of the fitted coefficients.
func (lr *LogisticRegression) Coef() [][]float64 {
	out := make([][]float64, len(lr.coef_))
	for i, row := range lr.coef_ {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Intercept returns a copy of the fitted intercepts.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept_...)
}

// NIter returns the number of iterations run for each sub-problem.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"random_state":  lr.randomState,
	}
}

// SetParams sets the model hyperparameters. A fitted model is reset.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		ok := true
		switch key {
		case "penalty":
			var v string
			if v, ok = value.(string); ok {
				lr.penalty = v
			}
		case "C":
			var v float64
			if v, ok = value.(float64); ok {
				lr.C = v
			}
		case "fit_intercept":
			var v bool
			if v, ok = value.(bool); ok {
				lr.fitIntercept = v
			}
		case "max_iter":
			var v int
			if v, ok = value.(int); ok {
				lr.maxIter = v
			}
		case "tol":
			var v float64
			if v, ok = value.(float64); ok {
				lr.tol = v
			}
		case "random_state":
			var v int64
			if v, ok = value.(int64); ok {
				lr.randomState = v
				if v >= 0 {
					lr.rand = rand.New(rand.NewSource(v))
				}
			}
		default:
			return errors.NewInvalidConfigurationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewInvalidConfigurationError(key, "wrong type", value)
		}
	}
	lr.state.Reset()
	return nil
}

// sigmoid computes the logistic function without overflowing for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}
