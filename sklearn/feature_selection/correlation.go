package feature_selection

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/featsel/core/parallel"
	"github.com/YuminosukeSato/featsel/dataset"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// DefaultCorrelationThreshold is the absolute Pearson correlation above
// which the later column of a pair is dropped.
const DefaultCorrelationThreshold = 0.8

// CorrelationFilter drops numeric columns that are strongly correlated with
// an earlier column that is itself kept.
//
// Columns are visited in ascending index order, and for each column i the
// earlier columns j < i also in ascending order; column i is flagged when
// |corr(i, j)| > Threshold for some earlier j that has not been flagged.
// Every dropped column is therefore correlated with a kept earlier column,
// and the kept columns are pairwise at or below the threshold. Two dropped
// columns may still be correlated with each other when both were flagged by
// a third, earlier column. Refitting on the kept columns drops nothing.
// Correlations are computed over the rows where both columns are present; a
// NaN correlation never exceeds the threshold.
type CorrelationFilter struct {
	support

	Threshold float64
	// NJobs bounds the goroutines computing correlation rows (<= 0 means
	// GOMAXPROCS).
	NJobs int

	corr *mat.SymDense
}

// NewCorrelationFilter creates a CorrelationFilter.
func NewCorrelationFilter(threshold float64) *CorrelationFilter {
	return &CorrelationFilter{support: support{name: "CorrelationFilter"}, Threshold: threshold}
}

// Fit computes the correlation matrix of t and flags the correlated columns.
// Text columns are rejected; run NumericFilter first.
func (f *CorrelationFilter) Fit(t *dataset.Table) error {
	return f.FitContext(context.Background(), t)
}

// FitContext is Fit with cancellation of the parallel correlation pass.
func (f *CorrelationFilter) FitContext(ctx context.Context, t *dataset.Table) error {
	if f.Threshold < 0 || math.IsNaN(f.Threshold) {
		return errors.NewInvalidConfigurationError("correlation_threshold", "must be non-negative", f.Threshold)
	}
	cols := t.Columns()
	for _, c := range cols {
		if c.Kind != dataset.Numeric {
			return errors.NewValueError("CorrelationFilter.Fit", "column "+c.Name+" is not numeric")
		}
	}

	corr, err := PairwiseCorrelation(ctx, cols, f.NJobs)
	if err != nil {
		return err
	}
	f.corr = corr

	n := len(cols)
	flagged := make([]bool, n)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if flagged[j] {
				continue
			}
			if math.Abs(corr.At(i, j)) > f.Threshold {
				flagged[i] = true
				break
			}
		}
	}

	mask := make([]bool, n)
	for i := range mask {
		mask[i] = !flagged[i]
	}
	f.set(t.Names(), mask)
	return nil
}

// Correlation returns the fitted correlation matrix in column order.
func (f *CorrelationFilter) Correlation() (*mat.SymDense, error) {
	if f.corr == nil {
		return nil, errors.NewNotFittedError(f.name, "Correlation")
	}
	if f.corr.SymmetricDim() == 0 {
		return &mat.SymDense{}, nil
	}
	return mat.NewSymDense(f.corr.SymmetricDim(), append([]float64(nil), f.corr.RawSymmetric().Data...)), nil
}

// PairwiseCorrelation returns the Pearson correlation matrix of the numeric
// columns, each pair computed over rows where both values are present. Rows
// of the matrix are filled concurrently.
func PairwiseCorrelation(ctx context.Context, cols []*dataset.Column, nJobs int) (*mat.SymDense, error) {
	n := len(cols)
	if n == 0 {
		return &mat.SymDense{}, nil
	}
	vals := make([][]float64, n)
	err := parallel.ForEach(ctx, n, nJobs, func(_ context.Context, i int) error {
		row := make([]float64, i+1)
		for j := 0; j < i; j++ {
			row[j] = pearson(cols[i].Floats, cols[j].Floats)
		}
		row[i] = 1
		vals[i] = row
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "correlation")
	}

	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j, v := range vals[i] {
			corr.SetSym(i, j, v)
		}
	}
	return corr, nil
}

// pearson is the correlation of x and y over pairwise-complete rows, NaN when
// fewer than two rows remain or either side is constant.
func pearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for k := range x {
		if math.IsNaN(x[k]) || math.IsNaN(y[k]) {
			continue
		}
		xs = append(xs, x[k])
		ys = append(ys, y[k])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
