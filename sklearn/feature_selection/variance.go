package feature_selection

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/featsel/dataset"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// VarianceThreshold drops numeric columns whose population variance over
// non-missing values is not strictly greater than Threshold. An all-missing
// column has variance 0.
//
// With IncludeText, a text column is dropped when it has at most one
// distinct value; otherwise text columns are always kept.
type VarianceThreshold struct {
	support

	Threshold   float64
	IncludeText bool

	variances []float64
}

// NewVarianceThreshold creates a filter for numeric columns only.
func NewVarianceThreshold(threshold float64) *VarianceThreshold {
	return &VarianceThreshold{support: support{name: "VarianceThreshold"}, Threshold: threshold}
}

// NewConstantFilter creates the threshold-0 filter that also removes
// single-valued text columns.
func NewConstantFilter() *VarianceThreshold {
	v := NewVarianceThreshold(0)
	v.IncludeText = true
	return v
}

// Fit computes the per-column variances of t.
func (v *VarianceThreshold) Fit(t *dataset.Table) error {
	if v.Threshold < 0 || math.IsNaN(v.Threshold) {
		return errors.NewInvalidConfigurationError("variance_threshold", "must be non-negative", v.Threshold)
	}

	cols := t.Columns()
	v.variances = make([]float64, len(cols))
	mask := make([]bool, len(cols))
	for i, c := range cols {
		if c.Kind == dataset.Text {
			v.variances[i] = math.NaN()
			mask[i] = !v.IncludeText || distinct(c.Strings) > 1
			continue
		}
		v.variances[i] = NaNVariance(c.Floats, v.Threshold == 0)
		mask[i] = v.variances[i] > v.Threshold
	}
	v.set(t.Names(), mask)
	return nil
}

// Variances returns the fitted variances; text columns report NaN.
func (v *VarianceThreshold) Variances() []float64 {
	return append([]float64(nil), v.variances...)
}

// NaNVariance is the population variance of the non-NaN values of x, 0 when
// there are none. With peakToPeak the result is capped by max-min, so a
// column of identical values is exactly 0 despite rounding in the mean.
func NaNVariance(x []float64, peakToPeak bool) float64 {
	vals := make([]float64, 0, len(x))
	for _, f := range x {
		if !math.IsNaN(f) {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	variance := math.Max(stat.PopVariance(vals, nil), 0)
	if peakToPeak {
		variance = math.Min(variance, floats.Max(vals)-floats.Min(vals))
	}
	return variance
}

func distinct(values []string) int {
	seen := make(map[string]struct{})
	for _, s := range values {
		seen[s] = struct{}{}
		if len(seen) > 1 {
			return len(seen)
		}
	}
	return len(seen)
}
