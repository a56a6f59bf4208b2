package feature_selection

import "github.com/YuminosukeSato/featsel/dataset"

// NumericFilter keeps numeric columns and drops text columns. No coercion or
// encoding is attempted.
type NumericFilter struct {
	support
}

// NewNumericFilter creates a NumericFilter.
func NewNumericFilter() *NumericFilter {
	return &NumericFilter{support: support{name: "NumericFilter"}}
}

// Fit marks the numeric columns of t.
func (f *NumericFilter) Fit(t *dataset.Table) error {
	cols := t.Columns()
	mask := make([]bool, len(cols))
	for i, c := range cols {
		mask[i] = c.Kind == dataset.Numeric
	}
	f.set(t.Names(), mask)
	return nil
}
