// Package feature_selection implements the column filters and subset
// searches of the feature-selection pipeline: variance, duplicate, numeric
// and correlation filters, the forward sequential selector and the
// exhaustive subset search.
package feature_selection

import (
	"github.com/YuminosukeSato/featsel/dataset"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// Filter is a column filter fitted on a table. After Fit, GetSupport marks
// the columns that are kept, aligned with the fitted table's column order.
type Filter interface {
	Fit(t *dataset.Table) error
	GetSupport() ([]bool, error)
	Kept() []string
	Dropped() []string
	Transform(t *dataset.Table) (*dataset.Table, error)
}

// support is the fitted state shared by all filters.
type support struct {
	name  string
	names []string
	mask  []bool
}

func (s *support) set(names []string, mask []bool) {
	s.names = names
	s.mask = mask
}

// GetSupport returns the kept-column mask.
func (s *support) GetSupport() ([]bool, error) {
	if s.mask == nil {
		return nil, errors.NewNotFittedError(s.name, "GetSupport")
	}
	return append([]bool(nil), s.mask...), nil
}

// Kept returns the kept column names in input order.
func (s *support) Kept() []string {
	return s.pick(true)
}

// Dropped returns the dropped column names in input order. It is never nil
// after Fit.
func (s *support) Dropped() []string {
	return s.pick(false)
}

func (s *support) pick(keep bool) []string {
	if s.mask == nil {
		return nil
	}
	out := []string{}
	for i, m := range s.mask {
		if m == keep {
			out = append(out, s.names[i])
		}
	}
	return out
}

// Transform drops the filtered columns from t, which must have the columns
// seen in Fit.
func (s *support) Transform(t *dataset.Table) (*dataset.Table, error) {
	if s.mask == nil {
		return nil, errors.NewNotFittedError(s.name, "Transform")
	}
	if t.Width() != len(s.names) {
		return nil, errors.NewDimensionError(s.name+".Transform", len(s.names), t.Width(), 1)
	}
	for i, n := range t.Names() {
		if n != s.names[i] {
			return nil, errors.NewValueError(s.name+".Transform", "column "+n+" was not seen in Fit")
		}
	}
	return t.Select(s.Kept())
}

// FitTransform fits f on t and returns the filtered table.
func FitTransform(f Filter, t *dataset.Table) (*dataset.Table, error) {
	if err := f.Fit(t); err != nil {
		return nil, err
	}
	return f.Transform(t)
}
