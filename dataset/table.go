// Package dataset loads tabular classification data into an ordered,
// column-typed Table and produces the stratified train/test split the
// feature-selection stages work on.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// Kind is the inferred type of a column.
type Kind int

const (
	// Numeric columns hold float64 values, NaN for missing.
	Numeric Kind = iota
	// Text columns hold strings, "" for missing.
	Text
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Column is a named, typed column. Exactly one of Floats and Strings is
// populated, according to Kind. Columns are treated as immutable once they
// are part of a Table.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// NumericColumn builds a Numeric column.
func NumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Floats: values}
}

// TextColumn builds a Text column.
func TextColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: Text, Strings: values}
}

// Len returns the number of rows.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Missing reports whether row i is missing.
func (c *Column) Missing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == ""
}

func (c *Column) clone() *Column {
	return &Column{
		Name:    c.Name,
		Kind:    c.Kind,
		Floats:  append([]float64(nil), c.Floats...),
		Strings: append([]string(nil), c.Strings...),
	}
}

func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Floats = make([]float64, len(rows))
		for i, r := range rows {
			out.Floats[i] = c.Floats[r]
		}
		return out
	}
	out.Strings = make([]string, len(rows))
	for i, r := range rows {
		out.Strings[i] = c.Strings[r]
	}
	return out
}

// Table is an ordered set of equally long named columns. Select, Drop, Take
// and WithColumn return new tables; the receiver is never modified.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewTable validates that names are unique and lengths agree.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, errors.NewValueError("NewTable", "duplicate column name "+c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, errors.NewDimensionError("NewTable", t.rows, c.Len(), 0)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

func mustTable(cols []*Column, rows int) *Table {
	t := &Table{cols: cols, index: make(map[string]int, len(cols)), rows: rows}
	for i, c := range cols {
		t.index[c.Name] = i
	}
	return t
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Select returns the named columns in the order given.
func (t *Table) Select(names []string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, errors.NewValueError("Table.Select", "unknown column "+n)
		}
		cols = append(cols, c)
	}
	return NewTable(cols...)
}

// Drop returns the table without the named columns, keeping the order of
// the rest. Unknown names are ignored.
func (t *Table) Drop(names []string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if _, ok := drop[c.Name]; !ok {
			cols = append(cols, c)
		}
	}
	return mustTable(cols, t.rows)
}

// Take returns the given rows, in order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(rows)
	}
	return mustTable(cols, len(rows))
}

// WithColumn returns a table where the column of the same name is replaced
// by c.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	i, ok := t.index[c.Name]
	if !ok {
		return nil, errors.NewValueError("Table.WithColumn", "unknown column "+c.Name)
	}
	if c.Len() != t.rows {
		return nil, errors.NewDimensionError("Table.WithColumn", t.rows, c.Len(), 0)
	}
	cols := append([]*Column(nil), t.cols...)
	cols[i] = c
	return mustTable(cols, t.rows), nil
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.clone()
	}
	return mustTable(cols, t.rows)
}

// Matrix copies the named numeric columns into a rows × len(names) matrix.
// A nil names selects every column.
func (t *Table) Matrix(names []string) (*mat.Dense, error) {
	if names == nil {
		names = t.Names()
	}
	if t.rows == 0 || len(names) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "Table.Matrix: %d rows, %d columns", t.rows, len(names))
	}
	m := mat.NewDense(t.rows, len(names), nil)
	for j, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, errors.NewValueError("Table.Matrix", "unknown column "+n)
		}
		if c.Kind != Numeric {
			return nil, errors.NewValueError("Table.Matrix", "column "+n+" is not numeric")
		}
		m.SetCol(j, c.Floats)
	}
	return m, nil
}
