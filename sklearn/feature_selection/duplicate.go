package feature_selection

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/YuminosukeSato/featsel/dataset"
)

// DuplicateFilter drops columns whose values equal an earlier column's,
// keeping the first occurrence. Numeric columns compare bit for bit with all
// NaNs treated as equal; text columns compare as strings. A numeric and a
// text column are never duplicates.
type DuplicateFilter struct {
	support

	// duplicateOf maps each dropped column to the column it repeats.
	duplicateOf map[string]string
}

// NewDuplicateFilter creates a DuplicateFilter.
func NewDuplicateFilter() *DuplicateFilter {
	return &DuplicateFilter{support: support{name: "DuplicateFilter"}}
}

// Fit finds the duplicated columns of t.
func (f *DuplicateFilter) Fit(t *dataset.Table) error {
	cols := t.Columns()
	mask := make([]bool, len(cols))
	first := make(map[string]string, len(cols))
	f.duplicateOf = make(map[string]string)

	for i, c := range cols {
		key := columnKey(c)
		if orig, ok := first[key]; ok {
			f.duplicateOf[c.Name] = orig
			continue
		}
		first[key] = c.Name
		mask[i] = true
	}
	f.set(t.Names(), mask)
	return nil
}

// DuplicateOf returns the kept column that name duplicates.
func (f *DuplicateFilter) DuplicateOf(name string) (string, bool) {
	orig, ok := f.duplicateOf[name]
	return orig, ok
}

var canonicalNaN = math.Float64bits(math.NaN())

// columnKey encodes a column's kind and values so that equal columns, and
// only those, share a key.
func columnKey(c *dataset.Column) string {
	var b strings.Builder
	if c.Kind == dataset.Numeric {
		b.WriteByte('n')
		buf := make([]byte, 8)
		for _, v := range c.Floats {
			bits := math.Float64bits(v)
			if math.IsNaN(v) {
				bits = canonicalNaN
			}
			binary.LittleEndian.PutUint64(buf, bits)
			b.Write(buf)
		}
		return b.String()
	}
	b.WriteByte('t')
	buf := make([]byte, 4)
	for _, s := range c.Strings {
		binary.LittleEndian.PutUint32(buf, uint32(len(s)))
		b.Write(buf)
		b.WriteString(s)
	}
	return b.String()
}
