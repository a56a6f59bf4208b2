package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tobgu/qframe"
	qcsv "github.com/tobgu/qframe/config/csv"
	"github.com/tobgu/qframe/types"
	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// ResolvePath returns the first existing file among the candidates for path:
// the path itself when absolute, otherwise the path relative to the current
// directory and then relative to baseDir.
func ResolvePath(path, baseDir string) (string, error) {
	var candidates []string
	if filepath.IsAbs(path) {
		candidates = []string{path}
	} else {
		if abs, err := filepath.Abs(path); err == nil {
			candidates = append(candidates, abs)
		} else {
			candidates = append(candidates, path)
		}
		if baseDir != "" {
			candidates = append(candidates, filepath.Join(baseDir, path))
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", errors.NewDatasetNotFoundError(path, candidates)
}

// ReadFile reads a .csv or .xlsx file into a Table.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	default:
		return nil, errors.NewValueError("ReadFile", "unsupported file extension "+filepath.Ext(path))
	}
}

// ReadCSV parses CSV with a header row. Column kinds come from qframe's type
// inference: int and float columns are Numeric (missing int cells make the
// column float with NaN), bool, enum and string columns are Text.
func ReadCSV(r io.Reader) (*Table, error) {
	qf := qframe.ReadCSV(r, qcsv.EmptyNull(true))
	if qf.Err != nil {
		return nil, errors.Wrap(qf.Err, "read csv")
	}

	typeMap := qf.ColumnTypeMap()
	n := qf.Len()
	cols := make([]*Column, 0, len(typeMap))
	for _, name := range qf.ColumnNames() {
		col, err := qframeColumn(qf, name, typeMap[name], n)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}
		cols = append(cols, col)
	}
	return NewTable(cols...)
}

func qframeColumn(qf qframe.QFrame, name string, typ types.DataType, n int) (*Column, error) {
	switch typ {
	case types.Float:
		view, err := qf.FloatView(name)
		if err != nil {
			return nil, err
		}
		values := make([]float64, n)
		for i := range values {
			values[i] = view.ItemAt(i)
		}
		return NumericColumn(name, values), nil

	case types.Int:
		view, err := qf.IntView(name)
		if err != nil {
			return nil, err
		}
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(view.ItemAt(i))
		}
		return NumericColumn(name, values), nil

	case types.Bool:
		view, err := qf.BoolView(name)
		if err != nil {
			return nil, err
		}
		values := make([]string, n)
		for i := range values {
			values[i] = strconv.FormatBool(view.ItemAt(i))
		}
		return TextColumn(name, values), nil

	case types.Enum:
		view, err := qf.EnumView(name)
		if err != nil {
			return nil, err
		}
		values := make([]string, n)
		for i := range values {
			if s := view.ItemAt(i); s != nil {
				values[i] = *s
			}
		}
		return TextColumn(name, values), nil

	default:
		values := make([]string, n)
		view, err := qf.StringView(name)
		if err != nil {
			// an all-empty column has no inferable type
			return TextColumn(name, values), nil
		}
		for i := range values {
			if s := view.ItemAt(i); s != nil {
				values[i] = *s
			}
		}
		return TextColumn(name, values), nil
	}
}

// ReadXLSX reads the first sheet of a workbook. The rows are re-encoded as
// CSV and parsed by ReadCSV so that type inference matches CSV input.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "sheet %s is empty", sheets[0])
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	width := len(rows[0])
	for _, row := range rows {
		// GetRows drops trailing empty cells
		for len(row) < width {
			row = append(row, "")
		}
		if err := w.Write(row[:width]); err != nil {
			return nil, errors.Wrap(err, "re-encode sheet as csv")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "re-encode sheet as csv")
	}
	return ReadCSV(&buf)
}

// encodeLabels maps label values to class indices 0..K-1 ordered by sorted
// unique value: numeric order for numeric labels, lexical order for text.
func encodeLabels(c *Column) (codes []float64, classNames []string, err error) {
	codes = make([]float64, c.Len())
	if c.Kind == Numeric {
		uniq := make(map[float64]struct{})
		for i, v := range c.Floats {
			if math.IsNaN(v) {
				return nil, nil, errors.NewValueError("encodeLabels", "missing label in row "+strconv.Itoa(i))
			}
			uniq[v] = struct{}{}
		}
		sorted := make([]float64, 0, len(uniq))
		for v := range uniq {
			sorted = append(sorted, v)
		}
		sort.Float64s(sorted)
		index := make(map[float64]int, len(sorted))
		for i, v := range sorted {
			index[v] = i
			classNames = append(classNames, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for i, v := range c.Floats {
			codes[i] = float64(index[v])
		}
		return codes, classNames, nil
	}

	uniq := make(map[string]struct{})
	for i, s := range c.Strings {
		if s == "" {
			return nil, nil, errors.NewValueError("encodeLabels", "missing label in row "+strconv.Itoa(i))
		}
		uniq[s] = struct{}{}
	}
	for s := range uniq {
		classNames = append(classNames, s)
	}
	sort.Strings(classNames)
	index := make(map[string]int, len(classNames))
	for i, s := range classNames {
		index[s] = i
	}
	for i, s := range c.Strings {
		codes[i] = float64(index[s])
	}
	return codes, classNames, nil
}
