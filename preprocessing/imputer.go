package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/dataset"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// ConstantImputer は欠損値(NaN)を定数で置き換える
// 統計量を学習しないので Fit は列数の記録のみを行う
type ConstantImputer struct {
	// FillValue は NaN を置き換える値 (デフォルト: 0)
	FillValue float64

	nFeatures int
	fitted    bool
}

// NewConstantImputer は fill で NaN を埋める ConstantImputer を作成する
func NewConstantImputer(fill float64) *ConstantImputer {
	return &ConstantImputer{FillValue: fill}
}

// Fit は列数を記録する
func (c *ConstantImputer) Fit(X mat.Matrix) error {
	_, cols := X.Dims()
	c.nFeatures = cols
	c.fitted = true
	return nil
}

// Transform は NaN を FillValue に置き換えた新しい行列を返す
func (c *ConstantImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !c.fitted {
		return nil, errors.NewNotFittedError("ConstantImputer", "Transform")
	}
	r, cols := X.Dims()
	if cols != c.nFeatures {
		return nil, errors.NewDimensionError("ConstantImputer.Transform", c.nFeatures, cols, 1)
	}
	if r == 0 || cols == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.DenseCopyOf(X)
	out.Apply(func(_, _ int, v float64) float64 {
		if math.IsNaN(v) {
			return c.FillValue
		}
		return v
	}, out)
	return out, nil
}

// FitTransform はFitとTransformを同時に実行する
func (c *ConstantImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := c.Fit(X); err != nil {
		return nil, err
	}
	return c.Transform(X)
}

// FillSlice は values 内の NaN をその場で fill に置き換え、置換数を返す
func FillSlice(values []float64, fill float64) int {
	n := 0
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = fill
			n++
		}
	}
	return n
}

// FillTable は t の数値列の NaN を FillValue で埋めた新しいテーブルと置換数を返す
// テキスト列はそのまま残す。t は変更しない
func (c *ConstantImputer) FillTable(t *dataset.Table) (*dataset.Table, int) {
	out := t.Clone()
	filled := 0
	for _, col := range out.Columns() {
		if col.Kind == dataset.Numeric {
			filled += FillSlice(col.Floats, c.FillValue)
		}
	}
	return out, filled
}
