package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/featsel/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// checkPair は2つのベクトルが非nil・非空・同じ長さであることを検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinary はラベルが0または1のみであることを検証する
func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		if v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

// AUC はROC曲線下面積を計算する
//
// Mann-Whitney の U 統計量として計算し、同じスコアには平均順位を与える。
// 正例または負例が存在しない場合は UndefinedMetricWarning を出して 0.5 を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	// 同順位は平均順位（1始まり）
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var nPos, nNeg, rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	u := rankSum - nPos*(nPos+1)/2
	return u / (nPos * nNeg), nil
}

func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// BinaryLogLoss は二値分類の交差エントロピー損失を計算する
// yProb は陽性クラスの確率。log(0) を避けるため [eps, 1-eps] にクリップする
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	const eps = 1e-15
	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yProb.AtVec(i), eps, 1-eps)
		if yTrue.AtVec(i) == 1 {
			sum -= errors.StabilizeLog(p)
		} else {
			sum -= errors.StabilizeLog(1 - p)
		}
	}
	return sum / float64(n), nil
}

// Accuracy は正解率を計算する（多クラス可）
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// confusion は二値の混同行列 (tp, fp, fn, tn) を返す
func confusion(op string, yTrue, yPred *mat.VecDense) (tp, fp, fn, tn float64, err error) {
	n, err := checkPair(op, yTrue, yPred)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if err := checkBinary(op, yTrue); err != nil {
		return 0, 0, 0, 0, err
	}
	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i) == 1, yPred.AtVec(i) == 1
		switch {
		case t && p:
			tp++
		case !t && p:
			fp++
		case t && !p:
			fn++
		default:
			tn++
		}
	}
	return tp, fp, fn, tn, nil
}

// Precision は適合率 tp / (tp + fp) を計算する
// 陽性の予測が一つもない場合は UndefinedMetricWarning を出して 0 を返す
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, fp, _, _, err := confusion("Precision", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positive samples", 0))
		return 0, nil
	}
	return tp / (tp + fp), nil
}

// Recall は再現率 tp / (tp + fn) を計算する
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, _, fn, _, err := confusion("Recall", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true positive samples", 0))
		return 0, nil
	}
	return tp / (tp + fn), nil
}

// F1 は適合率と再現率の調和平均を計算する
func F1(yTrue, yPred *mat.VecDense) (float64, error) {
	tp, fp, fn, _, err := confusion("F1", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	denom := 2*tp + fp + fn
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "no true nor predicted positive samples", 0))
		return 0, nil
	}
	return 2 * tp / denom, nil
}

// BalancedAccuracy はクラスごとの再現率の平均を計算する（多クラス可）
func BalancedAccuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BalancedAccuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	support := make(map[float64]float64)
	hits := make(map[float64]float64)
	for i := 0; i < n; i++ {
		c := yTrue.AtVec(i)
		support[c]++
		if yPred.AtVec(i) == c {
			hits[c]++
		}
	}
	var sum float64
	for c, s := range support {
		sum += hits[c] / s
	}
	if math.IsNaN(sum) {
		return 0, errors.NewNumericalInstabilityError("BalancedAccuracy", []float64{sum}, 0)
	}
	return sum / float64(len(support)), nil
}
