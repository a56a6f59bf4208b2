// Package model_selection provides cross-validation splitters, a stratified
// train/test split and fold-parallel cross-validated scoring.
package model_selection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// Splitter defines interface for cross-validation splitters
type Splitter interface {
	Split(X, y mat.Matrix) ([]CVFold, error)
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. The first n % k folds
// get one extra test sample.
func (kf *KFold) Split(X, _ mat.Matrix) ([]CVFold, error) {
	nSamples, _ := X.Dims()
	if nSamples < kf.NSplits {
		return nil, errors.NewInvalidConfigurationError("n_splits",
			"cannot be greater than the number of samples", kf.NSplits)
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	testFold := make([]int, nSamples)
	foldSize, remainder := nSamples/kf.NSplits, nSamples%kf.NSplits
	current := 0
	for f := 0; f < kf.NSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		for _, idx := range indices[current : current+size] {
			testFold[idx] = f
		}
		current += size
	}
	return foldsFromAssignment(testFold, kf.NSplits), nil
}

// StratifiedKFold implements stratified k-fold cross-validation. Without
// shuffling the fold assignment is deterministic: per class, samples are
// dealt to folds in row order using the same allocation as scikit-learn.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]CVFold, error) {
	nSamples, _ := X.Dims()
	if yRows, _ := y.Dims(); yRows != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, yRows, 0)
	}

	labels := make([]float64, nSamples)
	for i := range labels {
		labels[i] = y.At(i, 0)
	}
	classes, encoded := encodeLabels(labels)
	counts := make([]int, len(classes))
	for _, c := range encoded {
		counts[c]++
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if skf.NSplits > maxCount {
		return nil, errors.NewInvalidConfigurationError("n_splits",
			"cannot be greater than the number of members in each class", skf.NSplits)
	}

	// allocation[f][k]: how many samples of class k go to test fold f.
	// Dealing the sorted labels round-robin balances fold sizes across classes.
	order := append([]int(nil), encoded...)
	sort.Ints(order)
	allocation := make([][]int, skf.NSplits)
	for f := range allocation {
		allocation[f] = make([]int, len(classes))
		for i := f; i < nSamples; i += skf.NSplits {
			allocation[f][order[i]]++
		}
	}

	perClass := make([][]int, len(classes))
	for i, c := range encoded {
		perClass[c] = append(perClass[c], i)
	}
	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
		for _, idx := range perClass {
			r.Shuffle(len(idx), func(i, j int) {
				idx[i], idx[j] = idx[j], idx[i]
			})
		}
	}

	testFold := make([]int, nSamples)
	for k, idx := range perClass {
		pos := 0
		for f := 0; f < skf.NSplits; f++ {
			for n := 0; n < allocation[f][k]; n++ {
				testFold[idx[pos]] = f
				pos++
			}
		}
	}
	return foldsFromAssignment(testFold, skf.NSplits), nil
}

// foldsFromAssignment builds folds with indices in ascending row order.
func foldsFromAssignment(testFold []int, nSplits int) []CVFold {
	folds := make([]CVFold, nSplits)
	for i, f := range testFold {
		for g := range folds {
			if g == f {
				folds[g].TestIndices = append(folds[g].TestIndices, i)
			} else {
				folds[g].TrainIndices = append(folds[g].TrainIndices, i)
			}
		}
	}
	return folds
}

// encodeLabels maps labels to 0..K-1 by sorted unique value.
func encodeLabels(labels []float64) ([]float64, []int) {
	seen := make(map[float64]struct{})
	for _, v := range labels {
		seen[v] = struct{}{}
	}
	classes := make([]float64, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	index := make(map[float64]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := make([]int, len(labels))
	for i, v := range labels {
		encoded[i] = index[v]
	}
	return classes, encoded
}

// TakeRows copies the given rows of X into a new dense matrix. An empty
// selection yields an empty matrix.
func TakeRows(X mat.Matrix, indices []int) *mat.Dense {
	_, cols := X.Dims()
	if len(indices) == 0 || cols == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}
