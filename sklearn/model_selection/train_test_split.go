package model_selection

import (
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// DefaultTestSize and DefaultSplitSeed are the split parameters used when
// loading a dataset.
const (
	DefaultTestSize  = 0.2
	DefaultSplitSeed = 41
)

// StratifiedTrainTestSplit partitions row indices 0..len(labels)-1 into
// disjoint train and test sets whose class proportions follow labels.
//
// The test set has ceil(testSize*n) rows. Each class receives
// floor(share) test rows and the leftover rows go to the classes with the
// largest fractional share, lower class index first on ties. Rows are drawn
// per class from a permutation seeded with seed; both index lists are
// returned in ascending order.
func StratifiedTrainTestSplit(labels []float64, testSize float64, seed int64) (train, test []int, err error) {
	n := len(labels)
	if n < 2 {
		return nil, nil, errors.Wrapf(errors.ErrEmptyData, "StratifiedTrainTestSplit: need at least 2 rows, got %d", n)
	}
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, nil, errors.NewInvalidConfigurationError("test_size", "must be in (0, 1)", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return nil, nil, errors.NewInvalidConfigurationError("test_size",
			"leaves no rows for training", testSize)
	}

	_, encoded := encodeLabels(labels)
	perClass := make(map[int][]int)
	nClasses := 0
	for i, c := range encoded {
		perClass[c] = append(perClass[c], i)
		if c+1 > nClasses {
			nClasses = c + 1
		}
	}

	quota := make([]int, nClasses)
	remainders := make([]float64, nClasses)
	assigned := 0
	for c := 0; c < nClasses; c++ {
		share := float64(nTest) * float64(len(perClass[c])) / float64(n)
		quota[c] = int(math.Floor(share))
		remainders[c] = share - float64(quota[c])
		assigned += quota[c]
	}
	order := make([]int, nClasses)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for i := 0; assigned < nTest; i = (i + 1) % nClasses {
		c := order[i]
		if quota[c] < len(perClass[c]) {
			quota[c]++
			assigned++
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for c := 0; c < nClasses; c++ {
		idx := perClass[c]
		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})
		test = append(test, idx[:quota[c]]...)
		train = append(train, idx[quota[c]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
