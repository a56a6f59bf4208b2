package model_selection

import (
	"context"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/metrics"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

func checkPartition(t *testing.T, folds []CVFold, n int) {
	t.Helper()
	seen := make(map[int]int)
	for f, fold := range folds {
		if len(fold.TrainIndices)+len(fold.TestIndices) != n {
			t.Errorf("fold %d: train+test = %d, want %d", f, len(fold.TrainIndices)+len(fold.TestIndices), n)
		}
		if !sort.IntsAreSorted(fold.TestIndices) || !sort.IntsAreSorted(fold.TrainIndices) {
			t.Errorf("fold %d: indices not sorted", f)
		}
		for _, idx := range fold.TestIndices {
			seen[idx]++
		}
	}
	for i := 0; i < n; i++ {
		if seen[i] != 1 {
			t.Errorf("sample %d appears in %d test folds", i, seen[i])
		}
	}
}

func TestKFold(t *testing.T) {
	X := mat.NewDense(10, 1, nil)

	folds, err := NewKFold(3, false, 0).Split(X, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(folds) != 3 {
		t.Fatalf("got %d folds", len(folds))
	}
	checkPartition(t, folds, 10)

	wantSizes := []int{4, 3, 3}
	for i, fold := range folds {
		if len(fold.TestIndices) != wantSizes[i] {
			t.Errorf("fold %d test size = %d, want %d", i, len(fold.TestIndices), wantSizes[i])
		}
	}
	if folds[0].TestIndices[0] != 0 || folds[2].TestIndices[2] != 9 {
		t.Errorf("unshuffled folds should be contiguous: %v", folds)
	}

	shuffled, err := NewKFold(3, true, 7).Split(X, nil)
	if err != nil {
		t.Fatal(err)
	}
	checkPartition(t, shuffled, 10)

	if _, err := NewKFold(5, false, 0).Split(mat.NewDense(3, 1, nil), nil); err == nil {
		t.Error("expected error when n_splits > n_samples")
	}
}

func TestStratifiedKFold(t *testing.T) {
	tests := []struct {
		name    string
		labels  []float64
		k       int
		wantErr bool
	}{
		{name: "balanced", labels: []float64{0, 1, 0, 1, 0, 1, 0, 1}, k: 2},
		{name: "imbalanced", labels: []float64{0, 0, 0, 0, 0, 0, 1, 1, 1}, k: 3},
		{name: "three classes", labels: []float64{2, 0, 1, 2, 0, 1, 2, 0, 1}, k: 3},
		{name: "too many folds", labels: []float64{0, 0, 1, 1}, k: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.labels)
			X := mat.NewDense(n, 1, nil)
			y := mat.NewDense(n, 1, tt.labels)

			folds, err := NewStratifiedKFold(tt.k, false, 0).Split(X, y)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			checkPartition(t, folds, n)

			// every class with at least k members appears in every test fold
			counts := make(map[float64]int)
			for _, l := range tt.labels {
				counts[l]++
			}
			for f, fold := range folds {
				present := make(map[float64]bool)
				for _, idx := range fold.TestIndices {
					present[tt.labels[idx]] = true
				}
				for c, cnt := range counts {
					if cnt >= tt.k && !present[c] {
						t.Errorf("fold %d misses class %v", f, c)
					}
				}
			}

			again, _ := NewStratifiedKFold(tt.k, false, 0).Split(X, y)
			for f := range folds {
				for i := range folds[f].TestIndices {
					if folds[f].TestIndices[i] != again[f].TestIndices[i] {
						t.Fatalf("split is not deterministic")
					}
				}
			}
		})
	}
}

func TestStratifiedTrainTestSplit(t *testing.T) {
	labels := make([]float64, 100)
	for i := 70; i < 100; i++ {
		labels[i] = 1
	}

	train, test, err := StratifiedTrainTestSplit(labels, DefaultTestSize, DefaultSplitSeed)
	if err != nil {
		t.Fatal(err)
	}
	if len(test) != 20 || len(train) != 80 {
		t.Fatalf("sizes = %d/%d, want 80/20", len(train), len(test))
	}
	var pos int
	for _, idx := range test {
		if labels[idx] == 1 {
			pos++
		}
	}
	if pos != 6 {
		t.Errorf("test positives = %d, want 6", pos)
	}

	inTest := make(map[int]bool)
	for _, idx := range test {
		inTest[idx] = true
	}
	for _, idx := range train {
		if inTest[idx] {
			t.Errorf("row %d in both partitions", idx)
		}
	}

	train2, test2, _ := StratifiedTrainTestSplit(labels, DefaultTestSize, DefaultSplitSeed)
	for i := range test {
		if test[i] != test2[i] {
			t.Fatal("same seed must give the same split")
		}
	}
	if len(train2) != len(train) {
		t.Fatal("same seed must give the same split")
	}
}

func TestStratifiedTrainTestSplit_Small(t *testing.T) {
	// 3 vs 2 rows: one test row, taken from the majority class
	labels := []float64{0, 1, 0, 1, 0}
	train, test, err := StratifiedTrainTestSplit(labels, 0.2, 41)
	if err != nil {
		t.Fatal(err)
	}
	if len(test) != 1 || len(train) != 4 {
		t.Fatalf("sizes = %d/%d", len(train), len(test))
	}
	if labels[test[0]] != 0 {
		t.Errorf("test row should come from class 0, got %v", labels[test[0]])
	}

	if _, _, err := StratifiedTrainTestSplit([]float64{0}, 0.2, 41); err == nil {
		t.Error("expected error for a single row")
	}
	if _, _, err := StratifiedTrainTestSplit(labels, 1.5, 41); err == nil {
		t.Error("expected error for test_size outside (0, 1)")
	}
}

// thresholdClassifier predicts 1 when the first feature exceeds the mean of
// the training rows.
type thresholdClassifier struct {
	cut float64
}

func (c *thresholdClassifier) Fit(X, _ mat.Matrix) error {
	r, _ := X.Dims()
	for i := 0; i < r; i++ {
		c.cut += X.At(i, 0)
	}
	c.cut /= float64(r)
	return nil
}

func (c *thresholdClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if X.At(i, 0) > c.cut {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

func (c *thresholdClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		p := 0.0
		if X.At(i, 0) > c.cut {
			p = 1
		}
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

func (c *thresholdClassifier) Classes() []int { return []int{0, 1} }

type failingClassifier struct{ thresholdClassifier }

func (failingClassifier) Fit(_, _ mat.Matrix) error { return errors.New("fit failed") }

func TestCrossValScore(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{0, 1, 2, 3, 10, 11, 12, 13})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	scorer, err := metrics.GetScorer("accuracy")
	if err != nil {
		t.Fatal(err)
	}

	factory := func() model.Classifier { return &thresholdClassifier{} }
	scores, err := CrossValScore(context.Background(), factory, X, y, NewStratifiedKFold(4, false, 0), scorer, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 4 {
		t.Fatalf("got %d scores", len(scores))
	}
	for i, s := range scores {
		if s != 1 {
			t.Errorf("fold %d score = %v, want 1", i, s)
		}
	}
	if MeanScore(scores) != 1 {
		t.Errorf("mean = %v", MeanScore(scores))
	}

	failing := func() model.Classifier { return &failingClassifier{} }
	if _, err := CrossValScore(context.Background(), failing, X, y, NewStratifiedKFold(2, false, 0), scorer, 2); err == nil {
		t.Error("expected fit error to propagate")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CrossValScore(ctx, factory, X, y, NewStratifiedKFold(2, false, 0), scorer, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
