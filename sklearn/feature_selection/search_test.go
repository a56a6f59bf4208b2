package feature_selection

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/YuminosukeSato/featsel/dataset"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// additiveScorer scores a subset as the sum of per-feature weights and
// records every call.
type additiveScorer struct {
	weights map[string]float64
	calls   [][]string
}

func (s *additiveScorer) Score(_ context.Context, features []string) (SubsetScore, error) {
	s.calls = append(s.calls, append([]string(nil), features...))
	total := 0.0
	for _, f := range features {
		total += s.weights[f]
	}
	return SubsetScore{Features: append([]string(nil), features...), CVScores: []float64{total, total}, AvgScore: total}, nil
}

type failingScorer struct{}

func (failingScorer) Score(context.Context, []string) (SubsetScore, error) {
	return SubsetScore{}, errors.New("boom")
}

func TestShortlistBreadth(t *testing.T) {
	tests := []struct {
		shortlist, cols, want int
	}{
		{4, 100, 4},
		{40, 100, 15},
		{0, 10, 3},
		{0, 100, 10},
		{0, 0, 1},
		{0, 2, 1},
	}
	for _, tt := range tests {
		if got := ShortlistBreadth(tt.shortlist, tt.cols); got != tt.want {
			t.Errorf("ShortlistBreadth(%d, %d) = %d, want %d", tt.shortlist, tt.cols, got, tt.want)
		}
	}
}

func TestSequentialFeatureSelector(t *testing.T) {
	scorer := &additiveScorer{weights: map[string]float64{"a": 0.1, "b": 0.5, "c": 0.3, "d": 0.5}}
	sfs := NewSequentialFeatureSelector(scorer, 3)
	if err := sfs.Fit(context.Background(), []string{"a", "b", "c", "d"}); err != nil {
		t.Fatal(err)
	}

	// b and d tie; the earlier candidate is taken first
	if got := sfs.Selected(); !reflect.DeepEqual(got, []string{"b", "d", "c"}) {
		t.Errorf("Selected() = %v", got)
	}
	if n := len(scorer.calls); n != 4+3+2 {
		t.Errorf("scorer called %d times, want 9", n)
	}
	// each evaluated subset extends the current selection by one column
	if !reflect.DeepEqual(scorer.calls[4], []string{"b", "a"}) {
		t.Errorf("first call of step 2 = %v", scorer.calls[4])
	}
	hist := sfs.History()
	if len(hist) != 3 || math.Abs(hist[2].AvgScore-1.3) > 1e-12 {
		t.Errorf("History() = %+v", hist)
	}
}

func TestSequentialFeatureSelectorErrors(t *testing.T) {
	scorer := &additiveScorer{weights: map[string]float64{}}

	var empty *errors.EmptyFeatureSetError
	err := NewSequentialFeatureSelector(scorer, 3).Fit(context.Background(), []string{"a", "b"})
	if !errors.As(err, &empty) {
		t.Fatalf("got %v, want EmptyFeatureSetError", err)
	}
	if empty.Remaining != 2 || empty.Required != 3 {
		t.Errorf("EmptyFeatureSetError = %+v", empty)
	}

	if err := NewSequentialFeatureSelector(scorer, 0).Fit(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error for zero target size")
	}

	if err := NewSequentialFeatureSelector(failingScorer{}, 1).Fit(context.Background(), []string{"a"}); err == nil {
		t.Error("scorer error must propagate")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewSequentialFeatureSelector(scorer, 1).Fit(ctx, []string{"a"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestExhaustiveFeatureSelector(t *testing.T) {
	candidates := []string{"a", "b", "c", "d", "e"}
	scorer := &additiveScorer{weights: map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}}

	var seen int
	efs := NewExhaustiveFeatureSelector(scorer, 2, 3)
	efs.OnSubset = func(SubsetScore) { seen++ }
	if err := efs.Fit(context.Background(), candidates); err != nil {
		t.Fatal(err)
	}

	results := efs.Results()
	want := combin.Binomial(5, 2) + combin.Binomial(5, 3)
	if len(results) != want || NumSubsets(5, 2, 3) != want || seen != want {
		t.Fatalf("got %d subsets (callback %d), want %d", len(results), seen, want)
	}

	unique := make(map[string]bool)
	prevSize := 0
	for _, r := range results {
		if len(r.Features) < 2 || len(r.Features) > 3 {
			t.Errorf("subset %v outside size range", r.Features)
		}
		if len(r.Features) < prevSize {
			t.Errorf("sizes not ascending at %v", r.Features)
		}
		prevSize = len(r.Features)
		key := strings.Join(r.Features, ",")
		if unique[key] {
			t.Errorf("subset %v enumerated twice", r.Features)
		}
		unique[key] = true
	}
	if !reflect.DeepEqual(results[0].Features, []string{"a", "b"}) ||
		!reflect.DeepEqual(results[1].Features, []string{"a", "c"}) {
		t.Errorf("enumeration not lexicographic: %v, %v", results[0].Features, results[1].Features)
	}
}

func TestExhaustiveSingleSubset(t *testing.T) {
	scorer := &additiveScorer{weights: map[string]float64{}}
	efs := NewExhaustiveFeatureSelector(scorer, 3, 3)
	if err := efs.Fit(context.Background(), []string{"x", "y", "z"}); err != nil {
		t.Fatal(err)
	}
	if got := efs.Results(); len(got) != 1 || !reflect.DeepEqual(got[0].Features, []string{"x", "y", "z"}) {
		t.Errorf("Results() = %+v", got)
	}
}

func TestExhaustiveFeatureSelectorErrors(t *testing.T) {
	scorer := &additiveScorer{weights: map[string]float64{}}
	tests := []struct {
		name     string
		min, max int
		param    string
	}{
		{"zero min", 0, 2, "min_features"},
		{"min above max", 3, 2, "min_features"},
		{"max above candidates", 1, 4, "max_features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewExhaustiveFeatureSelector(scorer, tt.min, tt.max).Fit(context.Background(), []string{"a", "b", "c"})
			var cfg *errors.InvalidConfigurationError
			if !errors.As(err, &cfg) || cfg.Param != tt.param {
				t.Errorf("got %v, want InvalidConfigurationError(%s)", err, tt.param)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewExhaustiveFeatureSelector(scorer, 1, 1).Fit(ctx, []string{"a"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRank(t *testing.T) {
	scores := []SubsetScore{
		{Features: []string{"a"}, AvgScore: 0.7},
		{Features: []string{"b"}, AvgScore: 0.9},
		{Features: []string{"c"}, AvgScore: 0.7},
		{Features: []string{"d"}, AvgScore: 0.95},
		{Features: []string{"e"}, AvgScore: 0.7},
		{Features: []string{"f"}, AvgScore: 0.1},
	}
	ranked := Rank(scores, DefaultTopK)
	if len(ranked) != 4 {
		t.Fatalf("len = %d, want 4", len(ranked))
	}
	wantOrder := []string{"d", "b", "a", "c"}
	for i, r := range ranked {
		if r.Rank != i {
			t.Errorf("ranked[%d].Rank = %d", i, r.Rank)
		}
		if r.Features[0] != wantOrder[i] {
			t.Errorf("ranked[%d] = %v, want %s", i, r.Features, wantOrder[i])
		}
		if i > 0 && r.AvgScore > ranked[i-1].AvgScore {
			t.Errorf("not descending at %d", i)
		}
	}

	if got := Rank(scores[:2], DefaultTopK); len(got) != 2 {
		t.Errorf("fewer than k subsets: len = %d", len(got))
	}
	if got := Rank(scores, 0); len(got) != len(scores) {
		t.Errorf("k = 0 should keep all, got %d", len(got))
	}
}

func separableTable(t *testing.T) (*dataset.Table, []float64) {
	t.Helper()
	n := 20
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		labels[i] = float64(i % 2)
		x1[i] = labels[i]*10 + float64(i)*0.1
		x2[i] = math.Sin(float64(i))
	}
	return mustTable(t,
		dataset.NumericColumn("signal", x1),
		dataset.NumericColumn("noise", x2),
	), labels
}

func TestCVSubsetScorer(t *testing.T) {
	table, labels := separableTable(t)

	t.Run("logistic regression", func(t *testing.T) {
		s, err := NewCVSubsetScorer(table, labels, StandardizedLogisticFactory(), 4, "roc_auc")
		if err != nil {
			t.Fatal(err)
		}
		score, err := s.Score(context.Background(), []string{"signal"})
		if err != nil {
			t.Fatal(err)
		}
		if len(score.CVScores) != 4 {
			t.Errorf("CVScores = %v, want 4 folds", score.CVScores)
		}
		if math.Abs(score.AvgScore-1) > 1e-9 {
			t.Errorf("AvgScore = %v, want 1 on separable data", score.AvgScore)
		}

		clf, err := s.Fit([]string{"signal", "noise"})
		if err != nil {
			t.Fatal(err)
		}
		if got := clf.Classes(); !reflect.DeepEqual(got, []int{0, 1}) {
			t.Errorf("Classes() = %v", got)
		}
	})

	t.Run("logistic regression cv", func(t *testing.T) {
		s, err := NewCVSubsetScorer(table, labels, StandardizedLogisticCVFactory(4), 4, "roc_auc")
		if err != nil {
			t.Fatal(err)
		}
		score, err := s.Score(context.Background(), []string{"signal"})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(score.AvgScore-1) > 1e-9 {
			t.Errorf("AvgScore = %v, want 1 on separable data", score.AvgScore)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		if _, err := NewCVSubsetScorer(table, labels[:3], StandardizedLogisticFactory(), 4, "roc_auc"); err == nil {
			t.Error("label length mismatch should fail")
		}
		if _, err := NewCVSubsetScorer(table, labels, StandardizedLogisticFactory(), 1, "roc_auc"); err == nil {
			t.Error("one fold should fail")
		}
		if _, err := NewCVSubsetScorer(table, labels, StandardizedLogisticFactory(), 4, "r2"); err == nil {
			t.Error("unknown metric should fail")
		}
		s, _ := NewCVSubsetScorer(table, labels, StandardizedLogisticFactory(), 4, "accuracy")
		if _, err := s.Score(context.Background(), nil); err == nil {
			t.Error("empty subset should fail")
		}
		if _, err := s.Score(context.Background(), []string{"missing"}); err == nil {
			t.Error("unknown column should fail")
		}
	})
}
