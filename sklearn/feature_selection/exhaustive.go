package feature_selection

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/pkg/log"
)

// DefaultTopK is the number of ranked models kept after exhaustive search.
const DefaultTopK = 4

// ExhaustiveFeatureSelector scores every subset of the candidate columns
// whose size lies in [MinFeatures, MaxFeatures]. Subsets are enumerated by
// ascending size, then in lexicographic order of candidate index, each
// exactly once.
type ExhaustiveFeatureSelector struct {
	Scorer      SubsetScorer
	MinFeatures int
	MaxFeatures int
	// OnSubset, when set, is called after each subset is scored.
	OnSubset func(SubsetScore)

	results []SubsetScore
	logger  log.Logger
}

// NewExhaustiveFeatureSelector creates an exhaustive search.
func NewExhaustiveFeatureSelector(scorer SubsetScorer, minFeatures, maxFeatures int) *ExhaustiveFeatureSelector {
	return &ExhaustiveFeatureSelector{
		Scorer:      scorer,
		MinFeatures: minFeatures,
		MaxFeatures: maxFeatures,
		logger:      log.GetLoggerWithName("ExhaustiveFeatureSelector"),
	}
}

// NumSubsets returns how many subsets of n candidates have a size in
// [minSize, maxSize].
func NumSubsets(n, minSize, maxSize int) int {
	total := 0
	for k := minSize; k <= maxSize && k <= n; k++ {
		if k < 1 {
			continue
		}
		total += combin.Binomial(n, k)
	}
	return total
}

// Fit scores all subsets of candidates. Cancellation is checked between
// subsets.
func (e *ExhaustiveFeatureSelector) Fit(ctx context.Context, candidates []string) error {
	switch {
	case e.MinFeatures < 1:
		return errors.NewInvalidConfigurationError("min_features", "must be at least 1", e.MinFeatures)
	case e.MinFeatures > e.MaxFeatures:
		return errors.NewInvalidConfigurationError("min_features", "must not exceed max_features", e.MinFeatures)
	case e.MaxFeatures > len(candidates):
		return errors.NewInvalidConfigurationError("max_features", "exceeds the number of candidate features", e.MaxFeatures)
	}

	e.results = make([]SubsetScore, 0, NumSubsets(len(candidates), e.MinFeatures, e.MaxFeatures))
	for k := e.MinFeatures; k <= e.MaxFeatures; k++ {
		gen := combin.NewCombinationGenerator(len(candidates), k)
		idx := make([]int, k)
		for gen.Next() {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "exhaustive search")
			}
			gen.Combination(idx)
			subset := make([]string, k)
			for i, c := range idx {
				subset[i] = candidates[c]
			}
			score, err := e.Scorer.Score(ctx, subset)
			if err != nil {
				return err
			}
			e.results = append(e.results, score)
			if e.OnSubset != nil {
				e.OnSubset(score)
			}
		}
	}
	e.logger.Info("Exhaustive search finished",
		log.SubsetsKey, len(e.results),
		log.FeaturesKey, len(candidates),
	)
	return nil
}

// Results returns every scored subset in enumeration order.
func (e *ExhaustiveFeatureSelector) Results() []SubsetScore {
	return append([]SubsetScore(nil), e.results...)
}

// RankedSubset is a subset score with its position in the ranking.
type RankedSubset struct {
	SubsetScore
	Rank int
}

// Rank stable-sorts scores by descending average (equal averages keep their
// input order) and returns the first k with Rank set to their position.
// k <= 0 returns all.
func Rank(scores []SubsetScore, k int) []RankedSubset {
	sorted := append([]SubsetScore(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvgScore > sorted[j].AvgScore
	})
	if k > 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	out := make([]RankedSubset, len(sorted))
	for i, s := range sorted {
		out[i] = RankedSubset{SubsetScore: s, Rank: i}
	}
	return out
}
