package feature_selection

import (
	"context"
	"math"

	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/pkg/log"
)

// MaxShortlistBreadth caps the candidate breadth when a shortlist size is
// given.
const MaxShortlistBreadth = 15

// ShortlistBreadth returns the greedy search width: min(shortlist, 15) when
// shortlist > 0, else round(sqrt(nColumns)), never below 1.
func ShortlistBreadth(shortlist, nColumns int) int {
	var b int
	if shortlist > 0 {
		b = shortlist
		if b > MaxShortlistBreadth {
			b = MaxShortlistBreadth
		}
	} else {
		b = int(math.Round(math.Sqrt(float64(nColumns))))
	}
	if b < 1 {
		b = 1
	}
	return b
}

// SequentialFeatureSelector is a forward greedy wrapper search. Starting from
// the empty set it repeatedly adds the candidate whose union with the current
// selection scores best, the earliest candidate winning ties, until
// NFeatures columns are selected.
//
// The result always has exactly NFeatures names even when a smaller
// intermediate subset scored higher.
type SequentialFeatureSelector struct {
	Scorer    SubsetScorer
	NFeatures int

	selected []string
	history  []SubsetScore
	logger   log.Logger
}

// NewSequentialFeatureSelector creates a forward selector.
func NewSequentialFeatureSelector(scorer SubsetScorer, nFeatures int) *SequentialFeatureSelector {
	return &SequentialFeatureSelector{
		Scorer:    scorer,
		NFeatures: nFeatures,
		logger:    log.GetLoggerWithName("SequentialFeatureSelector"),
	}
}

// Fit runs the search over candidates, which are visited in the given order.
func (s *SequentialFeatureSelector) Fit(ctx context.Context, candidates []string) error {
	if s.NFeatures < 1 {
		return errors.NewInvalidConfigurationError("shortlist_max_features", "must be at least 1", s.NFeatures)
	}
	if len(candidates) < s.NFeatures {
		return errors.NewEmptyFeatureSetError("shortlist", len(candidates), s.NFeatures)
	}

	s.selected = nil
	s.history = nil
	used := make([]bool, len(candidates))
	for len(s.selected) < s.NFeatures {
		bestIdx := -1
		var best SubsetScore
		for i, name := range candidates {
			if used[i] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "sequential selection")
			}
			subset := append(append([]string(nil), s.selected...), name)
			score, err := s.Scorer.Score(ctx, subset)
			if err != nil {
				return err
			}
			if bestIdx < 0 || score.AvgScore > best.AvgScore {
				bestIdx, best = i, score
			}
		}
		used[bestIdx] = true
		s.selected = append(s.selected, candidates[bestIdx])
		s.history = append(s.history, best)
		s.logger.Debug("Feature added",
			log.SelectedKey, candidates[bestIdx],
			log.SubsetSizeKey, len(s.selected),
			log.ScoreKey, best.AvgScore,
		)
	}
	return nil
}

// Selected returns the selected names in order of selection.
func (s *SequentialFeatureSelector) Selected() []string {
	return append([]string(nil), s.selected...)
}

// History returns the best subset score after each step; History()[k] is the
// subset of size k+1.
func (s *SequentialFeatureSelector) History() []SubsetScore {
	return append([]SubsetScore(nil), s.history...)
}
