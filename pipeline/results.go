package pipeline

import (
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// ResultsFeatureSelection records the columns each stage removed or kept.
// A nil field means the stage did not run; each field is written at most
// once per run.
type ResultsFeatureSelection struct {
	ConstantFeatures      []string `yaml:"constant_features" json:"constant_features"`
	QuasiConstantFeatures []string `yaml:"quasi_constant_features" json:"quasi_constant_features"`
	NonNumericColumns     []string `yaml:"non_numeric_columns" json:"non_numeric_columns"`
	CorrelatedFeatures    []string `yaml:"correlated_features" json:"correlated_features"`
	DuplicatedFeatures    []string `yaml:"duplicated_features" json:"duplicated_features"`
	ShortlistedFeatures   []string `yaml:"shortlisted_features" json:"shortlisted_features"`
}

func (r *ResultsFeatureSelection) field(stage string) (*[]string, error) {
	switch stage {
	case StageConstant:
		return &r.ConstantFeatures, nil
	case StageQuasiConstant:
		return &r.QuasiConstantFeatures, nil
	case StageNonNumeric:
		return &r.NonNumericColumns, nil
	case StageCorrelation:
		return &r.CorrelatedFeatures, nil
	case StageDuplicate:
		return &r.DuplicatedFeatures, nil
	case StageShortlist:
		return &r.ShortlistedFeatures, nil
	}
	return nil, errors.NewValueError("ResultsFeatureSelection", "no result field for stage "+stage)
}

// Record stores names for stage. Recording a stage twice is an error.
func (r *ResultsFeatureSelection) Record(stage string, names []string) error {
	f, err := r.field(stage)
	if err != nil {
		return err
	}
	if *f != nil {
		return errors.NewValueError("ResultsFeatureSelection.Record", "stage "+stage+" already recorded")
	}
	*f = append([]string{}, names...)
	return nil
}

// TopModel is one ranked feature subset from the exhaustive search.
type TopModel struct {
	SelectedFeatures []string  `yaml:"selected_features" json:"selected_features"`
	CVScores         []float64 `yaml:"cv_scores" json:"cv_scores"`
	AvgScore         float64   `yaml:"avg_score" json:"avg_score"`
	// Rank is the position after sorting, 0 for the best model.
	Rank int `yaml:"rank" json:"rank"`
	// HoldoutScore is the score on the test partition when holdout
	// evaluation is enabled.
	HoldoutScore *float64 `yaml:"holdout_score,omitempty" json:"holdout_score,omitempty"`
}

// Output is everything one run produces.
type Output struct {
	RunID     string                  `yaml:"run_id" json:"run_id"`
	Scoring   string                  `yaml:"scoring" json:"scoring"`
	Results   ResultsFeatureSelection `yaml:"results" json:"results"`
	TopModels []TopModel              `yaml:"top_models" json:"top_models"`
}
