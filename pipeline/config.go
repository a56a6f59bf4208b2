package pipeline

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/sklearn/feature_selection"
)

// Config holds the parameters of one pipeline run. Field tags give the YAML
// key and the validation rules; the environment variable is FEATSEL_ plus
// the upper-case snake form of the field name, e.g. FEATSEL_TOP_K.
type Config struct {
	DataPath       string   `yaml:"data_path" split_words:"true" json:"data_path" validate:"required"`
	BaseDir        string   `yaml:"base_dir,omitempty" split_words:"true" json:"base_dir,omitempty"`
	LabelColumn    string   `yaml:"label_column" split_words:"true" json:"label_column" validate:"required"`
	FeatureColumns []string `yaml:"feature_columns,omitempty" split_words:"true" json:"feature_columns,omitempty"`

	// ShortlistMaxFeatures is the greedy target size; 0 derives it from the
	// column count.
	ShortlistMaxFeatures int `yaml:"shortlist_max_features" split_words:"true" json:"shortlist_max_features" validate:"gte=0"`
	MaxFeatures          int `yaml:"max_features" split_words:"true" json:"max_features" validate:"gte=1"`
	MinFeatures          int `yaml:"min_features" split_words:"true" json:"min_features" validate:"gte=1"`
	CrossValidationFolds int `yaml:"cross_validation_folds" split_words:"true" json:"cross_validation_folds" validate:"gte=2"`

	ExcludedFeatures []string `yaml:"excluded_features,omitempty" split_words:"true" json:"excluded_features,omitempty"`
	// FixedFeatures is accepted for compatibility and has no effect.
	FixedFeatures []string `yaml:"fixed_features,omitempty" split_words:"true" json:"fixed_features,omitempty"`

	// VarianceThreshold enables the quasi-constant stage when set.
	VarianceThreshold    *float64 `yaml:"variance_threshold,omitempty" split_words:"true" json:"variance_threshold,omitempty" validate:"omitempty,gte=0"`
	ScoringMetric        string   `yaml:"scoring_metric" split_words:"true" json:"scoring_metric" validate:"oneof=roc_auc accuracy f1 precision recall neg_log_loss balanced_accuracy"`
	CorrelationThreshold float64  `yaml:"correlation_threshold" split_words:"true" json:"correlation_threshold" validate:"gte=0,lte=1"`

	DetectDuplicates     bool `yaml:"detect_duplicates" split_words:"true" json:"detect_duplicates"`
	ExhaustiveOnFullData bool `yaml:"exhaustive_on_full_data" split_words:"true" json:"exhaustive_on_full_data"`
	EvaluateHoldout      bool `yaml:"evaluate_holdout" split_words:"true" json:"evaluate_holdout"`

	TopK     int    `yaml:"top_k" split_words:"true" json:"top_k" validate:"gte=1"`
	LogLevel string `yaml:"log_level" split_words:"true" json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
}

// DefaultConfig returns the defaults; DataPath and LabelColumn must still be
// set.
func DefaultConfig() Config {
	return Config{
		MaxFeatures:          3,
		MinFeatures:          1,
		CrossValidationFolds: 5,
		ScoringMetric:        "roc_auc",
		CorrelationThreshold: feature_selection.DefaultCorrelationThreshold,
		TopK:                 feature_selection.DefaultTopK,
		LogLevel:             "info",
	}
}

var validate = newValidator()

// newValidator reports fields by their YAML key.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the field rules and the relations between fields. It
// does not touch the dataset.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewInvalidConfigurationError(fe.Field(),
				"failed rule "+fe.Tag()+" "+fe.Param(), fe.Value())
		}
		return errors.Wrap(err, "config validation")
	}
	if c.MinFeatures > c.MaxFeatures {
		return errors.NewInvalidConfigurationError("min_features", "must not exceed max_features", c.MinFeatures)
	}
	if c.ShortlistMaxFeatures > 0 && c.ShortlistMaxFeatures < c.MinFeatures {
		return errors.NewInvalidConfigurationError("shortlist_max_features", "must be at least min_features", c.ShortlistMaxFeatures)
	}
	return nil
}
