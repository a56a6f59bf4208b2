package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/pkg/log"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.DataPath = "train.csv"
	cfg.LabelColumn = "target"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	negative := -0.5
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"missing data path", func(c *Config) { c.DataPath = "" }, "data_path"},
		{"missing label", func(c *Config) { c.LabelColumn = "" }, "label_column"},
		{"one fold", func(c *Config) { c.CrossValidationFolds = 1 }, "cross_validation_folds"},
		{"zero min", func(c *Config) { c.MinFeatures = 0 }, "min_features"},
		{"min above max", func(c *Config) { c.MinFeatures, c.MaxFeatures = 3, 2 }, "min_features"},
		{"shortlist below min", func(c *Config) { c.ShortlistMaxFeatures, c.MinFeatures = 1, 2 }, "shortlist_max_features"},
		{"unknown metric", func(c *Config) { c.ScoringMetric = "r2" }, "scoring_metric"},
		{"negative variance", func(c *Config) { c.VarianceThreshold = &negative }, "variance_threshold"},
		{"correlation above one", func(c *Config) { c.CorrelationThreshold = 1.5 }, "correlation_threshold"},
		{"zero top k", func(c *Config) { c.TopK = 0 }, "top_k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *errors.InvalidConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.param, cfgErr.Param)
		})
	}

	assert.NoError(t, validConfig().Validate())
}

func TestNewClampsAndWarns(t *testing.T) {
	cfg := validConfig()
	cfg.ShortlistMaxFeatures = 2
	cfg.MaxFeatures = 4
	cfg.FixedFeatures = []string{"x"}

	logger, _ := log.NewTestLogger(log.LevelWarn)
	run, err := New(cfg, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, 2, run.Config().MaxFeatures)
	assert.True(t, logger.ContainsMessage("clamping"))
	assert.True(t, logger.ContainsMessage("fixed_features"))
	assert.NotEmpty(t, run.ID)

	other, err := New(cfg, WithLogger(logger))
	require.NoError(t, err)
	assert.NotEqual(t, run.ID, other.ID)
}

func TestNewFailsFast(t *testing.T) {
	cfg := validConfig()
	cfg.MinFeatures = 5
	_, err := New(cfg)
	var cfgErr *errors.InvalidConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestResultsRecordWriteOnce(t *testing.T) {
	var r ResultsFeatureSelection
	require.NoError(t, r.Record(StageConstant, nil))
	assert.NotNil(t, r.ConstantFeatures, "a recorded stage is non-nil even when empty")

	err := r.Record(StageConstant, []string{"a"})
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
	assert.Empty(t, r.ConstantFeatures)

	assert.Error(t, r.Record(StageImpute, nil), "impute has no result field")
	require.NoError(t, r.Record(StageShortlist, []string{"b", "a"}))
	assert.Equal(t, []string{"b", "a"}, r.ShortlistedFeatures)
}
