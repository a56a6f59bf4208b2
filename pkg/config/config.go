// Package config loads a pipeline.Config from a YAML file and FEATSEL_*
// environment variables.
package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/YuminosukeSato/featsel/pipeline"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. FEATSEL_DATA_PATH.
const EnvPrefix = "FEATSEL"

// Load starts from pipeline.DefaultConfig, applies the YAML file at path
// (skipped when path is empty), then environment overrides, and validates
// the result.
func Load(path string) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return pipeline.Config{}, errors.Wrapf(err, "read config %s", path)
		}
		if err := Parse(data, &cfg); err != nil {
			return pipeline.Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return pipeline.Config{}, errors.Wrap(err, "environment overrides")
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from the document keep their
// current values; unknown keys are rejected.
func Parse(data []byte, cfg *pipeline.Config) error {
	return yaml.UnmarshalStrict(data, cfg)
}

// Marshal renders cfg as YAML, e.g. to echo the effective configuration.
func Marshal(cfg pipeline.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
