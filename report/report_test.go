package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/featsel/pipeline"
)

func sampleOutput() *pipeline.Output {
	holdout := 0.8
	return &pipeline.Output{
		RunID:   "run-1",
		Scoring: "roc_auc",
		Results: pipeline.ResultsFeatureSelection{
			ConstantFeatures:    []string{"A"},
			NonNumericColumns:   []string{"D"},
			CorrelatedFeatures:  []string{},
			ShortlistedFeatures: []string{"B", "E"},
		},
		TopModels: []pipeline.TopModel{
			{SelectedFeatures: []string{"B", "E"}, CVScores: []float64{0.9, 0.7}, AvgScore: 0.8, Rank: 0, HoldoutScore: &holdout},
			{SelectedFeatures: []string{"B"}, CVScores: []float64{0.6, 0.6}, AvgScore: 0.6, Rank: 1},
		},
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleOutput(), FormatYAML))

	text := buf.String()
	assert.Contains(t, text, "run_id: run-1")
	assert.Contains(t, text, "constant_features:")
	assert.Contains(t, text, "- A")
	assert.Contains(t, text, "holdout_score: 0.8")

	back, err := Read(strings.NewReader(text), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, sampleOutput().TopModels, back.TopModels)
	assert.Equal(t, []string{"B", "E"}, back.Results.ShortlistedFeatures)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleOutput(), FormatJSON))

	text := buf.String()
	assert.Contains(t, text, `"quasi_constant_features": null`, "stages that did not run stay null")
	assert.Contains(t, text, `"correlated_features": []`)

	back, err := Read(strings.NewReader(text), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, sampleOutput(), back)
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, sampleOutput(), "toml"))
	assert.Error(t, Write(&buf, nil, FormatJSON))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "results.json")
	require.NoError(t, WriteFile(path, sampleOutput(), ""))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	back, err := Read(f, FormatFromPath(path))
	require.NoError(t, err)
	assert.Equal(t, "run-1", back.RunID)

	assert.Equal(t, FormatYAML, FormatFromPath("out.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("OUT.JSON"))
}

func TestChart(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"top.png", "top.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Chart(sampleOutput(), path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	assert.Error(t, Chart(&pipeline.Output{}, filepath.Join(dir, "empty.png")))
}
