// Package report writes pipeline output as YAML or JSON and draws the top
// models' cross-validation scores as a bar chart.
package report

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v2"

	"github.com/YuminosukeSato/featsel/pipeline"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// Supported output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatFromPath picks the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Write encodes out to w.
func Write(w io.Writer, out *pipeline.Output, format string) error {
	if out == nil {
		return errors.NewValueError("report.Write", "nil output")
	}
	switch strings.ToLower(format) {
	case FormatYAML, "yml", "":
		data, err := yaml.Marshal(out)
		if err != nil {
			return errors.Wrap(err, "report: yaml")
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(out), "report: json")
	}
	return errors.NewInvalidConfigurationError("format", "must be yaml or json", format)
}

// WriteFile writes out to path, creating parent directories.
func WriteFile(path string, out *pipeline.Output, format string) (err error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "report: mkdir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "report: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, out, format)
}

// Read decodes a YAML or JSON report.
func Read(r io.Reader, format string) (*pipeline.Output, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var out pipeline.Output
	if strings.ToLower(format) == FormatJSON {
		err = json.Unmarshal(data, &out)
	} else {
		err = yaml.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, errors.Wrap(err, "report: decode")
	}
	return &out, nil
}

// errorPoints pairs bar positions with their error extents.
type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

// Chart draws one bar per top model (average score) with the population
// standard deviation of its fold scores as error bars, and saves it to
// path. The file extension selects the image format (.png, .svg, .pdf).
func Chart(out *pipeline.Output, path string) error {
	if out == nil || len(out.TopModels) == 0 {
		return errors.NewValueError("report.Chart", "no top models to plot")
	}

	n := len(out.TopModels)
	values := make(plotter.Values, n)
	points := errorPoints{XYs: make(plotter.XYs, n), YErrors: make(plotter.YErrors, n)}
	labels := make([]string, n)
	for i, m := range out.TopModels {
		values[i] = m.AvgScore
		sd := 0.0
		if len(m.CVScores) > 1 {
			sd = math.Sqrt(stat.PopVariance(m.CVScores, nil))
		}
		points.XYs[i] = plotter.XY{X: float64(i), Y: m.AvgScore}
		points.YErrors[i].Low, points.YErrors[i].High = sd, sd
		labels[i] = strings.Join(m.SelectedFeatures, "+")
	}

	p := plot.New()
	p.Title.Text = "Top models"
	p.Y.Label.Text = "CV " + out.Scoring
	p.X.Label.Text = "features"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return errors.Wrap(err, "report: bars")
	}
	p.Add(bars)

	errBars, err := plotter.NewYErrorBars(points)
	if err != nil {
		return errors.Wrap(err, "report: error bars")
	}
	p.Add(errBars)
	p.NominalX(labels...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "report: mkdir for %s", path)
	}
	width := vg.Length(2+n) * vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "report: save %s", path)
	}
	return nil
}
