// Command featsel runs the feature-selection pipeline described by a YAML
// config file and writes the selected features and ranked models.
//
//	featsel -config run.yaml [-out results.yaml] [-format yaml|json]
//	        [-chart top_models.png] [-metrics-file metrics.prom] [-log-level info]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/featsel/pipeline"
	"github.com/YuminosukeSato/featsel/pkg/config"
	"github.com/YuminosukeSato/featsel/pkg/log"
	"github.com/YuminosukeSato/featsel/pkg/telemetry"
	"github.com/YuminosukeSato/featsel/report"
)

type options struct {
	configPath  string
	outPath     string
	format      string
	chartPath   string
	metricsPath string
	logLevel    string
	logFormat   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("featsel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to the YAML run configuration")
	fs.StringVar(&o.outPath, "out", "", "write results to this file instead of stdout")
	fs.StringVar(&o.format, "format", "", "output format: yaml or json (default from -out extension, else yaml)")
	fs.StringVar(&o.chartPath, "chart", "", "save a bar chart of the top models (.png, .svg, .pdf)")
	fs.StringVar(&o.metricsPath, "metrics-file", "", "write Prometheus metrics in text format to this file")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (overrides log_level in the config)")
	fs.StringVar(&o.logFormat, "log-format", "console", "log format: console or json")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.configPath == "" && os.Getenv(config.EnvPrefix+"_DATA_PATH") == "" {
		return o, fmt.Errorf("-config is required unless %s_DATA_PATH is set", config.EnvPrefix)
	}
	return o, nil
}

func run(ctx context.Context, o options, stdout, stderr io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	levelName := cfg.LogLevel
	if o.logLevel != "" {
		levelName = o.logLevel
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return err
	}
	log.Setup(stderr, level, o.logFormat)
	logger := log.GetLoggerWithName("featsel")

	var metrics *telemetry.Metrics
	if o.metricsPath != "" {
		metrics = telemetry.New()
	}

	r, err := pipeline.New(cfg, pipeline.WithMetrics(metrics))
	if err != nil {
		return err
	}
	out, err := r.Execute(ctx)
	if err != nil {
		return err
	}

	if o.outPath != "" {
		if err := report.WriteFile(o.outPath, out, o.format); err != nil {
			return err
		}
		logger.Info("Results written", log.PathKey, o.outPath)
	} else if err := report.Write(stdout, out, o.format); err != nil {
		return err
	}

	if o.chartPath != "" && len(out.TopModels) > 0 {
		if err := report.Chart(out, o.chartPath); err != nil {
			return err
		}
		logger.Info("Chart written", log.PathKey, o.chartPath)
	}
	if metrics != nil {
		if err := metrics.WriteToTextfile(o.metricsPath); err != nil {
			return err
		}
		logger.Info("Metrics written", log.PathKey, o.metricsPath)
	}
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, "featsel:", err)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout, os.Stderr); err != nil {
		log.GetLogger().Error("featsel failed", "error", err)
		stop()
		os.Exit(1)
	}
}
