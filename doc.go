// Package featsel selects a small, predictive subset of columns from a
// tabular binary classification dataset.
//
// A run reads a CSV or XLSX file, splits it into stratified train and test
// partitions, and applies a fixed sequence of stages to the training
// features:
//
//   - drop constant columns (and, optionally, quasi-constant ones)
//   - optionally drop exact duplicate columns
//   - drop non-numeric columns
//   - drop the later column of every highly correlated pair
//   - fill missing values with 0
//   - greedily shortlist columns by cross-validated score
//   - score every subset of the shortlist within a size range and rank them
//
// Each stage records the names it removed; the final output carries those
// records and the best-ranked subsets with their fold scores.
//
// # Quick Start
//
// The featsel command drives a run from a YAML file:
//
//	featsel -config run.yaml -out results.yaml -chart top_models.png
//
// or from Go:
//
//	cfg, err := config.Load("run.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	run, err := pipeline.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := run.Execute(ctx)
//
// # Packages
//
//   - pipeline: stage orchestration, Config and the results record
//   - dataset: in-memory tables, CSV/XLSX readers, label encoding and splits
//   - sklearn/feature_selection: column filters, greedy and exhaustive search
//   - sklearn/linear_model: LogisticRegression and LogisticRegressionCV
//   - sklearn/model_selection: KFold, StratifiedKFold, cross-validation
//   - sklearn/pipeline: scaler-plus-classifier pipelines
//   - preprocessing: StandardScaler and constant imputation
//   - metrics: classification metrics and named scorers
//   - report: YAML/JSON output and top-model charts
//   - pkg/config: YAML file plus FEATSEL_* environment configuration
//   - pkg/errors, pkg/log, pkg/telemetry: errors, structured logs, metrics
//   - core/model, core/parallel: shared interfaces and worker helpers
package featsel
