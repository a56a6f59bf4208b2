// Package pipeline runs the feature-selection stages in order over one
// dataset: constant, quasi-constant, duplicate, non-numeric and correlation
// filters, missing-value fill, the greedy shortlist and the exhaustive
// subset search with ranking.
package pipeline

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/dataset"
	"github.com/YuminosukeSato/featsel/metrics"
	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/pkg/log"
	"github.com/YuminosukeSato/featsel/pkg/telemetry"
	"github.com/YuminosukeSato/featsel/preprocessing"
	"github.com/YuminosukeSato/featsel/sklearn/feature_selection"
)

// Stage names, used in logs, metrics and result records.
const (
	StageLoad          = "load"
	StageConstant      = "constant"
	StageQuasiConstant = "quasi_constant"
	StageDuplicate     = "duplicate"
	StageNonNumeric    = "non_numeric"
	StageCorrelation   = "correlation"
	StageImpute        = "impute"
	StageShortlist     = "shortlist"
	StageExhaustive    = "exhaustive"
)

// Run is the state of exactly one pipeline execution.
type Run struct {
	ID string

	cfg     Config
	logger  log.Logger
	metrics *telemetry.Metrics

	data      *dataset.Dataset
	working   *dataset.Table
	results   ResultsFeatureSelection
	topModels []TopModel
	executed  bool
}

// Option configures a Run.
type Option func(*Run)

// WithLogger replaces the package logger.
func WithLogger(l log.Logger) Option {
	return func(r *Run) { r.logger = l }
}

// WithMetrics records stage timings and counts into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Run) { r.metrics = m }
}

// WithDataset uses an already loaded dataset instead of reading
// Config.DataPath.
func WithDataset(ds *dataset.Dataset) Option {
	return func(r *Run) { r.data = ds }
}

// New validates cfg and prepares a run. Invalid configurations fail here,
// before any data is read.
func New(cfg Config, opts ...Option) (*Run, error) {
	r := &Run{ID: uuid.NewString()}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("pipeline")
	}
	r.logger = r.logger.With(log.RunIDKey, r.ID)

	if r.data != nil && cfg.DataPath == "" {
		cfg.DataPath = r.data.Path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ShortlistMaxFeatures > 0 && cfg.ShortlistMaxFeatures < cfg.MaxFeatures {
		r.logger.Warn("max_features exceeds shortlist size; clamping",
			"max_features", cfg.MaxFeatures,
			"shortlist_max_features", cfg.ShortlistMaxFeatures,
		)
		cfg.MaxFeatures = cfg.ShortlistMaxFeatures
	}
	if len(cfg.FixedFeatures) > 0 {
		r.logger.Warn("fixed_features is not used by any stage", "fixed_features", cfg.FixedFeatures)
	}
	r.cfg = cfg
	return r, nil
}

// Config returns the effective configuration after clamping.
func (r *Run) Config() Config { return r.cfg }

type stage struct {
	name string
	fn   func(ctx context.Context) error
}

// Execute runs every stage. Any failure aborts the run and no partial output
// is returned. A Run executes once.
func (r *Run) Execute(ctx context.Context) (out *Output, err error) {
	defer errors.Recover(&err, "pipeline.Execute")

	if r.executed {
		return nil, errors.NewValueError("Run.Execute", "run already executed; create a new Run")
	}
	r.executed = true

	stages := []stage{
		{StageLoad, r.load},
		{StageConstant, r.constant},
		{StageQuasiConstant, r.quasiConstant},
		{StageDuplicate, r.duplicates},
		{StageNonNumeric, r.nonNumeric},
		{StageCorrelation, r.correlation},
		{StageImpute, r.impute},
		{StageShortlist, r.shortlist},
		{StageExhaustive, r.exhaustive},
	}

	start := time.Now()
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "pipeline cancelled before %s", s.name)
		}
		t0 := time.Now()
		if err := s.fn(ctx); err != nil {
			r.logger.Error("Stage failed", log.StageKey, s.name, "error", err)
			return nil, errors.Wrapf(err, "stage %s", s.name)
		}
		r.metrics.ObserveStage(s.name, time.Since(t0))
	}

	r.logger.Info("Pipeline finished",
		log.DurationMsKey, time.Since(start).Milliseconds(),
		log.SelectedKey, r.results.ShortlistedFeatures,
	)
	return &Output{
		RunID:     r.ID,
		Scoring:   r.cfg.ScoringMetric,
		Results:   r.results,
		TopModels: r.topModels,
	}, nil
}

func (r *Run) load(ctx context.Context) error {
	if r.data == nil {
		ds, err := dataset.Load(ctx, dataset.Options{
			Path:             r.cfg.DataPath,
			BaseDir:          r.cfg.BaseDir,
			LabelColumn:      r.cfg.LabelColumn,
			FeatureColumns:   r.cfg.FeatureColumns,
			ExcludedFeatures: r.cfg.ExcludedFeatures,
		})
		if err != nil {
			return err
		}
		r.data = ds
	}

	if n := r.data.Split.TrainFeatures.Rows(); n < r.cfg.CrossValidationFolds {
		return errors.NewInvalidConfigurationError("cross_validation_folds",
			"exceeds the number of training rows", r.cfg.CrossValidationFolds)
	}
	r.working = r.data.Split.TrainFeatures.Clone()
	r.logger.Info("Dataset ready",
		log.SamplesKey, r.working.Rows(),
		log.FeaturesKey, r.working.Width(),
		log.ClassesKey, r.data.NClasses(),
	)
	return nil
}

// applyFilter fits f on the working table, narrows it and records the
// dropped columns for stage.
func (r *Run) applyFilter(ctx context.Context, stage string, f feature_selection.Filter) error {
	var next *dataset.Table
	var err error
	if cf, ok := f.(*feature_selection.CorrelationFilter); ok {
		if err = cf.FitContext(ctx, r.working); err == nil {
			next, err = cf.Transform(r.working)
		}
	} else {
		next, err = feature_selection.FitTransform(f, r.working)
	}
	if err != nil {
		return err
	}
	dropped := f.Dropped()
	if err := r.results.Record(stage, dropped); err != nil {
		return err
	}
	r.metrics.AddDropped(stage, len(dropped))
	r.logger.Info("Columns dropped",
		log.StageKey, stage,
		log.DroppedKey, dropped,
		log.RemainingKey, next.Width(),
	)
	if next.Width() == 0 {
		return errors.NewEmptyFeatureSetError(stage, 0, 1)
	}
	r.working = next
	return nil
}

func (r *Run) constant(ctx context.Context) error {
	return r.applyFilter(ctx, StageConstant, feature_selection.NewConstantFilter())
}

func (r *Run) quasiConstant(ctx context.Context) error {
	if r.cfg.VarianceThreshold == nil {
		return nil
	}
	f := feature_selection.NewVarianceThreshold(*r.cfg.VarianceThreshold)
	names := r.working.Names()
	err := r.applyFilter(ctx, StageQuasiConstant, f)
	if variances := f.Variances(); len(variances) == len(names) {
		for i, name := range names {
			if !math.IsNaN(variances[i]) && variances[i] <= f.Threshold {
				r.logger.Debug("Quasi-constant column",
					log.StageKey, StageQuasiConstant, log.FeatureKey, name, "variance", variances[i])
			}
		}
	}
	return err
}

func (r *Run) duplicates(ctx context.Context) error {
	if !r.cfg.DetectDuplicates {
		return nil
	}
	f := feature_selection.NewDuplicateFilter()
	err := r.applyFilter(ctx, StageDuplicate, f)
	for _, name := range r.results.DuplicatedFeatures {
		if orig, ok := f.DuplicateOf(name); ok {
			r.logger.Debug("Duplicate column",
				log.StageKey, StageDuplicate, log.FeatureKey, name, "duplicate_of", orig)
		}
	}
	return err
}

func (r *Run) nonNumeric(ctx context.Context) error {
	return r.applyFilter(ctx, StageNonNumeric, feature_selection.NewNumericFilter())
}

func (r *Run) correlation(ctx context.Context) error {
	return r.applyFilter(ctx, StageCorrelation, feature_selection.NewCorrelationFilter(r.cfg.CorrelationThreshold))
}

func (r *Run) impute(context.Context) error {
	filled, n := preprocessing.NewConstantImputer(0).FillTable(r.working)
	r.working = filled
	r.logger.Debug("Missing values filled", log.StageKey, StageImpute, "filled", n)
	return nil
}

func (r *Run) shortlist(ctx context.Context) error {
	target := r.cfg.ShortlistMaxFeatures
	if target == 0 {
		target = feature_selection.ShortlistBreadth(0, r.working.Width())
		if target < r.cfg.MinFeatures {
			return errors.NewInvalidConfigurationError("min_features",
				"exceeds the derived shortlist size", r.cfg.MinFeatures)
		}
		if target < r.cfg.MaxFeatures {
			r.logger.Warn("max_features exceeds derived shortlist size; clamping",
				"max_features", r.cfg.MaxFeatures, "shortlist", target)
			r.cfg.MaxFeatures = target
		}
	}
	factory := feature_selection.StandardizedLogisticFactory()
	r.logger.Debug("Shortlist search",
		"breadth", feature_selection.ShortlistBreadth(r.cfg.ShortlistMaxFeatures, r.working.Width()),
		"target", target,
		"estimator", estimatorParams(factory),
	)

	scorer, err := feature_selection.NewCVSubsetScorer(r.working, r.data.Split.TrainLabels,
		factory, r.cfg.CrossValidationFolds, r.cfg.ScoringMetric)
	if err != nil {
		return err
	}
	sfs := feature_selection.NewSequentialFeatureSelector(countingScorer{scorer, r.metrics, "sequential"}, target)
	if err := sfs.Fit(ctx, r.working.Names()); err != nil {
		return err
	}
	selected := sfs.Selected()
	if err := r.results.Record(StageShortlist, selected); err != nil {
		return err
	}
	r.logger.Info("Shortlist selected", log.StageKey, StageShortlist, log.SelectedKey, selected)
	return nil
}

func (r *Run) exhaustive(ctx context.Context) error {
	shortlisted := r.results.ShortlistedFeatures

	table, labels := r.working, r.data.Split.TrainLabels
	if r.cfg.ExhaustiveOnFullData {
		table, labels = r.data.Features, r.data.Labels
	}
	table, err := table.Select(shortlisted)
	if err != nil {
		return err
	}
	table, _ = preprocessing.NewConstantImputer(0).FillTable(table)

	scorer, err := feature_selection.NewCVSubsetScorer(table, labels,
		feature_selection.StandardizedLogisticCVFactory(r.cfg.CrossValidationFolds),
		r.cfg.CrossValidationFolds, r.cfg.ScoringMetric)
	if err != nil {
		return err
	}
	efs := feature_selection.NewExhaustiveFeatureSelector(scorer, r.cfg.MinFeatures, r.cfg.MaxFeatures)
	efs.OnSubset = func(feature_selection.SubsetScore) { r.metrics.IncSubsets("exhaustive") }
	r.logger.Info("Exhaustive search",
		log.SubsetsKey, feature_selection.NumSubsets(len(shortlisted), r.cfg.MinFeatures, r.cfg.MaxFeatures),
		log.ScoringKey, r.cfg.ScoringMetric,
		log.FoldsKey, r.cfg.CrossValidationFolds,
	)
	if err := efs.Fit(ctx, shortlisted); err != nil {
		return err
	}

	ranked := feature_selection.Rank(efs.Results(), r.cfg.TopK)
	r.topModels = make([]TopModel, len(ranked))
	for i, m := range ranked {
		r.topModels[i] = TopModel{
			SelectedFeatures: m.Features,
			CVScores:         m.CVScores,
			AvgScore:         m.AvgScore,
			Rank:             m.Rank,
		}
	}
	if r.cfg.EvaluateHoldout {
		if err := r.holdout(); err != nil {
			return err
		}
	}
	if len(r.topModels) > 0 {
		r.logger.Info("Best model",
			log.SelectedKey, r.topModels[0].SelectedFeatures,
			log.ScoreKey, r.topModels[0].AvgScore,
		)
	}
	return nil
}

// holdout refits each top model on the training partition and scores it on
// the test partition.
func (r *Run) holdout() error {
	split := r.data.Split
	if split.TestFeatures == nil || split.TestFeatures.Rows() == 0 {
		r.logger.Warn("Holdout skipped: empty test partition")
		return nil
	}
	scorer, err := metrics.GetScorer(r.cfg.ScoringMetric)
	if err != nil {
		return err
	}
	train, err := feature_selection.NewCVSubsetScorer(r.working, split.TrainLabels,
		feature_selection.StandardizedLogisticCVFactory(r.cfg.CrossValidationFolds),
		r.cfg.CrossValidationFolds, r.cfg.ScoringMetric)
	if err != nil {
		return err
	}
	test, _ := preprocessing.NewConstantImputer(0).FillTable(split.TestFeatures)
	yTest := labelMatrix(split.TestLabels)

	for i := range r.topModels {
		features := r.topModels[i].SelectedFeatures
		clf, err := train.Fit(features)
		if err != nil {
			return errors.Wrapf(err, "holdout fit %v", features)
		}
		X, err := test.Matrix(features)
		if err != nil {
			return err
		}
		score, err := scorer.Score(clf, X, yTest)
		if err != nil {
			return errors.Wrapf(err, "holdout score %v", features)
		}
		r.topModels[i].HoldoutScore = &score
	}
	return nil
}

// countingScorer counts every scored subset.
type countingScorer struct {
	feature_selection.SubsetScorer
	metrics *telemetry.Metrics
	search  string
}

func (c countingScorer) Score(ctx context.Context, features []string) (feature_selection.SubsetScore, error) {
	s, err := c.SubsetScorer.Score(ctx, features)
	if err == nil {
		c.metrics.IncSubsets(c.search)
	}
	return s, err
}

func labelMatrix(labels []float64) *mat.Dense {
	return mat.NewDense(len(labels), 1, append([]float64(nil), labels...))
}

// estimatorParams describes the estimator a factory builds, for debug logs.
func estimatorParams(factory model.ClassifierFactory) map[string]interface{} {
	if g, ok := factory().(model.ParameterGetter); ok {
		return g.GetParams()
	}
	return nil
}
