// Package log defines standard attribute keys for feature-selection runs.
//
// Keys follow a dotted naming convention ("pipeline.stage", "data.samples")
// so log lines from every stage can be filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LogisticRegression", "LogisticRegressionCV", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	// Examples: "feature_selection", "model_selection", "dataset"
	ComponentKey = "ml.component"
)

// Pipeline Context
const (
	// RunIDKey is the unique id of one pipeline execution.
	RunIDKey = "pipeline.run_id"

	// StageKey names the pipeline stage.
	// Examples: "constant", "quasi_constant", "correlation", "shortlist"
	StageKey = "pipeline.stage"

	// DroppedKey lists the column names removed by a stage.
	DroppedKey = "features.dropped"

	// FeatureKey names a single column.
	FeatureKey = "features.name"

	// RemainingKey is the number of feature columns left after a stage.
	RemainingKey = "features.remaining"

	// SelectedKey lists the column names selected by a search.
	SelectedKey = "features.selected"

	// SubsetSizeKey is the size of the feature subset being scored.
	SubsetSizeKey = "search.subset_size"

	// SubsetsKey is the number of subsets evaluated by a search.
	SubsetsKey = "search.subsets"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of label classes.
	ClassesKey = "data.classes"

	// PathKey is the resolved dataset path.
	PathKey = "data.path"
)

// Scores and Performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ScoringKey names the scoring metric ("roc_auc", "accuracy", ...).
	ScoringKey = "metrics.scoring"

	// ScoreKey records an average cross-validation score.
	ScoreKey = "metrics.score"

	// FoldsKey records the cross-validation fold count.
	FoldsKey = "cv.folds"

	// IterationKey records the current iteration number of an iterative solver.
	IterationKey = "training.iteration"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information extracted from cockroachdb/errors.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyFeatureSet   = "EMPTY_FEATURE_SET"
	ErrorInvalidConfig     = "INVALID_CONFIGURATION"
	ErrorDatasetNotFound   = "DATASET_NOT_FOUND"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
