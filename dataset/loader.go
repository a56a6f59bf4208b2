package dataset

import (
	"context"

	"github.com/YuminosukeSato/featsel/pkg/errors"
	"github.com/YuminosukeSato/featsel/pkg/log"
	"github.com/YuminosukeSato/featsel/sklearn/model_selection"
)

// Options controls how a dataset is located, trimmed and split.
type Options struct {
	Path        string
	BaseDir     string
	LabelColumn string
	// FeatureColumns, when non-empty, restricts the features to this list.
	FeatureColumns []string
	// ExcludedFeatures are dropped after the allow-list is applied.
	ExcludedFeatures []string
	// TestSize and Seed default to 0.2 and 41.
	TestSize float64
	Seed     int64
}

// Split is a stratified row partition of a dataset.
type Split struct {
	TrainFeatures *Table
	TestFeatures  *Table
	TrainLabels   []float64
	TestLabels    []float64
	TrainRows     []int
	TestRows      []int
}

// Dataset is a loaded feature table with encoded labels and its split.
type Dataset struct {
	// Path is the resolved file, empty for in-memory tables.
	Path string
	// Features holds every feature column for all rows.
	Features *Table
	// Labels are class indices 0..K-1 aligned with Features.
	Labels []float64
	// ClassNames[k] is the original value of class k.
	ClassNames []string
	Split      Split
}

// NClasses returns the number of distinct labels.
func (d *Dataset) NClasses() int { return len(d.ClassNames) }

// Load resolves opts.Path, reads it and builds the dataset.
func Load(ctx context.Context, opts Options) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := log.GetLoggerWithName("dataset")

	path, err := ResolvePath(opts.Path, opts.BaseDir)
	if err != nil {
		return nil, err
	}
	table, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	ds, err := FromTable(table, opts)
	if err != nil {
		return nil, err
	}
	ds.Path = path

	logger.Info("dataset loaded",
		log.PathKey, path,
		log.SamplesKey, ds.Features.Rows(),
		log.FeaturesKey, ds.Features.Width(),
		log.ClassesKey, ds.NClasses(),
	)
	return ds, nil
}

// FromTable separates the label column from table, applies the column
// allow-list and exclusions, encodes the labels and splits the rows.
func FromTable(table *Table, opts Options) (*Dataset, error) {
	labelCol, ok := table.Column(opts.LabelColumn)
	if !ok {
		return nil, errors.NewInvalidConfigurationError("label_column", "column not found in dataset", opts.LabelColumn)
	}
	labels, classNames, err := encodeLabels(labelCol)
	if err != nil {
		return nil, err
	}
	if len(classNames) < 2 {
		return nil, errors.Wrapf(errors.ErrSingleClass, "label column %q", opts.LabelColumn)
	}

	features := table.Drop([]string{opts.LabelColumn})
	if len(opts.FeatureColumns) > 0 {
		keep := make([]string, 0, len(opts.FeatureColumns))
		for _, name := range opts.FeatureColumns {
			if name == opts.LabelColumn {
				continue
			}
			if !features.Has(name) {
				return nil, errors.NewInvalidConfigurationError("feature_columns", "column not found in dataset", name)
			}
			keep = append(keep, name)
		}
		if features, err = features.Select(keep); err != nil {
			return nil, err
		}
	}
	features = features.Drop(opts.ExcludedFeatures)
	if features.Width() == 0 {
		return nil, errors.NewEmptyFeatureSetError("load", 0, 1)
	}

	testSize := opts.TestSize
	if testSize == 0 {
		testSize = model_selection.DefaultTestSize
	}
	seed := opts.Seed
	if seed == 0 {
		seed = model_selection.DefaultSplitSeed
	}
	trainRows, testRows, err := model_selection.StratifiedTrainTestSplit(labels, testSize, seed)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Features:   features,
		Labels:     labels,
		ClassNames: classNames,
		Split: Split{
			TrainFeatures: features.Take(trainRows),
			TestFeatures:  features.Take(testRows),
			TrainLabels:   takeFloats(labels, trainRows),
			TestLabels:    takeFloats(labels, testRows),
			TrainRows:     trainRows,
			TestRows:      testRows,
		},
	}, nil
}

func takeFloats(v []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = v[r]
	}
	return out
}
