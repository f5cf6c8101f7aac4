// Package dataset - Object detection datasets read from Pascal VOC or COCO annotations.
package dataset

import (
	"github.com/nvr-ai/go-detset/labels"
	"github.com/nvr-ai/go-detset/loader"
	"github.com/nvr-ai/go-detset/transforms"
	"github.com/pkg/errors"
)

// Dataset is an indexed, split detection dataset. Samples are materialized on demand
// and every method is safe for concurrent use once New returns.
type Dataset struct {
	cfg       Config
	index     *Index
	split     Split
	pipelines transforms.Pipelines
}

// New validates cfg, builds the index and splits it.
//
// Arguments:
// - cfg: The dataset configuration.
//
// Returns:
// - The dataset.
// - ErrInvalidConfig, or any error of BuildIndex and SplitTrainTest.
//
// @example
// seed := int64(42)
// cfg := dataset.DefaultConfig("data/odFridgeObjects")
// cfg.Seed = &seed
// ds, err := dataset.New(cfg)
func New(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	index, err := BuildIndex(&cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "build index for %s", cfg.Root)
	}

	split, err := SplitTrainTest(index.Len(), cfg.TrainPct, cfg.Seed)
	if err != nil {
		return nil, err
	}

	pipelines := cfg.Transforms
	if pipelines.Train == nil && pipelines.Test == nil {
		pipelines = transforms.DefaultPipelinesSeeded(cfg.Seed)
	}

	return &Dataset{cfg: cfg, index: index, split: split, pipelines: pipelines}, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return d.index.Len()
}

// Get materializes record idx with the pipeline of its split.
func (d *Dataset) Get(idx int) (*transforms.Sample, error) {
	if idx < 0 || idx >= d.Len() {
		return nil, errors.Errorf("index %d out of range [0, %d)", idx, d.Len())
	}
	return Materialize(idx, d.index.Records[idx], d.split, d.pipelines)
}

// Record returns the ground truth of record idx without loading its image.
func (d *Dataset) Record(idx int) Record {
	return d.index.Records[idx]
}

// Labels returns the finalized label set.
func (d *Dataset) Labels() *labels.LabelSet {
	return d.index.Labels
}

// Index returns the underlying index.
func (d *Dataset) Index() *Index {
	return d.index
}

// Split returns the train/test assignment.
func (d *Dataset) Split() Split {
	return d.split
}

// Config returns the configuration the dataset was built with.
func (d *Dataset) Config() Config {
	return d.cfg
}

// TrainLoader iterates the train split in shuffled batches.
func (d *Dataset) TrainLoader() (*loader.Loader, error) {
	return d.newLoader(d.split.TrainIndices(), true)
}

// TestLoader iterates the test split in index order.
func (d *Dataset) TestLoader() (*loader.Loader, error) {
	return d.newLoader(d.split.TestIndices(), false)
}

func (d *Dataset) newLoader(indices []int, shuffle bool) (*loader.Loader, error) {
	if indices == nil {
		indices = []int{}
	}
	return loader.New(d, loader.Options{
		Indices:    indices,
		BatchSize:  d.cfg.BatchSize,
		Shuffle:    shuffle,
		Seed:       d.cfg.Seed,
		NumWorkers: d.cfg.NumWorkers,
	})
}
