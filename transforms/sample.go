// Package transforms - Materialized samples and the transform pipelines applied to them.
package transforms

import (
	"image"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrNoImage is returned by transforms that need pixels when the sample has none.
var ErrNoImage = errors.New("sample has no image")

// Target is the ground truth of one sample, laid out the way torchvision style
// detection models consume it.
type Target struct {
	// Boxes is (N, 4) float32 [left, top, right, bottom].
	Boxes *tensor.Dense
	// Labels is (N) int64, 1-based class indices.
	Labels *tensor.Dense
	// ImageID is (1) int64 and equals the dataset index of the sample.
	ImageID *tensor.Dense
	// Area is (N) float32.
	Area *tensor.Dense
	// IsCrowd is (N) int64, always zero.
	IsCrowd *tensor.Dense
	// Masks is (M, H, W) uint8 or nil.
	Masks *tensor.Dense
	// Keypoints is (N, K, 3) float32 [x, y, visibility] or nil.
	Keypoints *tensor.Dense
}

// NumBoxes returns N.
func (t *Target) NumBoxes() int {
	if t == nil || t.Boxes == nil {
		return 0
	}
	return t.Boxes.Shape()[0]
}

// Sample is one materialized (image, target) pair.
type Sample struct {
	// Index is the dataset index the sample was built from.
	Index int
	// Image holds the decoded RGB pixels until ToTensor runs.
	Image image.Image
	// Tensor is the (3, H, W) float32 image in [0, 1], set by ToTensor.
	Tensor *tensor.Dense
	Target *Target
}

// Size returns the pixel width and height of the sample.
func (s *Sample) Size() (width, height int, err error) {
	switch {
	case s.Image != nil:
		b := s.Image.Bounds()
		return b.Dx(), b.Dy(), nil
	case s.Tensor != nil:
		shape := s.Tensor.Shape()
		return shape[2], shape[1], nil
	default:
		return 0, 0, ErrNoImage
	}
}

// Transform mutates a sample in place.
type Transform interface {
	Apply(s *Sample) error
}

// TransformFunc adapts a function to Transform.
type TransformFunc func(s *Sample) error

func (f TransformFunc) Apply(s *Sample) error {
	return f(s)
}

// Compose applies transforms in order and stops at the first error.
type Compose []Transform

func (c Compose) Apply(s *Sample) error {
	for _, t := range c {
		if err := t.Apply(s); err != nil {
			return err
		}
	}
	return nil
}

// Pipelines selects the transform for each split. A nil transform leaves the
// sample untouched.
type Pipelines struct {
	Train Transform
	Test  Transform
}

// For returns the pipeline of the requested split.
func (p Pipelines) For(isTest bool) Transform {
	if isTest {
		return p.Test
	}
	return p.Train
}

// DefaultPipeline converts to a tensor and, for training, randomly mirrors half of
// the samples.
func DefaultPipeline(train bool) Transform {
	return defaultPipeline(train, nil)
}

func defaultPipeline(train bool, seed *int64) Transform {
	if train {
		return Compose{NewRandomHorizontalFlip(0.5, seed), ToTensor{}}
	}
	return Compose{ToTensor{}}
}

// DefaultPipelines returns DefaultPipeline(true) and DefaultPipeline(false).
func DefaultPipelines() Pipelines {
	return DefaultPipelinesSeeded(nil)
}

// DefaultPipelinesSeeded is DefaultPipelines with the train flip seeded from seed.
// Flip decisions are drawn in call order, so samples fetched in the same order get the
// same flips.
func DefaultPipelinesSeeded(seed *int64) Pipelines {
	return Pipelines{Train: defaultPipeline(true, seed), Test: defaultPipeline(false, seed)}
}
