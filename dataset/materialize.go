package dataset

import (
	"github.com/nvr-ai/go-detset/images"
	"github.com/nvr-ai/go-detset/transforms"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Materialize loads the image of rec and builds its target, then applies the pipeline
// of the split idx belongs to. It only reads its arguments and the filesystem.
//
// Arguments:
// - idx: Dataset index of rec; it becomes the target's image id.
// - rec: A record with resolved labels.
// - split: Split membership, consulted at idx.
// - pipelines: Train and test transforms.
//
// Returns:
// - The transformed sample.
// - error if the image or mask cannot be decoded or a transform fails.
func Materialize(idx int, rec Record, split Split, pipelines transforms.Pipelines) (*transforms.Sample, error) {
	if idx < 0 || idx >= split.Len() {
		return nil, errors.Errorf("index %d out of range [0, %d)", idx, split.Len())
	}

	img, err := images.LoadRGB(rec.ImagePath)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()

	target, err := buildTarget(idx, rec, bounds.Dy(), bounds.Dx())
	if err != nil {
		return nil, err
	}

	sample := &transforms.Sample{Index: idx, Image: img, Target: target}
	if t := pipelines.For(split.IsTest[idx]); t != nil {
		if err := t.Apply(sample); err != nil {
			return nil, errors.Wrapf(err, "transform sample %d", idx)
		}
	}
	return sample, nil
}

func buildTarget(idx int, rec Record, height, width int) (*transforms.Target, error) {
	n := len(rec.Boxes)
	boxes := make([]float32, 0, 4*n)
	labelIdx := make([]int64, n)
	area := make([]float32, n)
	for i, box := range rec.Boxes {
		if !box.Resolved() {
			return nil, errors.Errorf("%s: box %d (%s) has no label index", rec.ImagePath, i, box.LabelName)
		}
		l, t, r, b := box.Rect()
		boxes = append(boxes, float32(l), float32(t), float32(r), float32(b))
		labelIdx[i] = int64(box.LabelIdx)
		area[i] = float32(box.SurfaceArea())
	}

	target := &transforms.Target{
		Boxes:   tensor.New(tensor.WithShape(n, 4), tensor.WithBacking(boxes)),
		Labels:  tensor.New(tensor.WithShape(n), tensor.WithBacking(labelIdx)),
		ImageID: tensor.New(tensor.WithShape(1), tensor.WithBacking([]int64{int64(idx)})),
		Area:    tensor.New(tensor.WithShape(n), tensor.WithBacking(area)),
		IsCrowd: tensor.New(tensor.WithShape(n), tensor.WithBacking(make([]int64, n))),
	}

	masks, err := loadMasks(rec, height, width)
	if err != nil {
		return nil, err
	}
	target.Masks = masks
	target.Keypoints = keypointTensor(rec)
	return target, nil
}

// loadMasks prefers the mask file and falls back to COCO segmentations. Objects without
// a segmentation get an empty mask so masks stay aligned with boxes.
func loadMasks(rec Record, height, width int) (*tensor.Dense, error) {
	switch {
	case rec.MaskPath != "":
		mask, err := images.LoadMask(rec.MaskPath)
		if err != nil {
			return nil, err
		}
		if mask.N == 0 {
			return nil, nil
		}
		return tensor.New(tensor.WithShape(mask.N, mask.H, mask.W), tensor.WithBacking(mask.Data)), nil

	case rec.Segmentations != nil:
		plane := height * width
		data := make([]uint8, len(rec.Segmentations)*plane)
		for i, seg := range rec.Segmentations {
			if seg == nil {
				continue
			}
			m, err := seg.Decode(height, width)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: object %d", rec.ImagePath, i)
			}
			copy(data[i*plane:(i+1)*plane], m)
		}
		return tensor.New(tensor.WithShape(len(rec.Segmentations), height, width), tensor.WithBacking(data)), nil

	default:
		return nil, nil
	}
}

func keypointTensor(rec Record) *tensor.Dense {
	if len(rec.Keypoints) == 0 || len(rec.Keypoints[0]) == 0 {
		return nil
	}
	k := len(rec.Keypoints[0])
	data := make([]float32, 0, len(rec.Keypoints)*k*3)
	for _, row := range rec.Keypoints {
		for _, kp := range row {
			data = append(data, kp.X, kp.Y, float32(kp.Visibility))
		}
	}
	return tensor.New(tensor.WithShape(len(rec.Keypoints), k, 3), tensor.WithBacking(data))
}
