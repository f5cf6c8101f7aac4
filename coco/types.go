// Package coco - COCO detection annotation schema, index and mask decoding.
package coco

import (
	"github.com/nvr-ai/go-detset/bbox"
	"github.com/pkg/errors"
)

// File is the subset of the COCO detection schema consumed by the dataset.
type File struct {
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

// Image is one entry of the "images" section.
type Image struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Category is one entry of the "categories" section.
type Category struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Supercategory string   `json:"supercategory,omitempty"`
	Keypoints     []string `json:"keypoints,omitempty"`
	Skeleton      [][2]int `json:"skeleton,omitempty"`
}

// Annotation is one object instance.
type Annotation struct {
	ID         int64     `json:"id"`
	ImageID    int64     `json:"image_id"`
	CategoryID int       `json:"category_id"`
	BBox       []float64 `json:"bbox"`
	Area       float64   `json:"area,omitempty"`
	IsCrowd    int       `json:"iscrowd,omitempty"`
	// Segmentation is nil when the annotation carries no "segmentation" key.
	Segmentation *Segmentation `json:"segmentation,omitempty"`
	// Keypoints is a flat [x1, y1, v1, x2, y2, v2, ...] list.
	Keypoints    []float64 `json:"keypoints,omitempty"`
	NumKeypoints int       `json:"num_keypoints,omitempty"`
}

// ErrInvalidAnnotation is returned for annotations whose fields have the wrong shape.
var ErrInvalidAnnotation = errors.New("invalid coco annotation")

// Box converts the [x, y, width, height] quad to a bbox.Bbox.
func (a Annotation) Box() (bbox.Bbox, error) {
	if len(a.BBox) != 4 {
		return bbox.Bbox{}, errors.Wrapf(ErrInvalidAnnotation, "annotation %d: bbox has %d values", a.ID, len(a.BBox))
	}
	b, err := bbox.FromXYWH(a.BBox[0], a.BBox[1], a.BBox[2], a.BBox[3])
	if err != nil {
		return bbox.Bbox{}, errors.Wrapf(err, "annotation %d", a.ID)
	}
	return b, nil
}

// HasKeypoints reports whether the annotation carries a "keypoints" list.
func (a Annotation) HasKeypoints() bool {
	return a.Keypoints != nil
}

// KeypointTriples reshapes the flat keypoint list into (K, 3) triples.
func (a Annotation) KeypointTriples() ([]bbox.Keypoint, error) {
	if len(a.Keypoints)%3 != 0 {
		return nil, errors.Wrapf(ErrInvalidAnnotation, "annotation %d: %d keypoint values is not a multiple of 3", a.ID, len(a.Keypoints))
	}
	kps := make([]bbox.Keypoint, len(a.Keypoints)/3)
	for i := range kps {
		kps[i] = bbox.Keypoint{
			X:          float32(a.Keypoints[3*i]),
			Y:          float32(a.Keypoints[3*i+1]),
			Visibility: int(a.Keypoints[3*i+2]),
		}
	}
	return kps, nil
}
