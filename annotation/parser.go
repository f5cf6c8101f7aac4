// Package annotation - Parsers that turn annotation sources into ground-truth boxes.
package annotation

import (
	"github.com/nvr-ai/go-detset/bbox"
	"github.com/nvr-ai/go-detset/coco"
	"github.com/nvr-ai/go-detset/labels"
	"github.com/pkg/errors"
)

var (
	// ErrMalformedAnnotation is returned when a required node or field is missing or
	// unreadable. No partial result accompanies it.
	ErrMalformedAnnotation = errors.New("malformed annotation")
	// ErrUnknownKeypoint is returned for keypoint names missing from the schema.
	ErrUnknownKeypoint = errors.New("unknown keypoint")
	// ErrUnknownCategory is returned for COCO category ids without a name.
	ErrUnknownCategory = errors.New("unknown category")
)

// Parser reads one annotation record.
//
// For Pascal VOC the source is the path of an XML file, for COCO the decimal image id.
type Parser interface {
	Parse(source string) (*Parsed, error)
}

// Parsed is the content of one annotation record.
type Parsed struct {
	// ImagePath is the image the boxes belong to.
	ImagePath string
	// Boxes in source order. LabelIdx is 0 unless an explicit label list was supplied.
	Boxes []bbox.Annotation
	// Keypoints holds one row per box when keypoints are present, nil otherwise.
	Keypoints [][]bbox.Keypoint
	// Segmentations holds one entry per box (nil where the object has none) for COCO
	// records that carry segmentations, nil otherwise.
	Segmentations []*coco.Segmentation
	// ImageID, Width and Height are only set by the COCO parser.
	ImageID       int64
	Width, Height int
}

// KeypointSchema names the keypoints of an object class in a fixed order.
type KeypointSchema struct {
	Labels []string `json:"labels" yaml:"labels"`
}

// index returns the position of name in the schema.
func (s *KeypointSchema) index(name string) (int, bool) {
	for i, l := range s.Labels {
		if l == name {
			return i, true
		}
	}
	return 0, false
}

// resolveLabel maps name to its 1-based index in explicit, or returns 0 when no
// explicit label list was supplied.
func resolveLabel(explicit *labels.LabelSet, name string) (int, error) {
	if explicit == nil {
		return 0, nil
	}
	return explicit.Index(name)
}
