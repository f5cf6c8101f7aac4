package bbox

import "fmt"

// Annotation is a ground-truth box with its label and owning image.
type Annotation struct {
	Bbox
	// LabelName is the class name as written in the annotation source.
	LabelName string
	// LabelIdx is the 1-based class index; 0 means not yet resolved (background is
	// never assigned to a real box).
	LabelIdx int
	// ImagePath is the absolute path of the image the box belongs to.
	ImagePath string
}

// NewAnnotation attaches label and image information to b.
func NewAnnotation(b Bbox, labelName string, labelIdx int, imagePath string) Annotation {
	return Annotation{Bbox: b, LabelName: labelName, LabelIdx: labelIdx, ImagePath: imagePath}
}

// Resolved reports whether the label index has been assigned.
func (a Annotation) Resolved() bool {
	return a.LabelIdx > 0
}

// WithLabelIdx returns a copy of a with its label index set to idx.
func (a Annotation) WithLabelIdx(idx int) Annotation {
	a.LabelIdx = idx
	return a
}

func (a Annotation) String() string {
	return fmt.Sprintf("%s (%d) %s", a.LabelName, a.LabelIdx, a.Bbox)
}

// Keypoint is a single landmark of an object. Visibility follows the COCO
// convention: 0 not labelled, 1 labelled but occluded, 2 visible.
type Keypoint struct {
	X, Y       float32
	Visibility int
}
