package annotation

import (
	"path/filepath"
	"strconv"

	"github.com/nvr-ai/go-detset/bbox"
	"github.com/nvr-ai/go-detset/coco"
	"github.com/nvr-ai/go-detset/labels"
	"github.com/pkg/errors"
)

// COCOOptions configures the COCO parser.
type COCOOptions struct {
	// Labels, when set, resolves label indices against this ordered list.
	Labels []string
}

// COCOParser reads the annotations of single images out of a loaded COCO index.
type COCOParser struct {
	index    *coco.Index
	imageDir string
	labels   *labels.LabelSet
}

// NewCOCOParser wraps idx. Image file names are resolved against imageDir.
func NewCOCOParser(idx *coco.Index, imageDir string, opts COCOOptions) *COCOParser {
	p := &COCOParser{index: idx, imageDir: imageDir}
	if opts.Labels != nil {
		p.labels = labels.NewLabelSet(opts.Labels)
	}
	return p
}

// Parse parses the image whose decimal id is source.
func (p *COCOParser) Parse(source string) (*Parsed, error) {
	id, err := strconv.ParseInt(source, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedAnnotation, "image id %q", source)
	}
	return p.ParseImage(id)
}

// ParseImage returns the boxes, segmentations and keypoints stored for image id.
//
// Arguments:
// - id: A COCO image id.
//
// Returns:
//   - The parsed record; Boxes is empty for images without annotations.
//   - ErrMalformedAnnotation for unknown ids or inconsistent keypoint counts,
//     ErrUnknownCategory, bbox.ErrInvalidGeometry or labels.ErrUnknownLabel.
func (p *COCOParser) ParseImage(id int64) (*Parsed, error) {
	img, ok := p.index.Image(id)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedAnnotation, "unknown image id %d", id)
	}
	imPath := img.FileName
	if !filepath.IsAbs(imPath) {
		imPath = filepath.Join(p.imageDir, imPath)
	}

	anns := p.index.Annotations(id)
	parsed := &Parsed{
		ImagePath: imPath,
		Boxes:     make([]bbox.Annotation, 0, len(anns)),
		ImageID:   id,
		Width:     img.Width,
		Height:    img.Height,
	}

	var (
		hasSegmentation bool
		hasKeypoints    bool
		numKeypoints    int
	)
	for _, ann := range anns {
		if ann.Segmentation != nil {
			hasSegmentation = true
		}
		if ann.HasKeypoints() {
			if hasKeypoints && len(ann.Keypoints)/3 != numKeypoints {
				return nil, errors.Wrapf(ErrMalformedAnnotation, "image %d: annotations disagree on keypoint count", id)
			}
			hasKeypoints = true
			numKeypoints = len(ann.Keypoints) / 3
		}
	}

	for _, ann := range anns {
		b, err := ann.Box()
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", id)
		}
		name, err := p.categoryName(ann.CategoryID)
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", id)
		}
		idx, err := resolveLabel(p.labels, name)
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", id)
		}
		parsed.Boxes = append(parsed.Boxes, bbox.NewAnnotation(b, name, idx, imPath))

		if hasSegmentation {
			parsed.Segmentations = append(parsed.Segmentations, ann.Segmentation)
		}
		if hasKeypoints {
			kps := make([]bbox.Keypoint, numKeypoints)
			if ann.HasKeypoints() {
				if kps, err = ann.KeypointTriples(); err != nil {
					return nil, errors.Wrapf(ErrMalformedAnnotation, "image %d: %v", id, err)
				}
			}
			parsed.Keypoints = append(parsed.Keypoints, kps)
		}
	}
	return parsed, nil
}

// categoryName prefers the fixed COCO table and falls back to the categories declared
// in the file, so custom datasets with their own ids still resolve.
func (p *COCOParser) categoryName(id int) (string, error) {
	if name, ok := labels.COCOCategoryName(id); ok {
		return name, nil
	}
	if cat, ok := p.index.Category(id); ok && cat.Name != "" {
		return cat.Name, nil
	}
	return "", errors.Wrapf(ErrUnknownCategory, "category_id %d", id)
}
