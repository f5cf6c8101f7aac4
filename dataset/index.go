package dataset

import (
	"path/filepath"
	"strconv"

	"github.com/nvr-ai/go-detset/annotation"
	"github.com/nvr-ai/go-detset/bbox"
	"github.com/nvr-ai/go-detset/coco"
	"github.com/nvr-ai/go-detset/images"
	"github.com/nvr-ai/go-detset/labels"
	"github.com/nvr-ai/go-detset/util"
	"github.com/pkg/errors"
)

// ErrMissingAnnotation is returned when an image in the image directory has no
// annotation file next to it.
var ErrMissingAnnotation = errors.New("missing annotation")

// Record is the ground truth of one image.
type Record struct {
	ImagePath string
	// AnnotationPath is the VOC XML file the record was read from, or the COCO file.
	AnnotationPath string
	// MaskPath is set in mask mode.
	MaskPath string
	Boxes    []bbox.Annotation
	// Keypoints is nil or holds one row per box.
	Keypoints [][]bbox.Keypoint
	// Segmentations is nil or holds one entry per box (COCO only).
	Segmentations []*coco.Segmentation
	// ImageID, Width and Height come from COCO files.
	ImageID       int64
	Width, Height int
}

// HasMask reports whether the record carries a mask file or COCO segmentations.
func (r Record) HasMask() bool {
	return r.MaskPath != "" || r.Segmentations != nil
}

// HasKeypoints reports whether the record carries keypoints.
func (r Record) HasKeypoints() bool {
	return r.Keypoints != nil
}

// Stats counts what happened to the candidates seen while building an index.
type Stats struct {
	Candidates       int `json:"candidates"`
	Records          int `json:"records"`
	DroppedEmpty     int `json:"droppedEmpty"`
	DroppedNoMask    int `json:"droppedNoMask"`
	DroppedMalformed int `json:"droppedMalformed"`
}

// Index is the fully resolved set of records of a dataset. It is read-only once built.
type Index struct {
	Mode    Mode
	Records []Record
	Labels  *labels.LabelSet
	Stats   Stats
}

// Len returns the number of records.
func (x *Index) Len() int {
	return len(x.Records)
}

// MaskPaths returns the mask file of every record in mask mode, nil otherwise.
func (x *Index) MaskPaths() []string {
	var paths []string
	for _, rec := range x.Records {
		if rec.MaskPath != "" {
			paths = append(paths, rec.MaskPath)
		}
	}
	return paths
}

// ImagePaths returns the image of every record in index order.
func (x *Index) ImagePaths() []string {
	paths := make([]string, len(x.Records))
	for i, rec := range x.Records {
		paths[i] = rec.ImagePath
	}
	return paths
}

// BuildIndex reads every annotation described by cfg.
//
// Records are collected first with unresolved labels, then the label set is finalized
// and every box receives its 1-based index.
//
// Arguments:
// - cfg: A validated configuration.
//
// Returns:
//   - The index. Images without boxes, and in mask mode images without a mask, are
//     dropped and only counted in Stats.
//   - ErrMissingAnnotation, labels.ErrUnknownLabel, or a parse error unless
//     cfg.SkipMalformed allows dropping the image instead.
func BuildIndex(cfg *Config) (*Index, error) {
	b := &builder{cfg: cfg}

	var err error
	switch cfg.Mode() {
	case ModeCOCO:
		err = b.collectCOCO()
	case ModeVOCFromAnnotations:
		err = b.collectVOCFromAnnotations()
	default:
		err = b.collectVOCImageDir()
	}
	if err != nil {
		return nil, err
	}

	records, set, err := finalizeLabels(b.records, cfg.Labels)
	if err != nil {
		return nil, err
	}
	b.stats.Records = len(records)

	idx := &Index{Mode: cfg.Mode(), Records: records, Labels: set, Stats: b.stats}
	if !cfg.Quiet {
		cfg.logger().Printf(
			"dataset %s (%s): %d records, %d labels, dropped %d empty, %d without mask, %d malformed",
			cfg.Root, idx.Mode, idx.Stats.Records, set.Len(),
			idx.Stats.DroppedEmpty, idx.Stats.DroppedNoMask, idx.Stats.DroppedMalformed,
		)
	}
	return idx, nil
}

type builder struct {
	cfg     *Config
	records []Record
	stats   Stats
}

// malformed reports errors that SkipMalformed may turn into a dropped image.
func malformed(err error) bool {
	return errors.Is(err, annotation.ErrMalformedAnnotation) ||
		errors.Is(err, annotation.ErrUnknownKeypoint) ||
		errors.Is(err, coco.ErrInvalidAnnotation) ||
		errors.Is(err, bbox.ErrInvalidGeometry)
}

// add runs the drop rules on a parsed annotation and keeps it when they pass.
func (b *builder) add(annoPath string, parsed *annotation.Parsed, err error) error {
	b.stats.Candidates++
	if err != nil {
		if b.cfg.SkipMalformed && malformed(err) {
			b.stats.DroppedMalformed++
			if !b.cfg.Quiet {
				b.cfg.logger().Printf("skipping %s: %v", annoPath, err)
			}
			return nil
		}
		return err
	}
	if len(parsed.Boxes) == 0 {
		b.stats.DroppedEmpty++
		return nil
	}

	rec := Record{
		ImagePath:      parsed.ImagePath,
		AnnotationPath: annoPath,
		Boxes:          parsed.Boxes,
		Keypoints:      parsed.Keypoints,
		Segmentations:  parsed.Segmentations,
		ImageID:        parsed.ImageID,
		Width:          parsed.Width,
		Height:         parsed.Height,
	}
	if b.cfg.MaskMode() {
		maskPath := filepath.Join(b.cfg.Root, b.cfg.MaskDir, util.SwapExt(rec.ImagePath, ".png"))
		if !util.FileExists(maskPath) {
			b.stats.DroppedNoMask++
			return nil
		}
		rec.MaskPath = maskPath
	}
	b.records = append(b.records, rec)
	return nil
}

func (b *builder) vocParser() *annotation.VOCParser {
	return annotation.NewVOCParser(annotation.VOCOptions{
		Labels:    b.cfg.Labels,
		Keypoints: b.cfg.Keypoints,
	})
}

func (b *builder) collectVOCFromAnnotations() error {
	annoDir := filepath.Join(b.cfg.Root, b.cfg.AnnotationDir)
	files, err := util.ListDirectory(annoDir, util.HasExt(".xml"))
	if err != nil {
		return errors.Wrapf(err, "list annotations in %s", annoDir)
	}

	parser := b.vocParser()
	for _, f := range files {
		parsed, err := parser.Parse(f.Path)
		if err := b.add(f.Path, parsed, err); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) collectVOCImageDir() error {
	imDir := filepath.Join(b.cfg.Root, b.cfg.ImageDir)
	files, err := util.ListDirectory(imDir, images.IsImagePath)
	if err != nil {
		return errors.Wrapf(err, "list images in %s", imDir)
	}

	parser := b.vocParser()
	for _, f := range files {
		annoPath := filepath.Join(b.cfg.Root, b.cfg.AnnotationDir, util.SwapExt(f.Name, ".xml"))
		if !util.FileExists(annoPath) {
			return errors.Wrapf(ErrMissingAnnotation, "%s has no annotation %s", f.Path, annoPath)
		}

		parsed, err := parser.Parse(annoPath)
		if err == nil {
			// The image directory wins over whatever the annotation points at.
			parsed.ImagePath = f.Path
			for i := range parsed.Boxes {
				parsed.Boxes[i].ImagePath = f.Path
			}
		}
		if err := b.add(annoPath, parsed, err); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) collectCOCO() error {
	annoPath := b.cfg.annotationFilePath()
	idx, err := coco.Load(annoPath)
	if err != nil {
		return err
	}

	parser := annotation.NewCOCOParser(idx, filepath.Join(b.cfg.Root, b.cfg.ImageDir), annotation.COCOOptions{
		Labels: b.cfg.Labels,
	})
	ids := idx.ImageIDs()
	if b.cfg.MaxImages > 0 && idx.NumImages() > b.cfg.MaxImages {
		ids = ids[:b.cfg.MaxImages]
		if !b.cfg.Quiet {
			b.cfg.logger().Printf("%s: using the first %d of %d images", annoPath, b.cfg.MaxImages, idx.NumImages())
		}
	}
	for _, id := range ids {
		parsed, err := parser.ParseImage(id)
		source := annoPath + "#" + strconv.FormatInt(id, 10)
		if err := b.add(source, parsed, err); err != nil {
			return err
		}
	}
	return nil
}

// finalizeLabels builds the label set and returns copies of records whose boxes all
// carry their label index. With an explicit list the indices follow its order,
// otherwise the sorted set of observed names.
func finalizeLabels(records []Record, explicit []string) ([]Record, *labels.LabelSet, error) {
	var set *labels.LabelSet
	if explicit != nil {
		set = labels.NewLabelSet(explicit)
	} else {
		var observed []string
		for _, rec := range records {
			for _, box := range rec.Boxes {
				observed = append(observed, box.LabelName)
			}
		}
		set = labels.FromObserved(observed)
	}

	out := make([]Record, len(records))
	for i, rec := range records {
		boxes := make([]bbox.Annotation, len(rec.Boxes))
		for j, box := range rec.Boxes {
			if !set.Contains(box.LabelName) {
				return nil, nil, errors.Wrapf(labels.ErrUnknownLabel, "%s: %q", rec.AnnotationPath, box.LabelName)
			}
			idx, _ := set.Index(box.LabelName)
			boxes[j] = box.WithLabelIdx(idx)
		}
		rec.Boxes = boxes
		out[i] = rec
	}
	return out, set, nil
}
