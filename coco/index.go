package coco

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Index is an in-memory lookup over a COCO annotation file.
type Index struct {
	images     []Image
	imageByID  map[int64]int
	imgToAnns  map[int64][]Annotation
	categories map[int]Category
}

// Load reads and indexes the COCO annotation file at path.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open coco annotation file")
	}
	defer f.Close()

	idx, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return idx, nil
}

// Decode parses a COCO annotation document from r.
func Decode(r io.Reader) (*Index, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode coco json")
	}
	return NewIndex(&file)
}

// NewIndex indexes an already decoded file. Images keep their file order.
func NewIndex(file *File) (*Index, error) {
	idx := &Index{
		images:     file.Images,
		imageByID:  make(map[int64]int, len(file.Images)),
		imgToAnns:  make(map[int64][]Annotation, len(file.Images)),
		categories: make(map[int]Category, len(file.Categories)),
	}
	for i, img := range file.Images {
		if _, dup := idx.imageByID[img.ID]; dup {
			return nil, errors.Wrapf(ErrInvalidAnnotation, "duplicate image id %d", img.ID)
		}
		idx.imageByID[img.ID] = i
	}
	for _, ann := range file.Annotations {
		if _, ok := idx.imageByID[ann.ImageID]; !ok {
			return nil, errors.Wrapf(ErrInvalidAnnotation, "annotation %d refers to unknown image %d", ann.ID, ann.ImageID)
		}
		idx.imgToAnns[ann.ImageID] = append(idx.imgToAnns[ann.ImageID], ann)
	}
	for _, cat := range file.Categories {
		idx.categories[cat.ID] = cat
	}
	return idx, nil
}

// ImageIDs returns all image ids in file order.
func (x *Index) ImageIDs() []int64 {
	ids := make([]int64, len(x.images))
	for i, img := range x.images {
		ids[i] = img.ID
	}
	return ids
}

// Image returns the image entry for id.
func (x *Index) Image(id int64) (Image, bool) {
	i, ok := x.imageByID[id]
	if !ok {
		return Image{}, false
	}
	return x.images[i], true
}

// Annotations returns the annotations of image id in file order.
func (x *Index) Annotations(id int64) []Annotation {
	return x.imgToAnns[id]
}

// Category returns the category entry declared in the file for id.
func (x *Index) Category(id int) (Category, bool) {
	c, ok := x.categories[id]
	return c, ok
}

// NumImages returns the number of indexed images.
func (x *Index) NumImages() int {
	return len(x.images)
}
