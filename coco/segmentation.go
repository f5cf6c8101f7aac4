package coco

import (
	"bytes"
	"encoding/json"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/vector"
)

// ErrInvalidSegmentation is returned for segmentations that cannot be decoded.
var ErrInvalidSegmentation = errors.New("invalid coco segmentation")

// Segmentation is either a list of polygons or a run-length encoded mask.
type Segmentation struct {
	// Polygons holds flat [x1, y1, x2, y2, ...] outlines.
	Polygons [][]float64
	// RLE is set for run-length encoded masks (usually crowd annotations).
	RLE *RLE
}

// RLE is a column-major run-length encoding starting with a run of zeros.
type RLE struct {
	// Size is [height, width].
	Size [2]int
	// Counts are the decoded run lengths.
	Counts []int
}

type rawRLE struct {
	Size   [2]int          `json:"size"`
	Counts json.RawMessage `json:"counts"`
}

// UnmarshalJSON accepts the polygon list form, the uncompressed RLE form
// ({"counts": [..]}) and the compressed RLE form ({"counts": "..."}).
func (s *Segmentation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.Wrap(ErrInvalidSegmentation, "empty value")
	}

	switch data[0] {
	case '[':
		return json.Unmarshal(data, &s.Polygons)
	case '{':
		var raw rawRLE
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		counts := bytes.TrimSpace(raw.Counts)
		rle := &RLE{Size: raw.Size}
		if len(counts) > 0 && counts[0] == '"' {
			var str string
			if err := json.Unmarshal(counts, &str); err != nil {
				return err
			}
			decoded, err := decodeCounts(str)
			if err != nil {
				return err
			}
			rle.Counts = decoded
		} else if err := json.Unmarshal(counts, &rle.Counts); err != nil {
			return err
		}
		s.RLE = rle
		return nil
	default:
		return errors.Wrapf(ErrInvalidSegmentation, "unexpected token %q", data[0])
	}
}

// Decode renders the segmentation as a dense height x width binary mask in row-major
// order (1 inside the object, 0 elsewhere).
func (s *Segmentation) Decode(height, width int) ([]uint8, error) {
	if height <= 0 || width <= 0 {
		return nil, errors.Wrapf(ErrInvalidSegmentation, "mask size %dx%d", width, height)
	}
	if s.RLE != nil {
		return s.RLE.decode(height, width)
	}
	return rasterizePolygons(s.Polygons, height, width), nil
}

func (r *RLE) decode(height, width int) ([]uint8, error) {
	if r.Size != [2]int{0, 0} && r.Size != [2]int{height, width} {
		return nil, errors.Wrapf(ErrInvalidSegmentation, "rle size %v does not match image %dx%d", r.Size, width, height)
	}

	mask := make([]uint8, height*width)
	pos := 0
	var value uint8
	for _, run := range r.Counts {
		if run < 0 || pos+run > len(mask) {
			return nil, errors.Wrapf(ErrInvalidSegmentation, "rle runs exceed %d pixels", len(mask))
		}
		if value == 1 {
			for i := pos; i < pos+run; i++ {
				// Column-major position i -> row i%height, column i/height.
				mask[(i%height)*width+i/height] = 1
			}
		}
		pos += run
		value ^= 1
	}
	return mask, nil
}

// decodeCounts decodes the compressed LEB128-like count string used by COCO tools.
// Each count is stored as 5-bit groups offset by '0'; counts after the second are
// deltas to the count two positions earlier.
func decodeCounts(s string) ([]int, error) {
	var counts []int
	for p := 0; p < len(s); {
		var x int64
		for k := 0; ; k++ {
			if p >= len(s) {
				return nil, errors.Wrap(ErrInvalidSegmentation, "truncated rle string")
			}
			c := int64(s[p]) - 48
			p++
			x |= (c & 0x1f) << (5 * k)
			if c&0x20 == 0 {
				if c&0x10 != 0 {
					x |= int64(-1) << (5 * (k + 1))
				}
				break
			}
		}
		if len(counts) > 2 {
			x += int64(counts[len(counts)-2])
		}
		counts = append(counts, int(x))
	}
	return counts, nil
}

// rasterizePolygons fills each outline and unions them. A pixel is inside when at
// least half of it is covered.
func rasterizePolygons(polygons [][]float64, height, width int) []uint8 {
	mask := make([]uint8, height*width)
	z := vector.NewRasterizer(width, height)
	coverage := image.NewAlpha(image.Rect(0, 0, width, height))

	for _, poly := range polygons {
		if len(poly) < 6 {
			continue
		}
		z.Reset(width, height)
		z.MoveTo(float32(poly[0]), float32(poly[1]))
		for i := 2; i+1 < len(poly); i += 2 {
			z.LineTo(float32(poly[i]), float32(poly[i+1]))
		}
		z.ClosePath()

		clear(coverage.Pix)
		z.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})
		for i, a := range coverage.Pix {
			if a >= 0x80 {
				mask[i] = 1
			}
		}
	}
	return mask
}
