package annotation

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-detset/bbox"
	"github.com/nvr-ai/go-detset/labels"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// VOCOptions configures the Pascal VOC parser.
type VOCOptions struct {
	// Labels, when set, resolves each box's label index to its 1-based position in the
	// list; names outside the list fail with labels.ErrUnknownLabel.
	Labels []string
	// Keypoints, when set, parses each object's <keypoints> children.
	Keypoints *KeypointSchema
}

// VOCParser reads Pascal VOC XML annotation files.
type VOCParser struct {
	labels    *labels.LabelSet
	keypoints *KeypointSchema
}

// NewVOCParser returns a parser configured by opts.
func NewVOCParser(opts VOCOptions) *VOCParser {
	p := &VOCParser{keypoints: opts.Keypoints}
	if opts.Labels != nil {
		p.labels = labels.NewLabelSet(opts.Labels)
	}
	return p
}

type vocDocument struct {
	XMLName  xml.Name    `xml:"annotation"`
	Path     string      `xml:"path"`
	Filename string      `xml:"filename"`
	Objects  []vocObject `xml:"object"`
}

type vocObject struct {
	Name      *string       `xml:"name"`
	BndBox    *vocBndBox    `xml:"bndbox"`
	Keypoints *vocKeypoints `xml:"keypoints"`
}

type vocBndBox struct {
	XMin *string `xml:"xmin"`
	YMin *string `xml:"ymin"`
	XMax *string `xml:"xmax"`
	YMax *string `xml:"ymax"`
}

type vocKeypoints struct {
	Points []vocPoint `xml:",any"`
}

type vocPoint struct {
	XMLName xml.Name
	X       *string `xml:"x"`
	Y       *string `xml:"y"`
}

// Parse reads the annotation file at path.
//
// Arguments:
// - path: The Pascal VOC XML file.
//
// Returns:
//   - The boxes of every <object> and the image path, taken from <path> when present
//     and <filename> otherwise, relative to the annotation's directory.
//   - ErrMalformedAnnotation, bbox.ErrInvalidGeometry or labels.ErrUnknownLabel.
//
// @example
// parsed, err := annotation.NewVOCParser(annotation.VOCOptions{}).Parse("annotations/1.xml")
func (p *VOCParser) Parse(path string) (*Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open annotation")
	}
	defer f.Close()

	// Labelling tools still write latin-1 and windows-1252 files.
	dec := xml.NewDecoder(f)
	dec.CharsetReader = charset.NewReaderLabel

	var doc vocDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrapf(ErrMalformedAnnotation, "%s: %v", path, err)
	}

	imPath, err := resolveImagePath(path, doc)
	if err != nil {
		return nil, err
	}

	parsed := &Parsed{ImagePath: imPath, Boxes: make([]bbox.Annotation, 0, len(doc.Objects))}
	if p.keypoints != nil {
		parsed.Keypoints = make([][]bbox.Keypoint, 0, len(doc.Objects))
	}

	for i, obj := range doc.Objects {
		box, err := p.parseObject(obj, imPath)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: object %d", path, i)
		}
		parsed.Boxes = append(parsed.Boxes, box)

		if p.keypoints != nil {
			kps, err := p.parseKeypoints(obj.Keypoints)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: object %d", path, i)
			}
			parsed.Keypoints = append(parsed.Keypoints, kps)
		}
	}
	return parsed, nil
}

func (p *VOCParser) parseObject(obj vocObject, imPath string) (bbox.Annotation, error) {
	if obj.Name == nil || strings.TrimSpace(*obj.Name) == "" {
		return bbox.Annotation{}, errors.Wrap(ErrMalformedAnnotation, "missing <name>")
	}
	if obj.BndBox == nil {
		return bbox.Annotation{}, errors.Wrap(ErrMalformedAnnotation, "missing <bndbox>")
	}
	name := strings.TrimSpace(*obj.Name)

	var coords [4]int
	for i, field := range []struct {
		tag   string
		value *string
	}{
		{"xmin", obj.BndBox.XMin},
		{"ymin", obj.BndBox.YMin},
		{"xmax", obj.BndBox.XMax},
		{"ymax", obj.BndBox.YMax},
	} {
		v, err := parseCoordinate(field.tag, field.value)
		if err != nil {
			return bbox.Annotation{}, err
		}
		coords[i] = int(v)
	}

	b, err := bbox.New(coords[0], coords[1], coords[2], coords[3])
	if err != nil {
		return bbox.Annotation{}, err
	}

	idx, err := resolveLabel(p.labels, name)
	if err != nil {
		return bbox.Annotation{}, err
	}
	return bbox.NewAnnotation(b, name, idx, imPath), nil
}

// parseKeypoints returns one entry per schema label; keypoints absent from the
// annotation stay {0, 0, 0}.
func (p *VOCParser) parseKeypoints(kps *vocKeypoints) ([]bbox.Keypoint, error) {
	out := make([]bbox.Keypoint, len(p.keypoints.Labels))
	if kps == nil {
		return out, nil
	}
	for _, pt := range kps.Points {
		i, ok := p.keypoints.index(pt.XMLName.Local)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownKeypoint, "%q", pt.XMLName.Local)
		}
		x, err := parseCoordinate(pt.XMLName.Local+"/x", pt.X)
		if err != nil {
			return nil, err
		}
		y, err := parseCoordinate(pt.XMLName.Local+"/y", pt.Y)
		if err != nil {
			return nil, err
		}
		out[i] = bbox.Keypoint{X: float32(int(x)), Y: float32(int(y)), Visibility: 2}
	}
	return out, nil
}

// parseCoordinate accepts integers as well as decimal values written by some
// labelling tools ("61.0"); decimals are truncated by the caller.
func parseCoordinate(tag string, value *string) (float64, error) {
	if value == nil {
		return 0, errors.Wrapf(ErrMalformedAnnotation, "missing <%s>", tag)
	}
	s := strings.TrimSpace(*value)
	if n, err := strconv.Atoi(s); err == nil {
		return float64(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedAnnotation, "<%s> is not a number: %q", tag, s)
	}
	return f, nil
}

func resolveImagePath(annoPath string, doc vocDocument) (string, error) {
	ref := strings.TrimSpace(doc.Path)
	if ref == "" {
		ref = strings.TrimSpace(doc.Filename)
	}
	if ref == "" {
		return "", errors.Wrapf(ErrMalformedAnnotation, "%s: missing <path> and <filename>", annoPath)
	}
	if !filepath.IsAbs(ref) {
		ref = filepath.Join(filepath.Dir(annoPath), ref)
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", errors.Wrap(err, "resolve image path")
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}
