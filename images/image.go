package images

import (
	"image"
	"image/color"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	// Additional decoders registered with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned for files whose extension is not a known image format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Load decodes the image stored at path.
//
// Pixels are returned as stored: EXIF orientation is deliberately not applied, since
// annotation coordinates refer to the stored pixel grid.
//
// Arguments:
// - path: Path to a jpeg, png, gif, bmp, tiff or webp file.
//
// Returns:
// - The decoded image.
// - error if the file cannot be opened or decoded.
func Load(path string) (image.Image, error) {
	switch FormatFromPath(path) {
	case FormatUnknown:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "load %s", path)
	case FormatWebP:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open image")
		}
		defer f.Close()

		img, err := webp.Decode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decode webp %s", path)
		}
		return img, nil
	default:
		img, err := imaging.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "decode image %s", path)
		}
		return img, nil
	}
}

// LoadRGB decodes the image at path and converts it to opaque 8-bit RGB.
func LoadRGB(path string) (*image.NRGBA, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ToRGB(img), nil
}

// ToRGB converts img to a fresh *image.NRGBA with the alpha channel dropped.
//
// Color channels keep their non-premultiplied values, so a translucent pixel keeps its
// hue rather than being darkened.
func ToRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// Mask is a stack of N binary masks of size HxW stored contiguously as N*H*W bytes.
type Mask struct {
	N, H, W int
	// Data holds 1 for object pixels and 0 elsewhere.
	Data []uint8
}

// LoadMask decodes a color-encoded segmentation mask file and splits it with BinariseMask.
func LoadMask(path string) (*Mask, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "decode mask %s", path)
	}
	return BinariseMask(img), nil
}

// BinariseMask splits a color-encoded mask into one binary mask per object value.
//
// Every distinct non-zero pixel value (palette index for paletted images, intensity
// otherwise) is an object; 0 is background. Masks are ordered by ascending value.
func BinariseMask(img image.Image) *Mask {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	values := make([]uint8, h*w)

	var seen [256]bool
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := maskValue(img, b.Min.X+x, b.Min.Y+y)
			values[y*w+x] = v
			seen[v] = true
		}
	}

	var objects []uint8
	for v := 1; v < len(seen); v++ {
		if seen[v] {
			objects = append(objects, uint8(v))
		}
	}

	mask := &Mask{N: len(objects), H: h, W: w, Data: make([]uint8, len(objects)*h*w)}
	for i, obj := range objects {
		plane := mask.Data[i*h*w : (i+1)*h*w]
		for j, v := range values {
			if v == obj {
				plane[j] = 1
			}
		}
	}
	return mask
}

func maskValue(img image.Image, x, y int) uint8 {
	switch m := img.(type) {
	case *image.Paletted:
		return m.ColorIndexAt(x, y)
	case *image.Gray:
		return m.GrayAt(x, y).Y
	default:
		return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
	}
}
