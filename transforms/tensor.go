package transforms

import (
	"image"

	"github.com/disintegration/imaging"
	"gorgonia.org/tensor"
)

// ToTensor converts the sample image to a (3, H, W) float32 tensor scaled to [0, 1]
// and releases the decoded image.
type ToTensor struct{}

func (ToTensor) Apply(s *Sample) error {
	if s.Image == nil {
		if s.Tensor != nil {
			return nil
		}
		return ErrNoImage
	}
	s.Tensor = ImageToTensor(s.Image)
	s.Image = nil
	return nil
}

// ImageToTensor returns img as a (3, H, W) float32 tensor in [0, 1], dropping alpha.
func ImageToTensor(img image.Image) *tensor.Dense {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	plane := w * h
	data := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < w; x++ {
			px := row[4*x:]
			i := y*w + x
			data[i] = float32(px[0]) / 255.0
			data[plane+i] = float32(px[1]) / 255.0
			data[2*plane+i] = float32(px[2]) / 255.0
		}
	}
	return tensor.New(tensor.WithShape(3, h, w), tensor.WithBacking(data))
}
