package transforms

import (
	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Resize scales a sample to Width x Height. Boxes and keypoints are scaled with the
// image, masks are resampled nearest-neighbour and areas recomputed.
// It must run before ToTensor.
type Resize struct {
	Width, Height int
}

func (r Resize) Apply(s *Sample) error {
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Errorf("invalid resize dimensions: %dx%d", r.Width, r.Height)
	}
	if s.Image == nil {
		return errors.Wrap(ErrNoImage, "resize must run before ToTensor")
	}

	srcW, srcH, err := s.Size()
	if err != nil {
		return err
	}
	sx := float32(r.Width) / float32(srcW)
	sy := float32(r.Height) / float32(srcH)

	s.Image = resize.Resize(uint(r.Width), uint(r.Height), s.Image, resize.Bilinear)

	t := s.Target
	if t == nil {
		return nil
	}
	if t.Boxes != nil {
		boxes := t.Boxes.Data().([]float32)
		for i := 0; i+3 < len(boxes); i += 4 {
			boxes[i] = math32.Min(boxes[i]*sx, float32(r.Width))
			boxes[i+1] = math32.Min(boxes[i+1]*sy, float32(r.Height))
			boxes[i+2] = math32.Min(boxes[i+2]*sx, float32(r.Width))
			boxes[i+3] = math32.Min(boxes[i+3]*sy, float32(r.Height))
		}
		if t.Area != nil {
			area := make([]float32, len(boxes)/4)
			for i := range area {
				area[i] = (boxes[4*i+2] - boxes[4*i]) * (boxes[4*i+3] - boxes[4*i+1])
			}
			t.Area = tensor.New(tensor.WithShape(len(area)), tensor.WithBacking(area))
		}
	}
	if t.Keypoints != nil {
		kps := t.Keypoints.Data().([]float32)
		for i := 0; i+2 < len(kps); i += 3 {
			kps[i] *= sx
			kps[i+1] *= sy
		}
	}
	if t.Masks != nil {
		t.Masks = resizeMasks(t.Masks, r.Width, r.Height)
	}
	return nil
}

func resizeMasks(masks *tensor.Dense, width, height int) *tensor.Dense {
	shape := masks.Shape()
	n, srcH, srcW := shape[0], shape[1], shape[2]
	src := masks.Data().([]uint8)
	dst := make([]uint8, n*height*width)

	scaleX := float32(srcW) / float32(width)
	scaleY := float32(srcH) / float32(height)
	for m := 0; m < n; m++ {
		in := src[m*srcH*srcW:]
		out := dst[m*height*width:]
		for y := 0; y < height; y++ {
			sy := min(int(math32.Floor((float32(y)+0.5)*scaleY)), srcH-1)
			for x := 0; x < width; x++ {
				sx := min(int(math32.Floor((float32(x)+0.5)*scaleX)), srcW-1)
				out[y*width+x] = in[sy*srcW+sx]
			}
		}
	}
	return tensor.New(tensor.WithShape(n, height, width), tensor.WithBacking(dst))
}
