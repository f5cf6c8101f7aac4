package transforms

import (
	"math/rand"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"gorgonia.org/tensor"
)

// RandomHorizontalFlip mirrors a sample left to right with probability P.
// It is safe for concurrent use.
type RandomHorizontalFlip struct {
	P float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomHorizontalFlip returns a flip with probability p. A nil seed draws one
// from the clock.
func NewRandomHorizontalFlip(p float64, seed *int64) *RandomHorizontalFlip {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return &RandomHorizontalFlip{P: p, rng: rand.New(rand.NewSource(s))}
}

func (f *RandomHorizontalFlip) Apply(s *Sample) error {
	f.mu.Lock()
	flip := f.rng.Float64() < f.P
	f.mu.Unlock()

	if !flip {
		return nil
	}
	return HorizontalFlip(s)
}

// HorizontalFlip mirrors the image (or image tensor), boxes, masks and keypoints of s.
// Keypoints that are not labelled (visibility 0) are reset to {0, 0, 0}.
func HorizontalFlip(s *Sample) error {
	width, _, err := s.Size()
	if err != nil {
		return err
	}

	if s.Image != nil {
		s.Image = imaging.FlipH(s.Image)
	} else {
		flipRows(s.Tensor.Data().([]float32), s.Tensor.Shape()[2])
	}

	t := s.Target
	if t == nil {
		return nil
	}
	w := float32(width)
	if t.Boxes != nil {
		boxes := t.Boxes.Data().([]float32)
		for i := 0; i+3 < len(boxes); i += 4 {
			boxes[i], boxes[i+2] = w-boxes[i+2], w-boxes[i]
		}
	}
	if t.Masks != nil {
		flipRows(t.Masks.Data().([]uint8), t.Masks.Shape()[2])
	}
	if t.Keypoints != nil {
		flipKeypoints(t.Keypoints, w)
	}
	return nil
}

func flipKeypoints(kps *tensor.Dense, width float32) {
	data := kps.Data().([]float32)
	for i := 0; i+2 < len(data); i += 3 {
		if data[i+2] == 0 {
			data[i], data[i+1] = 0, 0
			continue
		}
		data[i] = width - data[i]
	}
}

// flipRows reverses every row of length width in data.
func flipRows[T any](data []T, width int) {
	for start := 0; start+width <= len(data); start += width {
		row := data[start : start+width]
		for l, r := 0, width-1; l < r; l, r = l+1, r-1 {
			row[l], row[r] = row[r], row[l]
		}
	}
}
