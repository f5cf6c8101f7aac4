package images

import (
	"image"
	"math/rand"
	"testing"
)

func BenchmarkCalculateIoU(b *testing.B) {
	cases := []struct {
		name string
		r, o Rect
	}{
		{name: "NonOverlapping", r: Rect{0, 0, 100, 100}, o: Rect{200, 200, 300, 300}},
		{name: "FullOverlap", r: Rect{50, 50, 150, 150}, o: Rect{50, 50, 150, 150}},
		{name: "PartialOverlap", r: Rect{0, 0, 100, 100}, o: Rect{50, 50, 150, 150}},
	}

	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = CalculateIoU(c.r, c.o)
			}
		})
	}
}

// BenchmarkBinariseMask measures splitting a 640x480 mask holding eight objects.
func BenchmarkBinariseMask(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	img := image.NewPaletted(image.Rect(0, 0, 640, 480), nil)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(9))
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = BinariseMask(img)
	}
}
