package transforms

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// newSample builds a 4x2 image whose red channel encodes the column and a
// single box with one mask and two keypoints.
func newSample() *Sample {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 50), G: 10, B: 20, A: 255})
		}
	}
	return &Sample{
		Image: img,
		Target: &Target{
			Boxes:   tensor.New(tensor.WithShape(1, 4), tensor.WithBacking([]float32{0, 0, 1, 2})),
			Labels:  tensor.New(tensor.WithShape(1), tensor.WithBacking([]int64{1})),
			ImageID: tensor.New(tensor.WithShape(1), tensor.WithBacking([]int64{0})),
			Area:    tensor.New(tensor.WithShape(1), tensor.WithBacking([]float32{2})),
			IsCrowd: tensor.New(tensor.WithShape(1), tensor.WithBacking([]int64{0})),
			Masks: tensor.New(tensor.WithShape(1, 2, 4), tensor.WithBacking([]uint8{
				1, 0, 0, 0,
				1, 0, 0, 0,
			})),
			Keypoints: tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking([]float32{
				1, 1, 2,
				3, 1, 0,
			})),
		},
	}
}

func TestToTensor(t *testing.T) {
	s := newSample()
	require.NoError(t, ToTensor{}.Apply(s))

	assert.Nil(t, s.Image)
	require.NotNil(t, s.Tensor)
	assert.Equal(t, tensor.Shape{3, 2, 4}, s.Tensor.Shape())

	data := s.Tensor.Data().([]float32)
	assert.InDelta(t, 0.0, data[0], 1e-6)
	assert.InDelta(t, 150.0/255.0, data[3], 1e-6)
	assert.InDelta(t, 10.0/255.0, data[8], 1e-6)
	assert.InDelta(t, 20.0/255.0, data[16], 1e-6)

	w, h, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)

	// Applying twice is a no-op.
	require.NoError(t, ToTensor{}.Apply(s))

	err = ToTensor{}.Apply(&Sample{})
	assert.True(t, errors.Is(err, ErrNoImage))
}

func TestHorizontalFlip(t *testing.T) {
	s := newSample()
	require.NoError(t, HorizontalFlip(s))

	assert.Equal(t, []float32{3, 0, 4, 2}, s.Target.Boxes.Data())
	assert.Equal(t, []uint8{
		0, 0, 0, 1,
		0, 0, 0, 1,
	}, s.Target.Masks.Data())
	assert.Equal(t, []float32{
		3, 1, 2,
		0, 0, 0,
	}, s.Target.Keypoints.Data())

	r, _, _, _ := s.Image.At(0, 0).RGBA()
	assert.Equal(t, uint32(150)*0x101, r)
}

func TestHorizontalFlipTensor(t *testing.T) {
	s := newSample()
	require.NoError(t, ToTensor{}.Apply(s))
	require.NoError(t, HorizontalFlip(s))

	data := s.Tensor.Data().([]float32)
	assert.InDelta(t, 150.0/255.0, data[0], 1e-6)
	assert.InDelta(t, 0.0, data[3], 1e-6)
}

func TestHorizontalFlipTwiceRestores(t *testing.T) {
	s := newSample()
	require.NoError(t, HorizontalFlip(s))
	require.NoError(t, HorizontalFlip(s))

	assert.Equal(t, []float32{0, 0, 1, 2}, s.Target.Boxes.Data())
	assert.Equal(t, []uint8{1, 0, 0, 0, 1, 0, 0, 0}, s.Target.Masks.Data())
}

func TestRandomHorizontalFlip(t *testing.T) {
	tests := []struct {
		name    string
		p       float64
		flipped bool
	}{
		{name: "never", p: 0, flipped: false},
		{name: "always", p: 1, flipped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := int64(7)
			s := newSample()
			require.NoError(t, NewRandomHorizontalFlip(tt.p, &seed).Apply(s))

			want := []float32{0, 0, 1, 2}
			if tt.flipped {
				want = []float32{3, 0, 4, 2}
			}
			assert.Equal(t, want, s.Target.Boxes.Data())
		})
	}
}

func TestRandomHorizontalFlipSeeded(t *testing.T) {
	seed := int64(42)
	a := NewRandomHorizontalFlip(0.5, &seed)
	b := NewRandomHorizontalFlip(0.5, &seed)

	for i := 0; i < 20; i++ {
		sa, sb := newSample(), newSample()
		require.NoError(t, a.Apply(sa))
		require.NoError(t, b.Apply(sb))
		assert.Equal(t, sa.Target.Boxes.Data(), sb.Target.Boxes.Data())
	}
}

func TestResize(t *testing.T) {
	s := newSample()
	require.NoError(t, Resize{Width: 8, Height: 4}.Apply(s))

	w, h, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)

	assert.Equal(t, []float32{0, 0, 2, 4}, s.Target.Boxes.Data())
	area, err := s.Target.Area.At(0)
	require.NoError(t, err)
	assert.Equal(t, float32(8), area)
	assert.Equal(t, tensor.Shape{1, 4, 8}, s.Target.Masks.Shape())
	assert.Equal(t, []uint8{
		1, 1, 0, 0, 0, 0, 0, 0,
		1, 1, 0, 0, 0, 0, 0, 0,
		1, 1, 0, 0, 0, 0, 0, 0,
		1, 1, 0, 0, 0, 0, 0, 0,
	}, s.Target.Masks.Data())
	assert.Equal(t, []float32{2, 2, 2, 6, 2, 0}, s.Target.Keypoints.Data())
}

func TestResizeErrors(t *testing.T) {
	err := Resize{Width: 0, Height: 4}.Apply(newSample())
	assert.Error(t, err)

	s := newSample()
	require.NoError(t, ToTensor{}.Apply(s))
	err = Resize{Width: 8, Height: 4}.Apply(s)
	assert.True(t, errors.Is(err, ErrNoImage))
}

func TestComposeStopsOnError(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	c := Compose{
		TransformFunc(func(*Sample) error { calls++; return nil }),
		TransformFunc(func(*Sample) error { return boom }),
		TransformFunc(func(*Sample) error { calls++; return nil }),
	}

	assert.Equal(t, boom, c.Apply(&Sample{}))
	assert.Equal(t, 1, calls)
}

func TestDefaultPipelinesSeeded(t *testing.T) {
	seed := int64(11)
	a := DefaultPipelinesSeeded(&seed)
	b := DefaultPipelinesSeeded(&seed)

	flips := 0
	for i := 0; i < 20; i++ {
		sa, sb := newSample(), newSample()
		require.NoError(t, a.Train.Apply(sa))
		require.NoError(t, b.Train.Apply(sb))
		assert.Equal(t, sa.Target.Boxes.Data(), sb.Target.Boxes.Data())
		assert.Equal(t, sa.Tensor.Data(), sb.Tensor.Data())
		if sa.Target.Boxes.Data().([]float32)[0] != 0 {
			flips++
		}
	}
	assert.Greater(t, flips, 0)
	assert.Less(t, flips, 20)
}

func TestDefaultPipelines(t *testing.T) {
	p := DefaultPipelines()

	s := newSample()
	require.NoError(t, p.For(true).Apply(s))
	assert.Nil(t, s.Image)
	assert.NotNil(t, s.Tensor)
	assert.Equal(t, []float32{0, 0, 1, 2}, s.Target.Boxes.Data())

	s = newSample()
	require.NoError(t, p.For(false).Apply(s))
	assert.NotNil(t, s.Tensor)
}
