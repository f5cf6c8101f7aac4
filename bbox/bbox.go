// Package bbox - Bounding box value types for ground-truth annotations.
package bbox

import (
	"fmt"
	"math"

	"github.com/nvr-ai/go-detset/images"
	"github.com/pkg/errors"
)

// ErrInvalidGeometry is returned when box coordinates do not describe a non-empty
// rectangle inside the positive quadrant.
var ErrInvalidGeometry = errors.New("invalid bounding box geometry")

// Bbox is an immutable axis-aligned box in integer pixel coordinates.
//
// Right and Bottom are exclusive, like image.Rectangle.
type Bbox struct {
	left, top, right, bottom int
}

// New returns the box (left, top, right, bottom).
//
// Arguments:
// - left, top: The top-left corner, both >= 0.
// - right, bottom: The bottom-right corner, strictly greater than left and top.
//
// Returns:
// - The box.
// - ErrInvalidGeometry if the coordinates are not strictly increasing or are negative.
//
// @example
// b, err := bbox.New(61, 59, 273, 244)
// area := b.SurfaceArea() // 212 * 185
func New(left, top, right, bottom int) (Bbox, error) {
	b := Bbox{left: left, top: top, right: right, bottom: bottom}
	if !b.IsValid() {
		return Bbox{}, errors.Wrapf(ErrInvalidGeometry, "(%d, %d, %d, %d)", left, top, right, bottom)
	}
	return b, nil
}

// FromXYWH builds a box from a COCO style [x, y, width, height] quad.
// The integer box encloses the float one: x and y are floored, x+w and y+h ceiled.
func FromXYWH(x, y, w, h float64) (Bbox, error) {
	return New(
		int(math.Floor(x)),
		int(math.Floor(y)),
		int(math.Ceil(x+w)),
		int(math.Ceil(y+h)),
	)
}

// IsValid reports whether the box satisfies the geometry invariant.
func (b Bbox) IsValid() bool {
	return b.left >= 0 && b.top >= 0 && b.left < b.right && b.top < b.bottom
}

func (b Bbox) Left() int   { return b.left }
func (b Bbox) Top() int    { return b.top }
func (b Bbox) Right() int  { return b.right }
func (b Bbox) Bottom() int { return b.bottom }

func (b Bbox) Width() int  { return b.right - b.left }
func (b Bbox) Height() int { return b.bottom - b.top }

// SurfaceArea returns width * height in pixels.
func (b Bbox) SurfaceArea() int {
	return b.Width() * b.Height()
}

// Rect returns the (left, top, right, bottom) tuple.
func (b Bbox) Rect() (left, top, right, bottom int) {
	return b.left, b.top, b.right, b.bottom
}

// ToRect converts the box to the lightweight images.Rect.
func (b Bbox) ToRect() images.Rect {
	return images.Rect{X1: b.left, Y1: b.top, X2: b.right, Y2: b.bottom}
}

// IoU returns the Intersection over Union of b and other.
func (b Bbox) IoU(other Bbox) float32 {
	return images.CalculateIoU(b.ToRect(), other.ToRect())
}

func (b Bbox) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", b.left, b.top, b.right, b.bottom)
}
