// Package images - Image loading, color conversion and mask utilities.
package images

// Rect is a lightweight axis-aligned rectangle.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// Area returns the number of pixels covered by r, or 0 when r is degenerate.
func (r Rect) Area() int {
	w, h := r.X2-r.X1, r.Y2-r.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// CalculateIoU returns the Intersection over Union of two rectangles in [0, 1].
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float32: 0 when the rectangles do not overlap (or either is degenerate),
//     1 when they are identical.
//
// Example:
//
// ```go
//
//	iou := CalculateIoU(Rect{0, 0, 10, 10}, Rect{5, 5, 15, 15}) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	inter := Rect{
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
		X2: min(r.X2, o.X2),
		Y2: min(r.Y2, o.Y2),
	}.Area()
	if inter == 0 {
		return 0.0
	}

	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0.0
	}
	return float32(inter) / float32(union)
}
