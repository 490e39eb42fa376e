package valueobject

// BoundingBox is a rectangular region in an image, in source pixel
// coordinates. Width and height are always non-negative; x/y may be
// negative or extend past the image when the box was derived from a scale
// or padding operation — cropping is responsible for clamping.
type BoundingBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// NewBoundingBox builds a box from origin and extent.
func NewBoundingBox(x, y, width, height int) BoundingBox {
	return BoundingBox{X: x, Y: y, Width: width, Height: height}
}

// BoundingBoxFromCorners builds a box from two opposite corners, in either order.
func BoundingBoxFromCorners(x1, y1, x2, y2 int) BoundingBox {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return BoundingBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Center returns the integer center point of the box.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area returns width*height.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Right returns the x coordinate of the right edge.
func (b BoundingBox) Right() int {
	return b.X + b.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (b BoundingBox) Bottom() int {
	return b.Y + b.Height
}

// Intersects reports whether this box overlaps another.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.X < other.Right() && b.Right() > other.X &&
		b.Y < other.Bottom() && b.Bottom() > other.Y
}

// IoU computes the intersection-over-union (Jaccard index) with another box.
// Returns 0 when the boxes are disjoint or either is empty.
func (b BoundingBox) IoU(other BoundingBox) float32 {
	x1 := max(b.X, other.X)
	y1 := max(b.Y, other.Y)
	x2 := min(b.Right(), other.Right())
	y2 := min(b.Bottom(), other.Bottom())

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := b.Area() + other.Area() - intersection
	if union == 0 {
		return 0
	}
	return float32(intersection) / float32(union)
}

// Scale returns a copy scaled by factor about its own center.
func (b BoundingBox) Scale(factor float32) BoundingBox {
	cx, cy := b.Center()
	newW := int(float32(b.Width) * factor)
	newH := int(float32(b.Height) * factor)
	return BoundingBox{
		X:      cx - newW/2,
		Y:      cy - newH/2,
		Width:  newW,
		Height: newH,
	}
}

// ToArray returns [x, y, width, height].
func (b BoundingBox) ToArray() [4]int {
	return [4]int{b.X, b.Y, b.Width, b.Height}
}

// BoundingBoxFromArray builds a box from [x, y, width, height].
func BoundingBoxFromArray(arr [4]int) BoundingBox {
	return NewBoundingBox(arr[0], arr[1], arr[2], arr[3])
}
