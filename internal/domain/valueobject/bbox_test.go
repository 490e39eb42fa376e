package valueobject

import "testing"

func TestIoUOfIdenticalBoxesIsOne(t *testing.T) {
	b := NewBoundingBox(10, 10, 50, 50)
	if got := b.IoU(b); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestIoUIsSymmetric(t *testing.T) {
	a := NewBoundingBox(0, 0, 40, 40)
	b := NewBoundingBox(20, 20, 40, 40)
	if a.IoU(b) != b.IoU(a) {
		t.Fatalf("IoU not symmetric: %v vs %v", a.IoU(b), b.IoU(a))
	}
}

func TestIoUOfDisjointBoxesIsZero(t *testing.T) {
	a := NewBoundingBox(0, 0, 10, 10)
	b := NewBoundingBox(100, 100, 10, 10)
	if got := a.IoU(b); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestIoUIsBoundedBetweenZeroAndOne(t *testing.T) {
	a := NewBoundingBox(0, 0, 40, 40)
	b := NewBoundingBox(10, 10, 40, 40)
	got := a.IoU(b)
	if got < 0 || got > 1 {
		t.Fatalf("IoU out of range: %v", got)
	}
}

func TestIntersectsMatchesIoU(t *testing.T) {
	a := NewBoundingBox(0, 0, 10, 10)
	b := NewBoundingBox(5, 5, 10, 10)
	if !a.Intersects(b) {
		t.Fatal("expected boxes to intersect")
	}
	if a.IoU(b) == 0 {
		t.Fatal("expected nonzero IoU for intersecting boxes")
	}
}

func TestBoundingBoxFromCornersNormalizesOrder(t *testing.T) {
	b := BoundingBoxFromCorners(30, 30, 10, 10)
	if b.X != 10 || b.Y != 10 || b.Width != 20 || b.Height != 20 {
		t.Fatalf("unexpected box: %+v", b)
	}
}

func TestScalePreservesCenter(t *testing.T) {
	b := NewBoundingBox(10, 10, 20, 20)
	cx, cy := b.Center()
	scaled := b.Scale(2.0)
	scx, scy := scaled.Center()
	if abs(scx-cx) > 1 || abs(scy-cy) > 1 {
		t.Fatalf("center drifted: (%d,%d) -> (%d,%d)", cx, cy, scx, scy)
	}
	if scaled.Width != 40 || scaled.Height != 40 {
		t.Fatalf("unexpected scaled size: %+v", scaled)
	}
}

func TestArrayRoundTrip(t *testing.T) {
	b := NewBoundingBox(1, 2, 3, 4)
	if got := BoundingBoxFromArray(b.ToArray()); got != b {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, b)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
