package valueobject

import "testing"

func TestNewGeoLocationClampsLatitude(t *testing.T) {
	g := NewGeoLocation(95, 0)
	if g.Latitude != 90 {
		t.Fatalf("expected clamp to 90, got %v", g.Latitude)
	}
	g = NewGeoLocation(-95, 0)
	if g.Latitude != -90 {
		t.Fatalf("expected clamp to -90, got %v", g.Latitude)
	}
}

func TestNewGeoLocationClampsLongitude(t *testing.T) {
	g := NewGeoLocation(0, 185)
	if g.Longitude != 180 {
		t.Fatalf("expected clamp to 180, got %v", g.Longitude)
	}
	g = NewGeoLocation(0, -185)
	if g.Longitude != -180 {
		t.Fatalf("expected clamp to -180, got %v", g.Longitude)
	}
}

func TestDistanceToSelfIsZero(t *testing.T) {
	g := NewGeoLocation(37.7749, -122.4194)
	if d := g.DistanceTo(g); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}

func TestDistanceToIsSymmetric(t *testing.T) {
	a := NewGeoLocation(37.7749, -122.4194)
	b := NewGeoLocation(40.7128, -74.0060)
	if a.DistanceTo(b) != b.DistanceTo(a) {
		t.Fatalf("distance not symmetric")
	}
}

func TestDistanceBetweenKnownCitiesIsApproximatelyCorrect(t *testing.T) {
	sf := NewGeoLocation(37.7749, -122.4194)
	ny := NewGeoLocation(40.7128, -74.0060)
	d := sf.DistanceTo(ny)
	// true great-circle distance is roughly 4,129 km
	const expected = 4_129_000.0
	const tolerance = 50_000.0
	if d < expected-tolerance || d > expected+tolerance {
		t.Fatalf("expected ~%v meters, got %v", expected, d)
	}
}

func TestDisplayFallsBackToCoordinates(t *testing.T) {
	g := NewGeoLocation(1.5, 2.5)
	if got := g.Display(); got != "1.500000, 2.500000" {
		t.Fatalf("unexpected display: %v", got)
	}
}

func TestDisplayUsesNameWhenSet(t *testing.T) {
	g := NewGeoLocationWithMetadata(1.5, 2.5, nil, nil, "Front Door")
	if got := g.Display(); got != "Front Door" {
		t.Fatalf("unexpected display: %v", got)
	}
}

func TestArrayRoundTripGeoLocation(t *testing.T) {
	g := NewGeoLocation(12.34, 56.78)
	got := GeoLocationFromArray(g.ToArray())
	if got.Latitude != g.Latitude || got.Longitude != g.Longitude {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, g)
	}
}
