package geo

import (
	"math"
	"testing"
)

func TestVincentyReferenceValues(t *testing.T) {
	cases := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
		want, tol              float64
	}{
		{"one degree latitude", 0, 0, 0, 1, 110574.389, 0.1},
		{"one degree longitude at equator", 0, 0, 1, 0, 111319.491, 0.1},
	}
	for _, c := range cases {
		got := VincentyDistance(c.lon1, c.lat1, c.lon2, c.lat2)
		if math.Abs(got-c.want) > c.tol {
			t.Fatalf("%s: got %v want %v +-%v", c.name, got, c.want, c.tol)
		}
	}
}

func TestVincentyDegenerateInputs(t *testing.T) {
	if d := VincentyDistance(10, 50, 10, 50); d != 0 {
		t.Fatalf("coincident points: %v, want 0", d)
	}
	if d := VincentyDistance(math.NaN(), 0, 1, 1); d != 0 {
		t.Fatalf("non-finite input: %v, want 0", d)
	}
}

func TestVincentySymmetry(t *testing.T) {
	a := VincentyDistance(4.48, 51.92, -74.0, 40.7) // Rotterdam -> New York
	b := VincentyDistance(-74.0, 40.7, 4.48, 51.92)
	if math.Abs(a-b) > 1e-6 {
		t.Fatalf("asymmetric distance: %v vs %v", a, b)
	}
	if a < 5.8e6 || a > 6.1e6 {
		t.Fatalf("implausible transatlantic distance: %v", a)
	}
}
