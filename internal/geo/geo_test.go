package geo

import (
	"math"
	"testing"
)

func TestDistanceM_OneDegreeLongitudeAtEquator(t *testing.T) {
	got := DistanceM(0, 0, 0, 1)
	want := 111190.0
	if math.Abs(got-want)/want > 0.005 {
		t.Fatalf("distance=%v want ~%v", got, want)
	}
}

func TestDistanceM_ZeroForSamePoint(t *testing.T) {
	if d := DistanceM(48.1, 11.5, 48.1, 11.5); d != 0 {
		t.Fatalf("distance=%v", d)
	}
}

func TestDistanceM_Symmetric(t *testing.T) {
	a := DistanceM(48.137, 11.575, 52.520, 13.405)
	b := DistanceM(52.520, 13.405, 48.137, 11.575)
	if math.Abs(a-b) > 1e-6 {
		t.Fatalf("asymmetric: %v vs %v", a, b)
	}
	// Munich to Berlin is roughly 504 km.
	if a < 490000 || a > 520000 {
		t.Fatalf("distance=%v", a)
	}
}

func TestBearingDeg_CardinalDirections(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"east along equator", 0, 0, 0, 1, 90},
		{"west along equator", 0, 1, 0, 0, 270},
		{"due north", 0, 0, 1, 0, 0},
		{"due south", 1, 0, 0, 0, 180},
	}
	for _, c := range cases {
		got := BearingDeg(c.lat1, c.lon1, c.lat2, c.lon2)
		if math.Abs(got-c.want) > 0.01 {
			t.Fatalf("%s: bearing=%v want %v", c.name, got, c.want)
		}
	}
}

func TestBearingDeg_Range(t *testing.T) {
	pts := []struct{ lat1, lon1, lat2, lon2 float64 }{
		{48.1, 11.5, 47.9, 11.2},
		{48.1, 11.5, 48.3, 11.9},
		{-33.9, 151.2, -37.8, 144.9},
	}
	for _, p := range pts {
		b := BearingDeg(p.lat1, p.lon1, p.lat2, p.lon2)
		if b < 0 || b >= 360 {
			t.Fatalf("bearing out of range: %v", b)
		}
	}
}
