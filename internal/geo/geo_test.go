package geo

import (
	"math"
	"testing"
)

func TestDistance_Symmetric(t *testing.T) {
	pairs := []struct {
		a, b Coordinate
	}{
		{Coordinate{Lat: 37.5666, Lon: 126.9784}, Coordinate{Lat: 37.4979, Lon: 127.0276}},
		{Coordinate{Lat: -33.8688, Lon: 151.2093}, Coordinate{Lat: 51.5074, Lon: -0.1278}},
		{Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 180}},
	}

	for _, p := range pairs {
		ab := Distance(p.a, p.b)
		ba := Distance(p.b, p.a)
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Distance(%v, %v) = %f, reversed = %f", p.a, p.b, ab, ba)
		}
	}
}

func TestDistance_Zero(t *testing.T) {
	coords := []Coordinate{
		{Lat: 37.5666, Lon: 126.9784},
		{Lat: -89.9, Lon: 179.9},
		{Lat: 0, Lon: 0},
	}

	for _, c := range coords {
		if d := Distance(c, c); math.Abs(d) > 1e-9 {
			t.Errorf("Distance(%v, %v) = %f, want 0", c, c, d)
		}
	}
}

func TestDistance_KnownValue(t *testing.T) {
	// Seoul City Hall offset by 0.01 degrees latitude is about 1.11 km.
	a := Coordinate{Lat: 37.5666, Lon: 126.9784}
	b := Coordinate{Lat: a.Lat + 0.01, Lon: a.Lon}

	d := Distance(a, b)
	if math.Abs(d-1.11) > 0.05 {
		t.Errorf("Distance = %f km, want ~1.11 km", d)
	}
}

func TestCoordinate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{"valid", Coordinate{Lat: 37.5666, Lon: 126.9784}, false},
		{"lat boundary", Coordinate{Lat: 90, Lon: 180}, false},
		{"lat too high", Coordinate{Lat: 999, Lon: 0}, true},
		{"lat too low", Coordinate{Lat: -90.1, Lon: 0}, true},
		{"lon too high", Coordinate{Lat: 0, Lon: 180.1}, true},
		{"lon too low", Coordinate{Lat: 0, Lon: -181}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.coord, err, tt.wantErr)
			}
		})
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0.25, "250m"},
		{0.9994, "999m"},
		{1.0, "1.0km"},
		{1.34, "1.3km"},
		{12.06, "12.1km"},
	}

	for _, tt := range tests {
		if got := FormatDistance(tt.km); got != tt.want {
			t.Errorf("FormatDistance(%f) = %q, want %q", tt.km, got, tt.want)
		}
	}
}
