// Package geo provides geographic coordinate types and geodesic distance
// calculations for shelter lookup and ranking.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the Earth's volumetric mean radius in kilometers,
// the conventional value for spherical distance approximations.
const EarthRadiusKm = 6371.0

// Coordinate represents a geographic point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate is within valid latitude/longitude
// ranges. Latitude must be in [-90, 90] and longitude in [-180, 180].
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}

// Distance returns the great-circle distance between two coordinates in
// kilometers, computed with the haversine formula on a sphere of radius
// EarthRadiusKm. Inputs are not validated; callers validate ranges.
func Distance(a, b Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// DistanceMeters returns the great-circle distance between two coordinates
// in meters.
func DistanceMeters(a, b Coordinate) float64 {
	return Distance(a, b) * 1000
}

// FormatDistance renders a distance in kilometers as a short display label.
// Distances under 1 km render as whole meters ("250m"); longer distances
// render with one decimal place ("1.3km").
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%dm", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1fkm", km)
}
