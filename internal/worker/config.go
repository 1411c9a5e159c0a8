// Package worker provides background job processing for Shelter Spot.
package worker

import (
	"time"
)

// WarmTarget represents a geographic region whose walking routes get
// pre-computed into the route cache.
type WarmTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the lat/lon origins to warm routes from.
	// Typically busy pedestrian areas where shelter lookups cluster.
	Points []Point

	// Priority determines warm order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// MaintenanceConfig holds configuration for the maintenance job.
type MaintenanceConfig struct {
	// Targets are the geographic regions to warm routes for.
	// If empty, uses DefaultWarmTargets.
	Targets []WarmTarget

	// Concurrency is the number of concurrent warm operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each warm operation.
	// Default: 30 seconds
	Timeout time.Duration

	// CompactClicks enables click log compaction.
	// Default: true
	CompactClicks bool

	// WarmRoutes enables route cache warming.
	// Default: true
	WarmRoutes bool

	// WarmShelterCount is how many of the nearest shelters get a route
	// warmed per origin. Default: 3
	WarmShelterCount int
}

// DefaultMaintenanceConfig returns the default maintenance configuration.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Targets:          DefaultWarmTargets(),
		Concurrency:      3,
		Timeout:          30 * time.Second,
		CompactClicks:    true,
		WarmRoutes:       true,
		WarmShelterCount: 3,
	}
}

// DefaultWarmTargets returns the default warm targets for Seoul.
// Focuses on dense pedestrian areas where shelter lookups concentrate
// during heat waves.
func DefaultWarmTargets() []WarmTarget {
	return []WarmTarget{
		{
			Name:     "Jung-gu",
			Priority: 1,
			Points: []Point{
				{Lat: 37.5666, Lon: 126.9784}, // 서울시청
				{Lat: 37.5610, Lon: 126.9826}, // 명동
				{Lat: 37.5559, Lon: 126.9723}, // 서울역
			},
		},
		{
			Name:     "Jongno-gu",
			Priority: 1,
			Points: []Point{
				{Lat: 37.5704, Lon: 126.9831}, // 종각
				{Lat: 37.5726, Lon: 126.9769}, // 광화문
			},
		},
		{
			Name:     "Gangnam-gu",
			Priority: 1,
			Points: []Point{
				{Lat: 37.4979, Lon: 127.0276}, // 강남역
				{Lat: 37.5088, Lon: 127.0627}, // 삼성역
			},
		},
		{
			Name:     "Mapo-gu",
			Priority: 2,
			Points: []Point{
				{Lat: 37.5572, Lon: 126.9239}, // 홍대입구
			},
		},
		{
			Name:     "Yeongdeungpo-gu",
			Priority: 2,
			Points: []Point{
				{Lat: 37.5219, Lon: 126.9245}, // 여의도
			},
		},
		{
			Name:     "Songpa-gu",
			Priority: 3,
			Points: []Point{
				{Lat: 37.5133, Lon: 127.1001}, // 잠실
			},
		},
		{
			Name:     "Yongsan-gu",
			Priority: 3,
			Points: []Point{
				{Lat: 37.5298, Lon: 126.9648}, // 용산역
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c MaintenanceConfig) AllPoints() []Point {
	var points []Point
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of warm origins.
func (c MaintenanceConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
