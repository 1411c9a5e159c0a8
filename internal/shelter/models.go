// Package shelter provides the read-only catalog of public cooling/rest
// shelters. The catalog is supplied as a static dataset; the service only
// ever reads from it.
package shelter

import (
	"errors"

	"github.com/shelterspot/shelterspot/internal/geo"
)

// ErrShelterNotFound indicates no shelter exists with the given ID.
var ErrShelterNotFound = errors.New("shelter not found")

// Facilities describes the amenities available at a shelter.
type Facilities struct {
	Wifi     bool `json:"wifi"`
	Showers  bool `json:"showers"`
	Beds     bool `json:"beds"`
	FirstAid bool `json:"firstAid"`
}

// Shelter is a registered public facility offering rest and cooling during
// heat events. Capacity is the stated usable headcount; it is optional in
// the source dataset and nil when unknown.
type Shelter struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Address    string         `json:"address"`
	Coord      geo.Coordinate `json:"coordinates"`
	Capacity   *int           `json:"capacity,omitempty"`
	AreaSqm    *float64       `json:"areaSqm,omitempty"`
	Facilities Facilities     `json:"facilities"`

	// OperatingHours maps a lowercase weekday name ("monday".."sunday") to
	// a display string such as "09:00-18:00". Hours are per-shelter catalog
	// data supplied by the operator, not derived.
	OperatingHours map[string]string `json:"operatingHours,omitempty"`

	Remark string `json:"remark,omitempty"`
}
