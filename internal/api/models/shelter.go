package models

// Facilities lists the amenities available at a shelter.
type Facilities struct {
	Wifi     bool `json:"wifi"`
	Showers  bool `json:"showers"`
	Beds     bool `json:"beds"`
	FirstAid bool `json:"firstAid"`
}

// ShelterSummary is the list-view representation of a shelter,
// ordered by distance from the requesting user.
type ShelterSummary struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Address        string        `json:"address"`
	Point          Point         `json:"point"`
	DistanceMeters *float64      `json:"distanceMeters,omitempty"`
	DistanceLabel  *string       `json:"distanceLabel,omitempty"`
	Crowding       *CrowdingInfo `json:"crowding,omitempty"`
}

// ShelterDetail is the full representation of a single shelter.
type ShelterDetail struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Address        string            `json:"address"`
	Point          Point             `json:"point"`
	Capacity       *int              `json:"capacity,omitempty"`
	AreaSqm        *float64          `json:"areaSqm,omitempty"`
	Facilities     Facilities        `json:"facilities"`
	OperatingHours map[string]string `json:"operatingHours,omitempty"`
	Remark         string            `json:"remark,omitempty"`
	Crowding       *CrowdingInfo     `json:"crowding,omitempty"`
}

// ShelterListResponse is the response for listing shelters near a location.
type ShelterListResponse struct {
	Origin          Point            `json:"origin"`
	OriginIsDefault bool             `json:"originIsDefault"`
	Shelters        []ShelterSummary `json:"shelters"`
	GeneratedAt     Timestamp        `json:"generatedAt"`
}
