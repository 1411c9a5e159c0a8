package models

// CrowdingInfo describes the estimated crowding at a shelter, derived
// from detail-view clicks over the last hour.
type CrowdingInfo struct {
	Level        string    `json:"level"`
	Label        string    `json:"label"`
	HourlyClicks int       `json:"hourlyClicks"`
	ComputedAt   Timestamp `json:"computedAt"`
}

// ShelterCrowding pairs a shelter ID with its crowding estimate.
type ShelterCrowding struct {
	ShelterID string       `json:"shelterId"`
	Crowding  CrowdingInfo `json:"crowding"`
}

// CrowdingListResponse is the response for listing crowding across shelters.
type CrowdingListResponse struct {
	Shelters    []ShelterCrowding `json:"shelters"`
	GeneratedAt Timestamp         `json:"generatedAt"`
}

// ClickResponse acknowledges a recorded shelter click.
type ClickResponse struct {
	ShelterID string       `json:"shelterId"`
	Recorded  bool         `json:"recorded"`
	Crowding  CrowdingInfo `json:"crowding"`
}

// CrowdingStatsResponse reports aggregate click statistics.
type CrowdingStatsResponse struct {
	TotalClicks     int       `json:"totalClicks"`
	TrackedShelters int       `json:"trackedShelters"`
	BusyShelters    int       `json:"busyShelters"`
	GeneratedAt     Timestamp `json:"generatedAt"`
}
