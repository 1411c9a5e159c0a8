package models

// WalkingRouteRequest is the request body for computing a walking route.
// The destination may be given either as a shelter ID or as raw coordinates.
type WalkingRouteRequest struct {
	Origin          *Point  `json:"origin" validate:"required"`
	Destination     *Point  `json:"destination,omitempty"`
	ShelterID       *string `json:"shelterId,omitempty"`
	OriginName      *string `json:"originName,omitempty"`
	DestinationName *string `json:"destinationName,omitempty"`
}

// WalkingRouteResponse is the response for a computed walking route.
type WalkingRouteResponse struct {
	Provider        string    `json:"provider"`
	Fallback        bool      `json:"fallback"`
	DistanceMeters  float64   `json:"distanceMeters"`
	DistanceLabel   string    `json:"distanceLabel"`
	DurationSeconds float64   `json:"durationSeconds"`
	DurationLabel   string    `json:"durationLabel"`
	Polyline        string    `json:"polyline"`
	Turns           []Turn    `json:"turns,omitempty"`
	GeneratedAt     Timestamp `json:"generatedAt"`
}

// Turn represents a single turn-by-turn instruction along a route.
type Turn struct {
	Description string `json:"description"`
	Point       Point  `json:"point"`
	Type        int    `json:"type"`
}
