package tmap

import "encoding/json"

// pedestrianRequest is the request body for the pedestrian routes endpoint.
// The API takes coordinates as decimal strings.
type pedestrianRequest struct {
	StartX       string `json:"startX"`
	StartY       string `json:"startY"`
	EndX         string `json:"endX"`
	EndY         string `json:"endY"`
	ReqCoordType string `json:"reqCoordType"`
	ResCoordType string `json:"resCoordType"`
	StartName    string `json:"startName"`
	EndName      string `json:"endName"`
}

// featureCollection is the GeoJSON-shaped route response.
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   featureGeometry   `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

// featureGeometry holds coordinates raw because the shape depends on Type:
// a Point carries [lon, lat] and a LineString [[lon, lat], ...].
type featureGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type featureProperties struct {
	// Distance and Time are the per-feature leg values; route totals are
	// their sum over the whole collection.
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`

	Index       int    `json:"index"`
	PointIndex  int    `json:"pointIndex"`
	PointType   string `json:"pointType"`
	Description string `json:"description"`
	TurnType    int    `json:"turnType"`
}

// errorResponse is the provider error envelope.
type errorResponse struct {
	Error struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"error"`
}
