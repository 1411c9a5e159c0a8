package routing

import (
	"fmt"
	"math"
)

// FormatRouteDistance renders a route distance in kilometers with two
// decimals, e.g. "1.24km".
func FormatRouteDistance(meters float64) string {
	return fmt.Sprintf("%.2fkm", meters/1000)
}

// FormatDuration renders a walking duration for display. Durations under an
// hour show minutes only ("12분"); longer ones show hours and minutes
// ("1시간 5분"). Seconds round to the nearest minute.
func FormatDuration(seconds float64) string {
	minutes := int(math.Round(seconds / 60))
	if minutes < 60 {
		return fmt.Sprintf("%d분", minutes)
	}
	return fmt.Sprintf("%d시간 %d분", minutes/60, minutes%60)
}
