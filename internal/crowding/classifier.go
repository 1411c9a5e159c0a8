package crowding

// Classification thresholds on the trailing-hour click count. Boundaries are
// inclusive lower bounds: exactly 15 clicks is NORMAL, exactly 30 is BUSY.
const (
	// NormalThreshold is the minimum hourly click count for LevelNormal.
	NormalThreshold = 15
	// BusyThreshold is the minimum hourly click count for LevelBusy.
	BusyThreshold = 30
)

// Classify maps a trailing-hour click count to a crowding level. Pure and
// deterministic: the same count always yields the same level.
func Classify(hourlyClicks int) Level {
	switch {
	case hourlyClicks >= BusyThreshold:
		return LevelBusy
	case hourlyClicks >= NormalThreshold:
		return LevelNormal
	default:
		return LevelRelaxed
	}
}

// ClassifyWithCapacity classifies a click count for a shelter with a stated
// usable headcount. Capacity is accepted as an extension point for
// normalized thresholds but does not currently alter the classification;
// the fixed raw-count thresholds apply regardless.
func ClassifyWithCapacity(hourlyClicks int, _ int) Level {
	return Classify(hourlyClicks)
}
