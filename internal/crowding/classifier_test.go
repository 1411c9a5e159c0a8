package crowding

import "testing"

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		clicks int
		want   Level
	}{
		{0, LevelRelaxed},
		{14, LevelRelaxed},
		{15, LevelNormal},
		{29, LevelNormal},
		{30, LevelBusy},
		{1000, LevelBusy},
	}

	for _, tt := range tests {
		if got := Classify(tt.clicks); got != tt.want {
			t.Errorf("Classify(%d) = %v, want %v", tt.clicks, got, tt.want)
		}
	}
}

func TestClassify_Monotonic(t *testing.T) {
	prev := Classify(0)
	for clicks := 1; clicks <= 100; clicks++ {
		cur := Classify(clicks)
		if cur < prev {
			t.Fatalf("Classify(%d) = %v is below Classify(%d) = %v", clicks, cur, clicks-1, prev)
		}
		prev = cur
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		if got := Classify(22); got != LevelNormal {
			t.Fatalf("Classify(22) = %v on call %d, want NORMAL", got, i)
		}
	}
}

func TestClassifyWithCapacity_MatchesRawThresholds(t *testing.T) {
	// Capacity is an extension point and must not change the fixed
	// raw-count thresholds.
	for _, capacity := range []int{1, 50, 500} {
		if got := ClassifyWithCapacity(14, capacity); got != LevelRelaxed {
			t.Errorf("ClassifyWithCapacity(14, %d) = %v, want RELAXED", capacity, got)
		}
		if got := ClassifyWithCapacity(30, capacity); got != LevelBusy {
			t.Errorf("ClassifyWithCapacity(30, %d) = %v, want BUSY", capacity, got)
		}
	}
}

func TestLevel_Ordering(t *testing.T) {
	if !(LevelRelaxed < LevelNormal && LevelNormal < LevelBusy) {
		t.Fatal("levels must order RELAXED < NORMAL < BUSY")
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []Level{LevelRelaxed, LevelNormal, LevelBusy} {
		got, ok := ParseLevel(level.String())
		if !ok || got != level {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, true", level.String(), got, ok, level)
		}
	}

	for _, bad := range []string{"", "relaxed", "PACKED", "여유"} {
		if _, ok := ParseLevel(bad); ok {
			t.Errorf("ParseLevel(%q) accepted, want rejection", bad)
		}
	}
}

func TestLevel_Labels(t *testing.T) {
	tests := []struct {
		level Level
		str   string
		label string
	}{
		{LevelRelaxed, "RELAXED", "여유"},
		{LevelNormal, "NORMAL", "보통"},
		{LevelBusy, "BUSY", "혼잡"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.str {
			t.Errorf("%v.String() = %q, want %q", tt.level, got, tt.str)
		}
		if got := tt.level.Label(); got != tt.label {
			t.Errorf("%v.Label() = %q, want %q", tt.level, got, tt.label)
		}
	}
}
