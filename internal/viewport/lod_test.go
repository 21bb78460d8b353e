package viewport

import (
	"testing"
)

func TestIntervalForScaleThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scale float64
		want  int
	}{
		{0.2, 100},
		{1.0999, 100},
		{1.1, 40},
		{1.99, 40},
		{2.0, 20},
		{3.59, 20},
		{3.6, 10},
		{5.99, 10},
		{6.0, 0},
		{48.0, 0},
	}
	for _, tt := range tests {
		if got := IntervalForScale(tt.scale); got != tt.want {
			t.Errorf("IntervalForScale(%v) = %d, want %d", tt.scale, got, tt.want)
		}
	}
}

func TestIntervalForScaleMonotonic(t *testing.T) {
	t.Parallel()

	prev := IntervalForScale(0.1)
	for s := 0.2; s <= 10.0; s += 0.1 {
		cur := IntervalForScale(s)
		if cur > prev {
			t.Fatalf("interval increased from %d to %d at scale %v", prev, cur, s)
		}
		prev = cur
	}
}

func TestShouldDraw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		elevation int
		major     bool
		points    int
		interval  int
		want      bool
	}{
		{"interval 0 draws everything", 37, false, 2, 0, true},
		{"on-grid minor", 200, false, 10, 100, true},
		{"off-grid minor hidden", 120, false, 10, 100, false},
		{"off-grid major survives at 40", 150, true, 10, 40, true},
		{"off-grid major survives at 100", 150, true, 10, 100, true},
		{"off-grid major hidden at 20", 130, true, 10, 20, false},
		{"negative elevation uses magnitude", -40, false, 10, 40, true},
		{"negative off-grid hidden", -30, false, 10, 40, false},
		{"zero contour major", 0, true, 10, 100, true},
		{"zero contour minor fine interval", 0, false, 10, 20, true},
		{"zero contour minor coarse interval", 0, false, 10, 40, false},
		{"short fragment suppressed at 20", 100, false, 2, 20, false},
		{"short fragment suppressed at 100", 200, true, 2, 100, false},
		{"short fragment kept at 10", 100, false, 2, 10, true},
		{"short fragment kept at 0", 100, false, 2, 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ShouldDraw(tt.elevation, tt.major, tt.points, tt.interval)
			if got != tt.want {
				t.Errorf("ShouldDraw(%d, %v, %d, %d) = %v, want %v",
					tt.elevation, tt.major, tt.points, tt.interval, got, tt.want)
			}
		})
	}
}
