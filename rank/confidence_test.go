package rank

import (
	"math"
	"testing"
)

func TestConfidenceVolumeSaturation(t *testing.T) {
	tests := []struct {
		name        string
		ratingCount int
		agreement   float64
		want        float64
	}{
		{"zero history floors at volume floor", 0, 1.0, DefaultVolumeFloor},
		{"half trust", 25, 1.0, DefaultVolumeFloor + (1-DefaultVolumeFloor)*0.5},
		{"full trust", 50, 1.0, 1.0},
		{"beyond full trust saturates", 500, 1.0, 1.0},
		{"agreement scales multiplicatively", 50, 0.5, 0.5},
		{"zero agreement kills confidence", 500, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.ratingCount, tt.agreement, DefaultFullTrustRatings, DefaultVolumeFloor)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Confidence(%d, %.2f) = %.6f, want %.6f", tt.ratingCount, tt.agreement, got, tt.want)
			}
		})
	}
}

func TestConfidenceMonotonicInRatingCount(t *testing.T) {
	prev := -1.0
	for count := 0; count <= 100; count += 5 {
		c := Confidence(count, 0.8, DefaultFullTrustRatings, DefaultVolumeFloor)
		if c < prev {
			t.Fatalf("confidence decreased at count=%d: %.6f < %.6f", count, c, prev)
		}
		if c < 0 || c > 1 {
			t.Fatalf("confidence out of range at count=%d: %.6f", count, c)
		}
		prev = c
	}
}

func TestConfidenceClampsAgreement(t *testing.T) {
	if got := Confidence(50, 1.5, 0, -1); got != 1 {
		t.Errorf("over-range agreement: got %.4f, want 1", got)
	}
	if got := Confidence(50, -0.5, 0, -1); got != 0 {
		t.Errorf("negative agreement: got %.4f, want 0", got)
	}
}

func TestColdStartCannotReachHighConfidence(t *testing.T) {
	// 零历史用户即使信号完全一致，也到不了高置信阈值
	c := Confidence(0, 1.0, DefaultFullTrustRatings, DefaultVolumeFloor)
	if c >= DefaultHighConfidence {
		t.Errorf("cold-start confidence %.4f >= high threshold %.4f", c, DefaultHighConfidence)
	}
}

func TestAgreement(t *testing.T) {
	tests := []struct {
		cfNorm, contentScore, want float64
	}{
		{1.0, 1.0, 1.0},
		{0.0, 0.0, 1.0},
		{1.0, 0.0, 0.0},
		{0.0, 1.0, 0.0},
		{0.8, 0.6, 0.8},
	}
	for _, tt := range tests {
		if got := Agreement(tt.cfNorm, tt.contentScore); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Agreement(%.2f, %.2f) = %.6f, want %.6f", tt.cfNorm, tt.contentScore, got, tt.want)
		}
	}
}
