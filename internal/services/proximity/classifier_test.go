package proximity

import (
	"errors"
	"math"
	"testing"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
)

func zone(proximal, distal float64) models.Zone {
	return models.Zone{ZoneID: "z1", Ticker: "TCS", ProximalLine: proximal, DistalLine: distal}
}

func TestClassifyStatuses(t *testing.T) {
	z := zone(100, 95)
	cases := []struct {
		name string
		ref  float64
		want models.ZoneStatus
	}{
		{"on proximal counts as approaching", 100.00, models.StatusApproaching},
		{"inside ceiling", 103.00, models.StatusApproaching},
		{"just past ceiling", 103.01, models.StatusOther},
		{"inside zone body", 97.50, models.StatusEntered},
		{"just below proximal", 99.99, models.StatusEntered},
		{"on distal counts as other", 95.00, models.StatusOther},
		{"below distal", 94.00, models.StatusOther},
		{"far above", 120.00, models.StatusOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(z, tc.ref, DefaultDistalThresholdPct)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tc.want {
				t.Fatalf("ref=%v: got %s want %s", tc.ref, got.Status, tc.want)
			}
		})
	}
}

func TestClassifyPercentDiff(t *testing.T) {
	got, err := Classify(zone(100, 95), 104, DefaultDistalThresholdPct)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (104.0 - 100.0) / 104.0
	if math.Abs(got.PercentDiff-want) > 1e-12 {
		t.Fatalf("percent diff %v want %v", got.PercentDiff, want)
	}
}

func TestClassifyInsufficientData(t *testing.T) {
	for _, ref := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		if _, err := Classify(zone(100, 95), ref, 0.03); !errors.Is(err, ErrInsufficientData) {
			t.Fatalf("ref=%v: expected ErrInsufficientData, got %v", ref, err)
		}
	}
}

func TestClassifyDefaultsThreshold(t *testing.T) {
	// Non-positive threshold falls back to the 3% default.
	got, err := Classify(zone(100, 95), 103, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.StatusApproaching {
		t.Fatalf("got %s want approaching", got.Status)
	}
}

func TestPassesFilterDualThreshold(t *testing.T) {
	z := zone(100, 95)

	// (103-100)/103 = 2.91% separation, under the 3% minimum.
	if PassesFilter(z, 103, DefaultMaxDistancePct) {
		t.Fatalf("2.91%% separation must be excluded")
	}
	if !PassesFilter(z, 104, DefaultMaxDistancePct) {
		t.Fatalf("3.85%% above within 10%% ceiling must be included")
	}
	// Above minimum but past the distance ceiling.
	if PassesFilter(z, 112, DefaultMaxDistancePct) {
		t.Fatalf("distance beyond maxPct must be excluded")
	}
}

func TestPassesFilterRejectsBadInput(t *testing.T) {
	if PassesFilter(zone(100, 95), 0, 0.10) {
		t.Fatalf("zero price must be excluded")
	}
	if PassesFilter(zone(0, 0), 100, 0.10) {
		t.Fatalf("degenerate zone must be excluded")
	}
}
