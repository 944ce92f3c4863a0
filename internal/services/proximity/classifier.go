package proximity

import (
	"errors"
	"math"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
)

// Threshold constants. DistalThresholdPct bounds how far above the proximal
// line a price may sit and still count as approaching. The filtered variant
// additionally requires at least MinAbovePct of separation.
const (
	DefaultDistalThresholdPct = 0.03
	MinAbovePct               = 0.03
	DefaultMaxDistancePct     = 0.10
)

// ErrInsufficientData marks a zone whose reference price was missing, zero
// or non-numeric. Callers skip the zone; the scan as a whole continues.
var ErrInsufficientData = errors.New("proximity: insufficient price data")

// Classify compares a zone against a reference price.
//
// Tie-breaks: a price exactly on the proximal line is approaching, not
// entered (closed lower bound on approaching, open upper bound on entered);
// a price exactly on the distal line is other (the zone is considered
// broken, not entered).
func Classify(z models.Zone, refPrice float64, distalThresholdPct float64) (models.Classification, error) {
	if !usablePrice(refPrice) {
		return models.Classification{}, ErrInsufficientData
	}
	if distalThresholdPct <= 0 {
		distalThresholdPct = DefaultDistalThresholdPct
	}

	c := models.Classification{
		Status:      models.StatusOther,
		PercentDiff: (refPrice - z.ProximalLine) / refPrice,
	}

	switch {
	case refPrice > z.DistalLine && refPrice < z.ProximalLine:
		c.Status = models.StatusEntered
	case refPrice >= z.ProximalLine && refPrice <= z.ProximalLine*(1+distalThresholdPct):
		c.Status = models.StatusApproaching
	}
	return c, nil
}

// PassesFilter implements the dual-threshold search rule: the reference
// price must be at least MinAbovePct above the proximal line AND the
// absolute relative distance must stay within maxPct. A zone failing
// either condition is omitted from the filtered set.
func PassesFilter(z models.Zone, refPrice float64, maxPct float64) bool {
	if !usablePrice(refPrice) || z.ProximalLine <= 0 {
		return false
	}
	if maxPct <= 0 {
		maxPct = DefaultMaxDistancePct
	}
	above := (refPrice - z.ProximalLine) / refPrice
	if above < MinAbovePct {
		return false
	}
	distance := math.Abs(z.ProximalLine-refPrice) / refPrice
	return distance <= maxPct
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
