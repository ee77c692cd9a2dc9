package config

import (
	"fmt"
	"math"

	"github.com/jaswa1/arbitrary-rage/internal/engine"
)

// Validate runs once at startup. Any violation is fatal: a half-checked
// weight set would silently skew every score afterwards.
func (c Config) Validate() error {
	w := c.Confidence.Weights
	for name, val := range map[string]float64{
		"confidence.weights.price_stability":    w.PriceStability,
		"confidence.weights.seller_count":       w.SellerCount,
		"confidence.weights.volume_consistency": w.VolumeConsistency,
		"confidence.weights.margin_size":        w.MarginSize,
	} {
		if val < 0 || val > 1 {
			return fmt.Errorf("%w: %s=%v outside [0,1]", engine.ErrConfiguration, name, val)
		}
	}
	sum := w.PriceStability + w.SellerCount + w.VolumeConsistency + w.MarginSize
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: confidence weights sum to %v, want 1", engine.ErrConfiguration, sum)
	}

	if c.Confidence.StabilityCVCeiling <= 0 {
		return fmt.Errorf("%w: confidence.stability_cv_ceiling must be > 0", engine.ErrConfiguration)
	}
	if c.Confidence.SellerPeak <= 0 {
		return fmt.Errorf("%w: confidence.seller_peak must be > 0", engine.ErrConfiguration)
	}
	if c.Confidence.MarginBandFloorPct < 0 ||
		c.Confidence.MarginBandCeilingPct <= c.Confidence.MarginBandFloorPct {
		return fmt.Errorf("%w: margin band [%v,%v] is not a valid interval",
			engine.ErrConfiguration, c.Confidence.MarginBandFloorPct, c.Confidence.MarginBandCeilingPct)
	}
	if c.Confidence.MarginDecayPct <= 0 {
		return fmt.Errorf("%w: confidence.margin_decay_pct must be > 0", engine.ErrConfiguration)
	}

	for name, val := range map[string]float64{
		"risk.low_confidence_floor":    c.Risk.LowConfidenceFloor,
		"risk.medium_confidence_floor": c.Risk.MediumConfidenceFloor,
	} {
		if val < 0 || val > 1 {
			return fmt.Errorf("%w: %s=%v outside [0,1]", engine.ErrConfiguration, name, val)
		}
	}
	// The table is first-match-wins low→medium; an inverted table would make
	// the medium row unreachable.
	if c.Risk.LowConfidenceFloor < c.Risk.MediumConfidenceFloor {
		return fmt.Errorf("%w: low row confidence floor (%v) below medium row (%v)",
			engine.ErrConfiguration, c.Risk.LowConfidenceFloor, c.Risk.MediumConfidenceFloor)
	}
	if c.Risk.LowMarginFloorPct < c.Risk.MediumMarginFloorPct {
		return fmt.Errorf("%w: low row margin floor (%v) below medium row (%v)",
			engine.ErrConfiguration, c.Risk.LowMarginFloorPct, c.Risk.MediumMarginFloorPct)
	}

	if c.Valuation.RecencyWindow <= 0 {
		return fmt.Errorf("%w: valuation.recency_window must be > 0", engine.ErrConfiguration)
	}
	if c.Valuation.FeeRate < 0 || c.Valuation.FeeRate >= 1 {
		return fmt.Errorf("%w: valuation.fee_rate=%v outside [0,1)", engine.ErrConfiguration, c.Valuation.FeeRate)
	}
	if c.Valuation.ProbabilityTolerance < 0 {
		return fmt.Errorf("%w: valuation.probability_tolerance must be >= 0", engine.ErrConfiguration)
	}

	if c.Opportunity.TTL <= 0 {
		return fmt.Errorf("%w: opportunity.ttl must be > 0", engine.ErrConfiguration)
	}
	if c.Scan.BatchSize <= 0 {
		return fmt.Errorf("%w: scan.batch_size must be > 0", engine.ErrConfiguration)
	}
	if c.Scan.Parallelism <= 0 {
		return fmt.Errorf("%w: scan.parallelism must be > 0", engine.ErrConfiguration)
	}
	return nil
}
