package risk

import (
	"github.com/jaswa1/arbitrary-rage/internal/config"
	"github.com/jaswa1/arbitrary-rage/internal/models"
)

// Classifier buckets a scored opportunity into low/medium/high risk with a
// first-match-wins threshold table. Identical inputs always classify
// identically; there is no randomness and no hidden state.
type Classifier struct {
	cfg config.RiskConfig
}

func NewClassifier(cfg config.RiskConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify checks the low row first, then the medium row; anything that
// clears neither is high risk. Both floors of a row must be met.
func (c *Classifier) Classify(confidence float64, marginPct float64) string {
	if confidence >= c.cfg.LowConfidenceFloor && marginPct >= c.cfg.LowMarginFloorPct {
		return models.RiskLow
	}
	if confidence >= c.cfg.MediumConfidenceFloor && marginPct >= c.cfg.MediumMarginFloorPct {
		return models.RiskMedium
	}
	return models.RiskHigh
}
