package confidence

import (
	"math"
	"time"

	"github.com/jaswa1/arbitrary-rage/internal/config"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/valuation"
)

// Neutral is the sub-score used when a signal has no data to speak: it
// neither inflates nor sinks the blend.
const Neutral = 0.5

// warningPenalty discounts the final score once per valuation whose
// composition validation raised warnings.
const warningPenalty = 0.85

// Scorer blends four independent signals into one confidence value in [0,1]:
// price stability, seller depth, observation cadence, and margin
// plausibility. Missing signals score Neutral rather than zero.
type Scorer struct {
	cfg config.ConfidenceConfig
}

func NewScorer(cfg config.ConfidenceConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Breakdown exposes the sub-scores for API responses and debugging.
type Breakdown struct {
	PriceStability    float64 `json:"price_stability"`
	SellerCount       float64 `json:"seller_count"`
	VolumeConsistency float64 `json:"volume_consistency"`
	MarginSize        float64 `json:"margin_size"`
	Completeness      float64 `json:"completeness"`
	Total             float64 `json:"total"`
}

// Score computes confidence for one valuation. The weighted blend is
// multiplied by completeness, then discounted once if the composition carried
// validation warnings, and finally clamped to [0,1].
func (s *Scorer) Score(res *valuation.Result) Breakdown {
	if res == nil {
		return Breakdown{
			PriceStability:    Neutral,
			SellerCount:       Neutral,
			VolumeConsistency: Neutral,
			MarginSize:        Neutral,
		}
	}

	var obs []models.PriceObservation
	var sellerCount *int
	if res.SealedSnapshot != nil {
		obs = res.SealedSnapshot.Observations
		sellerCount = res.SealedSnapshot.SellerCount
	}

	marginPct, _ := res.MarginPct.Float64()
	b := Breakdown{
		PriceStability:    s.priceStability(obs),
		SellerCount:       s.sellerScore(sellerCount),
		VolumeConsistency: s.volumeConsistency(obs),
		MarginSize:        s.marginScore(marginPct),
		Completeness:      res.Completeness,
	}

	w := s.cfg.Weights
	total := b.PriceStability*w.PriceStability +
		b.SellerCount*w.SellerCount +
		b.VolumeConsistency*w.VolumeConsistency +
		b.MarginSize*w.MarginSize

	total *= res.Completeness
	if len(res.Warnings) > 0 {
		total *= warningPenalty
	}
	b.Total = clamp01(total)
	return b
}

// priceStability maps the coefficient of variation of recent prices onto
// [0,1]: cv of zero is perfect stability, cv at the configured ceiling (or
// beyond) is zero. Fewer than two observations is no signal.
func (s *Scorer) priceStability(obs []models.PriceObservation) float64 {
	if len(obs) < 2 {
		return Neutral
	}
	prices := make([]float64, 0, len(obs))
	for _, o := range obs {
		p, _ := o.Price.Float64()
		prices = append(prices, p)
	}
	mean, stddev := meanStddev(prices)
	if mean <= 0 {
		return Neutral
	}
	cv := stddev / mean
	if s.cfg.StabilityCVCeiling <= 0 {
		return Neutral
	}
	return clamp01(1 - cv/s.cfg.StabilityCVCeiling)
}

// sellerScore peaks at the configured seller count and decays on both sides:
// r·e^(1−r) with r = sellers/peak. Too few sellers means thin liquidity; a
// crowded listing means the spread is already being arbitraged away.
func (s *Scorer) sellerScore(sellerCount *int) float64 {
	if sellerCount == nil || s.cfg.SellerPeak <= 0 {
		return Neutral
	}
	if *sellerCount <= 0 {
		return 0
	}
	r := float64(*sellerCount) / float64(s.cfg.SellerPeak)
	return clamp01(r * math.Exp(1-r))
}

// volumeConsistency rewards an even observation cadence and a steady supply:
// regular reads mean the feed is healthy, and a stable available quantity
// means the listing depth is real rather than churning. Each half is one
// minus the coefficient of variation (of inter-observation gaps and of
// reported quantities); sources that never report quantity fall back to the
// cadence half alone.
func (s *Scorer) volumeConsistency(obs []models.PriceObservation) float64 {
	if len(obs) < 3 {
		return Neutral
	}
	times := make([]time.Time, len(obs))
	for i, o := range obs {
		times[i] = o.ObservedAt
	}
	// Observations arrive newest first.
	gaps := make([]float64, 0, len(times)-1)
	for i := 0; i < len(times)-1; i++ {
		gap := times[i].Sub(times[i+1]).Seconds()
		if gap < 0 {
			gap = -gap
		}
		gaps = append(gaps, gap)
	}
	mean, stddev := meanStddev(gaps)
	if mean <= 0 {
		return Neutral
	}
	cadence := clamp01(1 - stddev/mean)

	quantities := make([]float64, 0, len(obs))
	for _, o := range obs {
		if o.AvailableQuantity != nil {
			quantities = append(quantities, float64(*o.AvailableQuantity))
		}
	}
	if len(quantities) < 2 {
		return cadence
	}
	qMean, qStddev := meanStddev(quantities)
	if qMean <= 0 {
		return cadence
	}
	quantity := clamp01(1 - qStddev/qMean)
	return clamp01((cadence + quantity) / 2)
}

// marginScore encodes margin plausibility: full confidence inside the
// configured band, linear ramp below the floor, and an exponential falloff
// above the ceiling — margins that look too good usually mean stale or bad
// data, not free money.
func (s *Scorer) marginScore(marginPct float64) float64 {
	floor := s.cfg.MarginBandFloorPct
	ceiling := s.cfg.MarginBandCeilingPct
	decay := s.cfg.MarginDecayPct

	if marginPct <= 0 {
		return 0
	}
	if marginPct < floor {
		if floor <= 0 {
			return 1
		}
		return clamp01(marginPct / floor)
	}
	if marginPct <= ceiling {
		return 1
	}
	if decay <= 0 {
		return 0
	}
	return clamp01(math.Exp(-math.Ln2 * (marginPct - ceiling) / decay))
}

func meanStddev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
