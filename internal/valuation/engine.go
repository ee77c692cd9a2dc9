package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jaswa1/arbitrary-rage/internal/catalog"
	"github.com/jaswa1/arbitrary-rage/internal/engine"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

var oneHundred = decimal.NewFromInt(100)

// Engine turns the append-only observation log into current-price snapshots
// and sealed-vs-singles margins. All money math stays in decimal.
type Engine struct {
	repo          repository.Repository
	recencyWindow time.Duration
	feeRate       float64
	logger        *zap.Logger
	now           func() time.Time
}

func NewEngine(repo repository.Repository, recencyWindow time.Duration, feeRate float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		repo:          repo,
		recencyWindow: recencyWindow,
		feeRate:       feeRate,
		logger:        logger,
		now:           time.Now,
	}
}

// PriceSnapshot is the aggregated view of a product's recent observations.
// Observations holds every in-window row (newest first) so confidence scoring
// can reuse the same read.
type PriceSnapshot struct {
	ProductID string
	Price     decimal.Decimal
	// SellerCount is the max across contributing sources (sources overlap),
	// AvailableQuantity the sum of what each source reports in stock.
	SellerCount       *int
	AvailableQuantity *int
	SourceCount       int
	Observations      []models.PriceObservation
}

// Result is one sealed product's full valuation: both sides of the spread,
// the fee-adjusted margin, and how much of the composition was priceable.
type Result struct {
	SealedPrice     decimal.Decimal
	SealedSnapshot  *PriceSnapshot
	SinglesValue    decimal.Decimal
	NetSinglesValue decimal.Decimal
	MarginPct       decimal.Decimal
	// Completeness is the value-weighted share of components that had price
	// data; it discounts confidence, never the margin itself.
	Completeness float64
	Warnings     []string
}

// CurrentPrice aggregates the observations of the recency window into a
// single price: only the newest observation per source counts, and the
// aggregate is their quality-weighted median. Returns ErrNoPriceData when the
// window is empty.
func (e *Engine) CurrentPrice(ctx context.Context, productID string) (*PriceSnapshot, error) {
	if e == nil || e.repo == nil {
		return nil, fmt.Errorf("%w: valuation engine not initialized", engine.ErrConfiguration)
	}

	since := e.now().UTC().Add(-e.recencyWindow)
	obs, err := e.repo.ListPriceObservations(ctx, repository.ListObservationsParams{
		ProductID: productID,
		Since:     &since,
	})
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: product %s", engine.ErrNoPriceData, productID)
	}

	// Newest row per source; rows arrive observed_at desc so first wins.
	newest := make([]models.PriceObservation, 0, 4)
	seen := map[string]bool{}
	for _, o := range obs {
		if seen[o.Source] {
			continue
		}
		seen[o.Source] = true
		newest = append(newest, o)
	}

	snapshot := &PriceSnapshot{
		ProductID:    productID,
		Price:        weightedMedian(newest),
		SourceCount:  len(newest),
		Observations: obs,
	}
	for _, o := range newest {
		if o.SellerCount != nil {
			if snapshot.SellerCount == nil || *o.SellerCount > *snapshot.SellerCount {
				count := *o.SellerCount
				snapshot.SellerCount = &count
			}
		}
		if o.AvailableQuantity != nil {
			if snapshot.AvailableQuantity == nil {
				snapshot.AvailableQuantity = new(int)
			}
			*snapshot.AvailableQuantity += *o.AvailableQuantity
		}
	}
	return snapshot, nil
}

// weightedMedian picks the price at which cumulative quality weight crosses
// half the total. Zero/negative weights count as a nominal epsilon so a row
// never vanishes entirely.
func weightedMedian(obs []models.PriceObservation) decimal.Decimal {
	if len(obs) == 1 {
		return obs[0].Price
	}
	sorted := make([]models.PriceObservation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price.LessThan(sorted[j].Price)
	})

	var total float64
	for _, o := range sorted {
		total += normalizeWeight(o.QualityWeight)
	}
	half := total / 2
	var cum float64
	for _, o := range sorted {
		cum += normalizeWeight(o.QualityWeight)
		if cum >= half {
			return o.Price
		}
	}
	return sorted[len(sorted)-1].Price
}

func normalizeWeight(w float64) float64 {
	if w <= 0 {
		return 1e-6
	}
	if w > 1 {
		return 1
	}
	return w
}

// Value prices both sides of a resolved composition.
//
// The sealed side must price or the whole valuation fails with ErrNoPriceData.
// On the singles side missing components merely shrink completeness: each
// priceable component contributes price × quantity × pull probability
// (expected value for probabilistic pulls), and completeness is the
// probability-weighted share of components that priced.
func (e *Engine) Value(ctx context.Context, comp *catalog.Composition) (*Result, error) {
	if comp == nil || comp.SealedProduct == nil {
		return nil, fmt.Errorf("%w: empty composition", engine.ErrInsufficientData)
	}
	if len(comp.Components) == 0 {
		return nil, fmt.Errorf("%w: product %s has no component mappings", engine.ErrInsufficientData, comp.SealedProduct.ID)
	}

	sealedSnap, err := e.CurrentPrice(ctx, comp.SealedProduct.ID)
	if err != nil {
		return nil, err
	}
	if !sealedSnap.Price.IsPositive() {
		return nil, fmt.Errorf("%w: product %s has non-positive sealed price", engine.ErrInsufficientData, comp.SealedProduct.ID)
	}

	singlesValue := decimal.Zero
	var pricedWeight, totalWeight float64
	warnings := append([]string(nil), comp.Warnings...)

	for _, m := range comp.Components {
		weight := m.EffectiveProbability() * float64(m.Quantity)
		if weight <= 0 {
			continue
		}
		totalWeight += weight

		snap, err := e.CurrentPrice(ctx, m.SingleProductID)
		if err != nil {
			if engine.IsInsufficientData(err) {
				warnings = append(warnings, fmt.Sprintf("no recent price for component %s", m.SingleProductID))
				continue
			}
			return nil, err
		}
		pricedWeight += weight
		singlesValue = singlesValue.Add(snap.Price.Mul(decimal.NewFromFloat(weight)))
	}

	if totalWeight <= 0 || pricedWeight <= 0 {
		return nil, fmt.Errorf("%w: product %s has no priceable components", engine.ErrInsufficientData, comp.SealedProduct.ID)
	}

	netValue := singlesValue.Mul(decimal.NewFromFloat(1 - e.feeRate))
	margin := netValue.Sub(sealedSnap.Price).Div(sealedSnap.Price).Mul(oneHundred)

	return &Result{
		SealedPrice:     sealedSnap.Price.Round(2),
		SealedSnapshot:  sealedSnap,
		SinglesValue:    singlesValue.Round(2),
		NetSinglesValue: netValue.Round(2),
		MarginPct:       margin.Round(2),
		Completeness:    pricedWeight / totalWeight,
		Warnings:        warnings,
	}, nil
}
