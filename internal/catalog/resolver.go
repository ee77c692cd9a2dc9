package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jaswa1/arbitrary-rage/internal/engine"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// Resolver answers "what singles does this sealed product contain". It treats
// the mapping table as externally owned data: it validates, it never repairs.
type Resolver struct {
	repo                 repository.Repository
	probabilityTolerance float64
	logger               *zap.Logger
}

func NewResolver(repo repository.Repository, probabilityTolerance float64, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		repo:                 repo,
		probabilityTolerance: probabilityTolerance,
		logger:               logger,
	}
}

// Composition is the resolved component list plus any consistency warnings
// found while validating it. Warnings degrade downstream confidence but do
// not block valuation.
type Composition struct {
	SealedProduct *models.Product
	Components    []models.ComponentMapping
	Warnings      []string
}

// Resolve loads the sealed product and its component mappings.
// A missing product is an error; a product with zero mappings is not — it is
// simply not composable and the caller decides what that means.
func (r *Resolver) Resolve(ctx context.Context, sealedProductID string) (*Composition, error) {
	if r == nil || r.repo == nil {
		return nil, fmt.Errorf("%w: catalog resolver not initialized", engine.ErrConfiguration)
	}

	product, err := r.repo.GetProductByID(ctx, sealedProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %s", engine.ErrNotFound, sealedProductID)
	}
	if !product.IsSealed() {
		return nil, fmt.Errorf("%w: product %s is not sealed", engine.ErrNotFound, sealedProductID)
	}

	mappings, err := r.repo.ListComponentMappings(ctx, sealedProductID)
	if err != nil {
		return nil, err
	}

	comp := &Composition{
		SealedProduct: product,
		Components:    mappings,
		Warnings:      r.validate(mappings),
	}
	if len(comp.Warnings) > 0 {
		r.logger.Warn("component mappings inconsistent",
			zap.String("sealed_product_id", sealedProductID),
			zap.Strings("warnings", comp.Warnings))
	}
	return comp, nil
}

// validate flags mapping rows the valuation engine would otherwise silently
// misprice: non-guaranteed rows with no probability, probabilities outside
// (0,1], and rarity tiers whose pull probabilities sum past 1.
func (r *Resolver) validate(mappings []models.ComponentMapping) []string {
	var warnings []string

	tierSums := map[string]float64{}
	for _, m := range mappings {
		if m.Quantity <= 0 {
			warnings = append(warnings, fmt.Sprintf("mapping %s has non-positive quantity %d", m.ID, m.Quantity))
		}
		if m.Guaranteed {
			continue
		}
		if m.PullProbability == nil {
			warnings = append(warnings, fmt.Sprintf("mapping %s is probabilistic but has no pull probability", m.ID))
			continue
		}
		p := *m.PullProbability
		if p <= 0 || p > 1 {
			warnings = append(warnings, fmt.Sprintf("mapping %s has pull probability %.4f outside (0,1]", m.ID, p))
			continue
		}
		tier := "unrated"
		if m.Rarity != nil && strings.TrimSpace(*m.Rarity) != "" {
			tier = strings.ToLower(strings.TrimSpace(*m.Rarity))
		}
		tierSums[tier] += p * float64(m.Quantity)
	}

	tiers := make([]string, 0, len(tierSums))
	for tier := range tierSums {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		if sum := tierSums[tier]; sum > 1+r.probabilityTolerance {
			warnings = append(warnings, fmt.Sprintf("rarity tier %q pull probabilities sum to %.4f", tier, sum))
		}
	}
	return warnings
}
