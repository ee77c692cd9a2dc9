package valuation

import (
	"context"
	"time"

	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Valuation tests only read observations; everything else is inert.
type stubRepo struct {
	obsByProduct map[string][]models.PriceObservation
}

func (s *stubRepo) ListPriceObservations(ctx context.Context, params repository.ListObservationsParams) ([]models.PriceObservation, error) {
	if s.obsByProduct == nil {
		return nil, nil
	}
	var out []models.PriceObservation
	for _, o := range s.obsByProduct[params.ProductID] {
		if params.Since != nil && o.ObservedAt.Before(*params.Since) {
			continue
		}
		out = append(out, o)
	}
	// Newest first, matching the store contract.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ObservedAt.After(out[i].ObservedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *stubRepo) UpsertProduct(ctx context.Context, item *models.Product) error { return nil }
func (s *stubRepo) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return nil, nil
}
func (s *stubRepo) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	return nil, nil
}
func (s *stubRepo) CountProducts(ctx context.Context, params repository.ListProductsParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) ListSealedProductIDs(ctx context.Context, category *string, limit, offset int) ([]string, error) {
	return nil, nil
}
func (s *stubRepo) UpsertComponentMappings(ctx context.Context, items []models.ComponentMapping) error {
	return nil
}
func (s *stubRepo) ListComponentMappings(ctx context.Context, sealedProductID string) ([]models.ComponentMapping, error) {
	return nil, nil
}
func (s *stubRepo) InsertPriceObservations(ctx context.Context, items []models.PriceObservation) error {
	return nil
}
func (s *stubRepo) InsertOpportunity(ctx context.Context, item *models.Opportunity) error { return nil }
func (s *stubRepo) GetOpportunityByID(ctx context.Context, id string) (*models.Opportunity, error) {
	return nil, nil
}
func (s *stubRepo) GetActiveOpportunityByProduct(ctx context.Context, sealedProductID string) (*models.Opportunity, error) {
	return nil, nil
}
func (s *stubRepo) UpdateOpportunitySnapshot(ctx context.Context, id string, updates map[string]any) error {
	return nil
}
func (s *stubRepo) TransitionOpportunityStatus(ctx context.Context, id, fromStatus, toStatus string, updates map[string]any) (int64, error) {
	return 0, nil
}
func (s *stubRepo) ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
func (s *stubRepo) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	return nil, nil
}
func (s *stubRepo) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) OpportunityStats(ctx context.Context, scope repository.StatsScope) (repository.OpportunityStats, error) {
	return repository.OpportunityStats{}, nil
}
func (s *stubRepo) InsertAlert(ctx context.Context, item *models.Alert) error { return nil }
func (s *stubRepo) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	return nil
}
func (s *stubRepo) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	return nil, nil
}
func (s *stubRepo) ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error) {
	return nil, nil
}
