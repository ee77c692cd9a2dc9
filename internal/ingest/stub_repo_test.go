package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Ingest tests record inserted observations and page a fixed product list.
type stubRepo struct {
	mu       sync.Mutex
	products []models.Product
	inserted []models.PriceObservation
}

func (s *stubRepo) InsertPriceObservations(ctx context.Context, items []models.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, items...)
	return nil
}

func (s *stubRepo) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if params.Offset >= len(s.products) {
		return nil, nil
	}
	out := s.products[params.Offset:]
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) UpsertProduct(ctx context.Context, item *models.Product) error { return nil }
func (s *stubRepo) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
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
func (s *stubRepo) ListPriceObservations(ctx context.Context, params repository.ListObservationsParams) ([]models.PriceObservation, error) {
	return nil, nil
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
