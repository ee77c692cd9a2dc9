package analysis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository
// with enough behavior to run the whole pipeline end to end.
type stubRepo struct {
	mu           sync.Mutex
	products     map[string]*models.Product
	mappings     map[string][]models.ComponentMapping
	obsByProduct map[string][]models.PriceObservation
	opps         map[string]*models.Opportunity
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		products:     map[string]*models.Product{},
		mappings:     map[string][]models.ComponentMapping{},
		obsByProduct: map[string][]models.PriceObservation{},
		opps:         map[string]*models.Opportunity{},
	}
}

func (s *stubRepo) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (s *stubRepo) ListSealedProductIDs(ctx context.Context, category *string, limit, offset int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, p := range s.products {
		if p.Kind != models.ProductKindSealed || !p.Active {
			continue
		}
		if category != nil && p.Category != *category {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *stubRepo) ListComponentMappings(ctx context.Context, sealedProductID string) ([]models.ComponentMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mappings[sealedProductID], nil
}

func (s *stubRepo) ListPriceObservations(ctx context.Context, params repository.ListObservationsParams) ([]models.PriceObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PriceObservation
	for _, o := range s.obsByProduct[params.ProductID] {
		if params.Since != nil && o.ObservedAt.Before(*params.Since) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	return out, nil
}

func (s *stubRepo) InsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.opps[cp.ID] = &cp
	return nil
}

func (s *stubRepo) GetOpportunityByID(ctx context.Context, id string) (*models.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.opps[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (s *stubRepo) GetActiveOpportunityByProduct(ctx context.Context, sealedProductID string) (*models.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.opps {
		if item.SealedProductID == sealedProductID && item.Status == models.OpportunityStatusActive {
			cp := *item
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) UpdateOpportunitySnapshot(ctx context.Context, id string, updates map[string]any) error {
	return nil
}

func (s *stubRepo) TransitionOpportunityStatus(ctx context.Context, id, fromStatus, toStatus string, updates map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.opps[id]
	if !ok || item.Status != fromStatus {
		return 0, nil
	}
	item.Status = toStatus
	return 1, nil
}

func (s *stubRepo) ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) UpsertProduct(ctx context.Context, item *models.Product) error { return nil }
func (s *stubRepo) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	return nil, nil
}
func (s *stubRepo) CountProducts(ctx context.Context, params repository.ListProductsParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) UpsertComponentMappings(ctx context.Context, items []models.ComponentMapping) error {
	return nil
}
func (s *stubRepo) InsertPriceObservations(ctx context.Context, items []models.PriceObservation) error {
	return nil
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
