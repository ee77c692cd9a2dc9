package opportunity

import (
	"context"
	"sync"
	"time"

	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It mirrors the store's conditional-update semantics so lifecycle races can
// be exercised for real.
type stubRepo struct {
	mu   sync.Mutex
	opps map[string]*models.Opportunity
}

func newStubRepo() *stubRepo {
	return &stubRepo{opps: map[string]*models.Opportunity{}}
}

func (s *stubRepo) InsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
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
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.opps[id]
	if !ok || item.Status != models.OpportunityStatusActive {
		return nil
	}
	applyUpdates(item, updates)
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
	applyUpdates(item, updates)
	return 1, nil
}

func (s *stubRepo) ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, item := range s.opps {
		if item.Status == models.OpportunityStatusActive &&
			item.ExpiresAt != nil && item.ExpiresAt.Before(now) {
			item.Status = models.OpportunityStatusExpired
			n++
		}
	}
	return n, nil
}

func applyUpdates(item *models.Opportunity, updates map[string]any) {
	for key, value := range updates {
		switch key {
		case "execution_quantity":
			if v, ok := value.(int); ok {
				item.ExecutionQuantity = v
			}
		case "execution_notes":
			if v, ok := value.(*string); ok {
				item.ExecutionNotes = v
			}
		case "executed_at":
			if v, ok := value.(time.Time); ok {
				item.ExecutedAt = &v
			}
		case "expires_at":
			if v, ok := value.(time.Time); ok {
				item.ExpiresAt = &v
			}
		case "seller_count":
			if v, ok := value.(*int); ok {
				item.SellerCount = v
			}
		case "competition_level":
			if v, ok := value.(string); ok {
				item.CompetitionLevel = v
			}
		case "confidence":
			if v, ok := value.(float64); ok {
				item.Confidence = v
			}
		case "risk_level":
			if v, ok := value.(string); ok {
				item.RiskLevel = v
			}
		}
	}
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
func (s *stubRepo) ListPriceObservations(ctx context.Context, params repository.ListObservationsParams) ([]models.PriceObservation, error) {
	return nil, nil
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
