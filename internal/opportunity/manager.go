package opportunity

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/jaswa1/arbitrary-rage/internal/config"
	"github.com/jaswa1/arbitrary-rage/internal/engine"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// Notifier receives newly created opportunities. Delivery is best-effort and
// must never fail the creating transaction.
type Notifier interface {
	NotifyNewOpportunity(ctx context.Context, opp *models.Opportunity)
}

// Manager owns the opportunity lifecycle: creation, in-place refresh while
// active, and the one-way transitions to expired/executed/cancelled. It
// enforces the single-active-row-per-product invariant with a per-product
// mutex on top of the store's conditional updates.
type Manager struct {
	repo     repository.Repository
	cfg      config.OpportunityConfig
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(repo repository.Repository, cfg config.OpportunityConfig, notifier Notifier, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		repo:     repo,
		cfg:      cfg,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		locks:    map[string]*sync.Mutex{},
	}
}

func (m *Manager) productLock(productID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[productID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[productID] = lock
	}
	return lock
}

// Snapshot is one analysis pass's output for a sealed product.
type Snapshot struct {
	SealedProductID string
	SealedPrice     decimal.Decimal
	SinglesValue    decimal.Decimal
	MarginPct       decimal.Decimal
	Completeness    float64
	Confidence      float64
	RiskLevel       string
	SellerCount     *int
	Warnings        []string
}

// Upsert applies a fresh snapshot to a product's opportunity state.
//
// Margin at or above the configured minimum either refreshes the existing
// active row in place or creates a new one (notifying on creation). Margin
// below the minimum expires any active row: the thesis no longer holds.
// Returns the active opportunity, or nil when none remains.
func (m *Manager) Upsert(ctx context.Context, snap Snapshot) (*models.Opportunity, error) {
	if m == nil || m.repo == nil {
		return nil, fmt.Errorf("%w: opportunity manager not initialized", engine.ErrConfiguration)
	}

	lock := m.productLock(snap.SealedProductID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := m.repo.GetActiveOpportunityByProduct(ctx, snap.SealedProductID)
	if err != nil {
		return nil, err
	}

	minMargin := decimal.NewFromFloat(m.cfg.MinMarginPct)
	if snap.MarginPct.LessThan(minMargin) {
		if existing != nil {
			moved, err := m.repo.TransitionOpportunityStatus(ctx, existing.ID,
				models.OpportunityStatusActive, models.OpportunityStatusExpired, nil)
			if err != nil {
				return nil, err
			}
			if moved > 0 {
				m.logger.Info("opportunity expired on margin collapse",
					zap.String("opportunity_id", existing.ID),
					zap.String("product_id", snap.SealedProductID),
					zap.String("margin_pct", snap.MarginPct.String()))
			}
		}
		return nil, nil
	}

	warningsJSON := marshalWarnings(snap.Warnings)

	if existing != nil {
		// A positive re-scan renews the thesis, so the TTL clock restarts.
		refreshedExpiry := m.now().UTC().Add(m.cfg.TTL)
		updates := map[string]any{
			"sealed_price":      snap.SealedPrice,
			"singles_value":     snap.SinglesValue,
			"margin_pct":        snap.MarginPct,
			"completeness":      snap.Completeness,
			"confidence":        snap.Confidence,
			"risk_level":        snap.RiskLevel,
			"seller_count":      snap.SellerCount,
			"competition_level": competitionLevel(snap.SellerCount),
			"warnings":          warningsJSON,
			"expires_at":        refreshedExpiry,
			"updated_at":        m.now().UTC(),
		}
		if err := m.repo.UpdateOpportunitySnapshot(ctx, existing.ID, updates); err != nil {
			return nil, err
		}
		return m.repo.GetOpportunityByID(ctx, existing.ID)
	}

	expiresAt := m.now().UTC().Add(m.cfg.TTL)
	opp := &models.Opportunity{
		ID:               uuid.NewString(),
		SealedProductID:  snap.SealedProductID,
		SealedPrice:      snap.SealedPrice,
		SinglesValue:     snap.SinglesValue,
		MarginPct:        snap.MarginPct,
		Completeness:     snap.Completeness,
		Confidence:       snap.Confidence,
		RiskLevel:        snap.RiskLevel,
		SellerCount:      snap.SellerCount,
		CompetitionLevel: competitionLevel(snap.SellerCount),
		Status:           models.OpportunityStatusActive,
		Warnings:         warningsJSON,
		ExpiresAt:        &expiresAt,
	}
	if err := m.repo.InsertOpportunity(ctx, opp); err != nil {
		return nil, err
	}
	m.logger.Info("opportunity created",
		zap.String("opportunity_id", opp.ID),
		zap.String("product_id", opp.SealedProductID),
		zap.String("margin_pct", opp.MarginPct.String()),
		zap.Float64("confidence", opp.Confidence),
		zap.String("risk_level", opp.RiskLevel))
	if m.notifier != nil {
		m.notifier.NotifyNewOpportunity(ctx, opp)
	}
	return opp, nil
}

// Execute moves an active opportunity to executed with the quantity bought.
// The store-level compare-and-set makes concurrent executes race safely:
// exactly one caller wins, the rest get ErrInvalidState.
func (m *Manager) Execute(ctx context.Context, id string, quantity int, notes *string) (*models.Opportunity, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: execution quantity must be positive", engine.ErrInvalidState)
	}
	now := m.now().UTC()
	updates := map[string]any{
		"execution_quantity": quantity,
		"executed_at":        now,
	}
	if notes != nil {
		updates["execution_notes"] = notes
	}
	return m.transition(ctx, id, models.OpportunityStatusExecuted, updates)
}

// Cancel moves an active opportunity to cancelled.
func (m *Manager) Cancel(ctx context.Context, id string, notes *string) (*models.Opportunity, error) {
	var updates map[string]any
	if notes != nil {
		updates = map[string]any{"execution_notes": notes}
	}
	return m.transition(ctx, id, models.OpportunityStatusCancelled, updates)
}

func (m *Manager) transition(ctx context.Context, id, toStatus string, updates map[string]any) (*models.Opportunity, error) {
	if m == nil || m.repo == nil {
		return nil, fmt.Errorf("%w: opportunity manager not initialized", engine.ErrConfiguration)
	}

	opp, err := m.repo.GetOpportunityByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, fmt.Errorf("%w: opportunity %s", engine.ErrNotFound, id)
	}
	if opp.Status != models.OpportunityStatusActive {
		return nil, fmt.Errorf("%w: opportunity %s is %s", engine.ErrInvalidState, id, opp.Status)
	}

	moved, err := m.repo.TransitionOpportunityStatus(ctx, id, models.OpportunityStatusActive, toStatus, updates)
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		// Lost the race to a concurrent transition.
		return nil, fmt.Errorf("%w: opportunity %s is no longer active", engine.ErrInvalidState, id)
	}
	m.logger.Info("opportunity transitioned",
		zap.String("opportunity_id", id),
		zap.String("to_status", toStatus))
	return m.repo.GetOpportunityByID(ctx, id)
}

// ExpireDue sweeps active opportunities whose TTL has elapsed.
func (m *Manager) ExpireDue(ctx context.Context) (int64, error) {
	if m == nil || m.repo == nil {
		return 0, fmt.Errorf("%w: opportunity manager not initialized", engine.ErrConfiguration)
	}
	expired, err := m.repo.ExpireDueOpportunities(ctx, m.now().UTC())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		m.logger.Info("expired due opportunities", zap.Int64("count", expired))
	}
	return expired, nil
}

func competitionLevel(sellerCount *int) string {
	if sellerCount == nil {
		return "unknown"
	}
	switch {
	case *sellerCount < 3:
		return "low"
	case *sellerCount < 8:
		return "medium"
	default:
		return "high"
	}
}

func marshalWarnings(warnings []string) datatypes.JSON {
	if len(warnings) == 0 {
		return nil
	}
	raw, err := json.Marshal(warnings)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
