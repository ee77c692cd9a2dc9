package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaswa1/arbitrary-rage/internal/engine"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

// Source is a price feed. Implementations fetch whatever readings they can
// for the given products; partial results are fine, the runner normalizes
// and persists whatever comes back.
type Source interface {
	Name() string
	FetchPrices(ctx context.Context, products []models.Product) ([]models.PriceObservation, error)
}

// Service normalizes and persists price observations, whether they arrive
// from the HTTP ingest endpoint or from polled sources.
type Service struct {
	repo     repository.Repository
	sources  []Source
	maxBatch int
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo repository.Repository, sources []Source, maxBatch int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBatch <= 0 {
		maxBatch = 500
	}
	return &Service{
		repo:     repo,
		sources:  sources,
		maxBatch: maxBatch,
		logger:   logger,
		now:      time.Now,
	}
}

// IngestResult reports how a submitted batch fared.
type IngestResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Ingest validates, normalizes and appends a batch of observations. Rows
// with a non-positive price, a non-USD currency, or no product are rejected
// individually; the rest of the batch still lands.
func (s *Service) Ingest(ctx context.Context, items []models.PriceObservation) (*IngestResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("%w: ingest service not initialized", engine.ErrConfiguration)
	}
	if len(items) == 0 {
		return &IngestResult{}, nil
	}
	if len(items) > s.maxBatch {
		return nil, fmt.Errorf("%w: batch of %d exceeds max %d", engine.ErrConfiguration, len(items), s.maxBatch)
	}

	result := &IngestResult{}
	accepted := make([]models.PriceObservation, 0, len(items))
	for i := range items {
		item := items[i]
		if reason := s.normalize(&item); reason != "" {
			result.Rejected++
			result.Reasons = append(result.Reasons, reason)
			continue
		}
		accepted = append(accepted, item)
	}

	if len(accepted) > 0 {
		if err := s.repo.InsertPriceObservations(ctx, accepted); err != nil {
			return nil, err
		}
	}
	result.Accepted = len(accepted)
	return result, nil
}

// normalize fixes up one observation in place and returns a rejection reason
// when the row is unusable.
func (s *Service) normalize(item *models.PriceObservation) string {
	if strings.TrimSpace(item.ProductID) == "" {
		return "missing product_id"
	}
	if !item.Price.IsPositive() {
		return fmt.Sprintf("non-positive price for product %s", item.ProductID)
	}
	item.Currency = strings.ToUpper(strings.TrimSpace(item.Currency))
	if item.Currency == "" {
		item.Currency = "USD"
	}
	if item.Currency != "USD" {
		return fmt.Sprintf("unsupported currency %s for product %s", item.Currency, item.ProductID)
	}
	if strings.TrimSpace(item.Source) == "" {
		return fmt.Sprintf("missing source for product %s", item.ProductID)
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Condition == "" {
		item.Condition = "near_mint"
	}
	if item.QualityWeight <= 0 {
		item.QualityWeight = 1
	} else if item.QualityWeight > 1 {
		item.QualityWeight = 1
	}
	if item.ObservedAt.IsZero() {
		item.ObservedAt = s.now().UTC()
	}
	return ""
}

// RefreshAll polls every registered source for every active product, in
// pages. Source failures are logged and skipped so one dead feed does not
// starve the rest.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	if s == nil || s.repo == nil {
		return 0, fmt.Errorf("%w: ingest service not initialized", engine.ErrConfiguration)
	}

	total := 0
	active := true
	offset := 0
	const page = 200
	for {
		products, err := s.repo.ListProducts(ctx, repository.ListProductsParams{
			Active: &active,
			Limit:  page,
			Offset: offset,
		})
		if err != nil {
			return total, err
		}
		if len(products) == 0 {
			break
		}

		for _, src := range s.sources {
			obs, err := src.FetchPrices(ctx, products)
			if err != nil {
				s.logger.Error("price source fetch failed",
					zap.String("source", src.Name()),
					zap.Error(err))
				continue
			}
			res, err := s.Ingest(ctx, obs)
			if err != nil {
				s.logger.Error("price source ingest failed",
					zap.String("source", src.Name()),
					zap.Error(err))
				continue
			}
			total += res.Accepted
		}

		if len(products) < page {
			break
		}
		offset += page
	}

	s.logger.Info("price refresh complete", zap.Int("observations", total))
	return total, nil
}
