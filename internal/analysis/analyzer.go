package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jaswa1/arbitrary-rage/internal/catalog"
	"github.com/jaswa1/arbitrary-rage/internal/confidence"
	"github.com/jaswa1/arbitrary-rage/internal/config"
	"github.com/jaswa1/arbitrary-rage/internal/engine"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/opportunity"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
	"github.com/jaswa1/arbitrary-rage/internal/risk"
	"github.com/jaswa1/arbitrary-rage/internal/valuation"
)

// Analyzer runs the full detection pipeline for sealed products: resolve the
// composition, value both sides, score confidence, classify risk, and hand
// the snapshot to the opportunity manager. Batch scans isolate per-product
// failures so one bad product never poisons a sweep.
type Analyzer struct {
	repo       repository.Repository
	resolver   *catalog.Resolver
	valuer     *valuation.Engine
	scorer     *confidence.Scorer
	classifier *risk.Classifier
	manager    *opportunity.Manager
	scan       config.ScanConfig
	logger     *zap.Logger
}

func New(
	repo repository.Repository,
	resolver *catalog.Resolver,
	valuer *valuation.Engine,
	scorer *confidence.Scorer,
	classifier *risk.Classifier,
	manager *opportunity.Manager,
	scan config.ScanConfig,
	logger *zap.Logger,
) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		repo:       repo,
		resolver:   resolver,
		valuer:     valuer,
		scorer:     scorer,
		classifier: classifier,
		manager:    manager,
		scan:       scan,
		logger:     logger,
	}
}

// Outcome is one product's analysis result inside a scan report.
type Outcome struct {
	ProductID   string              `json:"product_id"`
	Opportunity *models.Opportunity `json:"opportunity,omitempty"`
	Skipped     bool                `json:"skipped"`
	Reason      string              `json:"reason,omitempty"`
}

// Report summarizes a batch scan.
type Report struct {
	Scanned       int           `json:"scanned"`
	Opportunities int           `json:"opportunities"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
	Outcomes      []Outcome     `json:"outcomes,omitempty"`
}

// AnalyzeProduct runs the pipeline for one sealed product. ErrNotFound means
// the product does not exist; insufficient-data errors mean this cycle could
// not form an assertion either way and any active opportunity is left alone.
func (a *Analyzer) AnalyzeProduct(ctx context.Context, productID string) (*models.Opportunity, error) {
	if a == nil || a.resolver == nil || a.valuer == nil || a.manager == nil {
		return nil, fmt.Errorf("%w: analyzer not initialized", engine.ErrConfiguration)
	}

	comp, err := a.resolver.Resolve(ctx, productID)
	if err != nil {
		return nil, err
	}

	res, err := a.valuer.Value(ctx, comp)
	if err != nil {
		return nil, err
	}

	breakdown := a.scorer.Score(res)
	marginPct, _ := res.MarginPct.Float64()
	riskLevel := a.classifier.Classify(breakdown.Total, marginPct)

	var sellerCount *int
	if res.SealedSnapshot != nil {
		sellerCount = res.SealedSnapshot.SellerCount
	}

	return a.manager.Upsert(ctx, opportunity.Snapshot{
		SealedProductID: productID,
		SealedPrice:     res.SealedPrice,
		SinglesValue:    res.NetSinglesValue,
		MarginPct:       res.MarginPct,
		Completeness:    res.Completeness,
		Confidence:      breakdown.Total,
		RiskLevel:       riskLevel,
		SellerCount:     sellerCount,
		Warnings:        res.Warnings,
	})
}

// AnalyzeAll scans every active sealed product, optionally narrowed to one
// category. Products are paged in batches and analyzed with bounded
// parallelism; individual failures are logged and counted, never fatal.
func (a *Analyzer) AnalyzeAll(ctx context.Context, category *string) (*Report, error) {
	if a == nil || a.repo == nil {
		return nil, fmt.Errorf("%w: analyzer not initialized", engine.ErrConfiguration)
	}

	start := time.Now()
	report := &Report{}
	var mu sync.Mutex

	batchSize := a.scan.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	parallelism := a.scan.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	offset := 0
	for {
		ids, err := a.repo.ListSealedProductIDs(ctx, category, batchSize, offset)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parallelism)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				opp, err := a.AnalyzeProduct(gctx, id)
				mu.Lock()
				defer mu.Unlock()
				report.Scanned++
				switch {
				case err == nil && opp != nil:
					report.Opportunities++
					report.Outcomes = append(report.Outcomes, Outcome{ProductID: id, Opportunity: opp})
				case err == nil:
					report.Skipped++
					report.Outcomes = append(report.Outcomes, Outcome{ProductID: id, Skipped: true, Reason: "margin below minimum"})
				case engine.IsInsufficientData(err):
					report.Skipped++
					report.Outcomes = append(report.Outcomes, Outcome{ProductID: id, Skipped: true, Reason: err.Error()})
				default:
					report.Failed++
					report.Outcomes = append(report.Outcomes, Outcome{ProductID: id, Skipped: true, Reason: err.Error()})
					a.logger.Error("product analysis failed",
						zap.String("product_id", id),
						zap.Error(err))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(ids) < batchSize {
			break
		}
		offset += batchSize
	}

	report.Duration = time.Since(start)
	report.DurationMS = report.Duration.Milliseconds()
	a.logger.Info("scan complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("opportunities", report.Opportunities),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	return report, nil
}
