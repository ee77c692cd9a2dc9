package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/jaswa1/arbitrary-rage/internal/config"
	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
	"github.com/jaswa1/arbitrary-rage/internal/service"
)

const kindNewOpportunity = "new_opportunity"

// Flags exposes the DB-backed runtime switches; *service.SystemSettings
// satisfies it.
type Flags interface {
	Bool(ctx context.Context, key string, fallback bool) bool
}

// Notifier posts new-opportunity alerts to a webhook and records each
// attempt. It filters on confidence and risk so only actionable finds page
// anyone; everything here is best effort and never blocks analysis.
type Notifier struct {
	repo   repository.Repository
	cfg    config.AlertConfig
	flags  Flags
	client *http.Client
	logger *zap.Logger
}

func NewNotifier(repo repository.Repository, cfg config.AlertConfig, flags Flags, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		repo:   repo,
		cfg:    cfg,
		flags:  flags,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type webhookPayload struct {
	Kind            string  `json:"kind"`
	OpportunityID   string  `json:"opportunity_id"`
	SealedProductID string  `json:"sealed_product_id"`
	SealedPrice     string  `json:"sealed_price"`
	SinglesValue    string  `json:"singles_value"`
	MarginPct       string  `json:"margin_pct"`
	Confidence      float64 `json:"confidence"`
	RiskLevel       string  `json:"risk_level"`
	CreatedAt       string  `json:"created_at"`
}

// NotifyNewOpportunity implements opportunity.Notifier.
func (n *Notifier) NotifyNewOpportunity(ctx context.Context, opp *models.Opportunity) {
	if n == nil || opp == nil || !n.cfg.Enabled {
		return
	}
	// The DB switch can silence alerts at runtime without a redeploy.
	if n.flags != nil && !n.flags.Bool(ctx, service.KeyAlertsEnabled, true) {
		return
	}
	if opp.Confidence < n.cfg.ConfidenceFloor {
		return
	}
	if !riskWithin(opp.RiskLevel, n.cfg.MaxRiskLevel) {
		return
	}

	payload := webhookPayload{
		Kind:            kindNewOpportunity,
		OpportunityID:   opp.ID,
		SealedProductID: opp.SealedProductID,
		SealedPrice:     opp.SealedPrice.String(),
		SinglesValue:    opp.SinglesValue.String(),
		MarginPct:       opp.MarginPct.String(),
		Confidence:      opp.Confidence,
		RiskLevel:       opp.RiskLevel,
		CreatedAt:       opp.CreatedAt.UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}

	delivered := n.post(ctx, raw)
	record := &models.Alert{
		ID:            uuid.NewString(),
		OpportunityID: opp.ID,
		Kind:          kindNewOpportunity,
		Payload:       datatypes.JSON(raw),
		Delivered:     delivered,
	}
	if err := n.repo.InsertAlert(ctx, record); err != nil {
		n.logger.Error("alert record insert failed",
			zap.String("opportunity_id", opp.ID),
			zap.Error(err))
	}
}

func (n *Notifier) post(ctx context.Context, body []byte) bool {
	if n.cfg.WebhookURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("alert webhook post failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn("alert webhook rejected", zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// riskWithin reports whether level is at or below the ceiling
// (low < medium < high).
func riskWithin(level, ceiling string) bool {
	rank := map[string]int{
		models.RiskLow:    0,
		models.RiskMedium: 1,
		models.RiskHigh:   2,
	}
	lr, ok := rank[level]
	if !ok {
		return false
	}
	cr, ok := rank[ceiling]
	if !ok {
		return true
	}
	return lr <= cr
}
