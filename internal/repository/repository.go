package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaswa1/arbitrary-rage/internal/models"
)

// Repository is the storage boundary for the detection engine. Price
// observations are append-only; opportunities are mutable until terminal and
// the implementation must provide atomic conditional status transitions.
type Repository interface {
	// Catalog (read-mostly; writes come from the catalog collaborator).
	UpsertProduct(ctx context.Context, item *models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, error)
	CountProducts(ctx context.Context, params ListProductsParams) (int64, error)
	ListSealedProductIDs(ctx context.Context, category *string, limit, offset int) ([]string, error)

	// Component mappings.
	UpsertComponentMappings(ctx context.Context, items []models.ComponentMapping) error
	ListComponentMappings(ctx context.Context, sealedProductID string) ([]models.ComponentMapping, error)

	// Price observations (append-only log).
	InsertPriceObservations(ctx context.Context, items []models.PriceObservation) error
	ListPriceObservations(ctx context.Context, params ListObservationsParams) ([]models.PriceObservation, error)

	// Opportunities.
	InsertOpportunity(ctx context.Context, item *models.Opportunity) error
	GetOpportunityByID(ctx context.Context, id string) (*models.Opportunity, error)
	GetActiveOpportunityByProduct(ctx context.Context, sealedProductID string) (*models.Opportunity, error)
	UpdateOpportunitySnapshot(ctx context.Context, id string, updates map[string]any) error
	// TransitionOpportunityStatus performs an atomic compare-and-set on
	// status; it reports the number of rows moved (0 when the row was not in
	// fromStatus anymore).
	TransitionOpportunityStatus(ctx context.Context, id, fromStatus, toStatus string, updates map[string]any) (int64, error)
	ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error)
	ListOpportunities(ctx context.Context, params ListOpportunitiesParams) ([]models.Opportunity, error)
	CountOpportunities(ctx context.Context, params ListOpportunitiesParams) (int64, error)
	OpportunityStats(ctx context.Context, scope StatsScope) (OpportunityStats, error)

	// Alerts.
	InsertAlert(ctx context.Context, item *models.Alert) error

	// System settings.
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error)
}

type ListProductsParams struct {
	Limit    int
	Offset   int
	Kind     *string
	Category *string
	Active   *bool
	Search   *string
	OrderBy  string
	Asc      *bool
}

type ListObservationsParams struct {
	ProductID string
	Source    *string
	Since     *time.Time
	Limit     int
}

type ListOpportunitiesParams struct {
	Limit         int
	Offset        int
	Status        *string
	Category      *string
	MinMarginPct  *decimal.Decimal
	MaxMarginPct  *decimal.Decimal
	MinConfidence *float64
	// MaxRisk is a ceiling: "low" admits only low, "medium" admits
	// low+medium, "high" (or empty) admits everything.
	MaxRisk *string
	Since   *time.Time
	Until   *time.Time
	OrderBy string
	Asc     *bool
}

type StatsScope struct {
	Category *string
	Since    *time.Time
}

type OpportunityStats struct {
	CountsByStatus map[string]int64
	AvgMarginPct   float64
	AvgConfidence  float64
	// TotalPotentialProfit sums (singles_value - sealed_price) * execution
	// quantity across the scope.
	TotalPotentialProfit decimal.Decimal
	HighConfidenceCount  int64
	LowRiskCount         int64
}
