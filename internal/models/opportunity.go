package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OpportunityStatusActive    = "active"
	OpportunityStatusExpired   = "expired"
	OpportunityStatusExecuted  = "executed"
	OpportunityStatusCancelled = "cancelled"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Opportunity is the derived, owned entity: a scored assertion that buying a
// sealed product and parting out its singles is currently profitable.
// At most one active row exists per sealed product; terminal rows
// (expired/executed/cancelled) are kept forever for audit.
type Opportunity struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	SealedProductID string `gorm:"type:uuid;not null;index:idx_opp_product_status,priority:1"`
	SealedProduct   Product

	// Snapshot fields, refreshed in place on every re-scan while active.
	// Money-like values stored as numeric to avoid float drift.
	SealedPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	SinglesValue decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MarginPct    decimal.Decimal `gorm:"type:numeric(8,2);not null;index"`
	Completeness float64         `gorm:"not null;default:1"`

	Confidence float64 `gorm:"not null"`
	RiskLevel  string  `gorm:"type:varchar(20);not null;index"`

	SellerCount      *int   ``
	CompetitionLevel string `gorm:"type:varchar(20);not null;default:'unknown'"`

	Status            string         `gorm:"type:varchar(20);not null;default:'active';index:idx_opp_product_status,priority:2;index"`
	ExecutionQuantity int            `gorm:"not null;default:0"`
	ExecutionNotes    *string        `gorm:"type:varchar(500)"`
	Warnings          datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt  time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt  time.Time  `gorm:"type:timestamptz;autoUpdateTime"`
	ExpiresAt  *time.Time `gorm:"type:timestamptz;index"`
	ExecutedAt *time.Time `gorm:"type:timestamptz"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

func (o Opportunity) IsTerminal() bool {
	switch o.Status {
	case OpportunityStatusExpired, OpportunityStatusExecuted, OpportunityStatusCancelled:
		return true
	}
	return false
}

// PotentialProfit is the per-unit spread times the executed quantity.
func (o Opportunity) PotentialProfit() decimal.Decimal {
	return o.SinglesValue.Sub(o.SealedPrice).Mul(decimal.NewFromInt(int64(o.ExecutionQuantity)))
}
