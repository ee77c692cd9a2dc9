package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is one price reading for a product from one source at one
// time. Rows are append-only: they are never updated, only superseded by
// newer observations. Retention/pruning is external to this service.
type PriceObservation struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	ProductID string `gorm:"type:uuid;not null;index:idx_obs_product_observed,priority:1"`

	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency string          `gorm:"type:varchar(3);not null;default:'USD'"`

	Source    string  `gorm:"type:varchar(50);not null;index"`
	SourceURL *string `gorm:"type:varchar(500)"`
	Condition string  `gorm:"type:varchar(20);not null;default:'near_mint'"`

	SellerCount       *int             `gorm:"index"`
	AvailableQuantity *int
	ShippingCost      *decimal.Decimal `gorm:"type:numeric(12,2)"`

	// QualityWeight grades the source/read in [0,1] and weights aggregation.
	QualityWeight float64 `gorm:"not null;default:1"`

	ObservedAt time.Time `gorm:"type:timestamptz;not null;index:idx_obs_product_observed,priority:2"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (PriceObservation) TableName() string {
	return "price_observations"
}
