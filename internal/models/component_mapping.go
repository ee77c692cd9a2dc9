package models

import (
	"time"
)

// ComponentMapping relates a sealed product to one of its component singles.
// Guaranteed components are pulled with certainty; otherwise PullProbability
// must be set in (0,1]. The catalog collaborator owns this data; the engine
// only validates it.
type ComponentMapping struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	SealedProductID string `gorm:"type:uuid;not null;uniqueIndex:uq_sealed_single,priority:1;index"`
	SingleProductID string `gorm:"type:uuid;not null;uniqueIndex:uq_sealed_single,priority:2;index"`

	Quantity   int  `gorm:"not null;default:1"`
	Guaranteed bool `gorm:"not null;default:true"`

	Rarity          *string  `gorm:"type:varchar(20)"`
	PullProbability *float64 `gorm:"type:numeric(5,4)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ComponentMapping) TableName() string {
	return "component_mappings"
}

// EffectiveProbability is the expected-value weight of one pull: 1 when
// guaranteed, otherwise the catalog-supplied pull probability.
func (m ComponentMapping) EffectiveProbability() float64 {
	if m.Guaranteed {
		return 1
	}
	if m.PullProbability == nil {
		return 0
	}
	return *m.PullProbability
}
