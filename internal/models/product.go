package models

import (
	"time"
)

const (
	ProductKindSealed = "sealed"
	ProductKindSingle = "single"
)

// Product is catalog identity for both sealed products and individual singles.
// Identity is immutable; descriptive fields are owned by the catalog side.
type Product struct {
	ID      string `gorm:"type:uuid;primaryKey"`
	Name    string `gorm:"type:varchar(255);not null;index"`
	SetName *string `gorm:"type:varchar(100);index"`

	Kind     string `gorm:"type:varchar(20);not null;index"`
	Category string `gorm:"type:varchar(50);not null;index"`

	TCGProductID  *string `gorm:"type:varchar(100);uniqueIndex"`
	EbayProductID *string `gorm:"type:varchar(100)"`
	AmazonASIN    *string `gorm:"type:varchar(20)"`

	Description *string `gorm:"type:text"`
	ImageURL    *string `gorm:"type:varchar(500)"`

	Active   bool `gorm:"not null;default:true;index"`
	Featured bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

func (p Product) IsSealed() bool {
	return p.Kind == ProductKindSealed
}
