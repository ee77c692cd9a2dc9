package models

import (
	"time"

	"gorm.io/datatypes"
)

// Alert records one outbound notification for an opportunity. Delivery is
// best effort; failed webhook posts still leave a row with Delivered=false.
type Alert struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	OpportunityID string `gorm:"type:uuid;not null;index"`

	Kind      string         `gorm:"type:varchar(30);not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	Delivered bool           `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Alert) TableName() string {
	return "alerts"
}
