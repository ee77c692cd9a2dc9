package db

import (
	"github.com/jaswa1/arbitrary-rage/internal/models"
)

func (d *DB) AutoMigrate() error {
	if d == nil || d.Gorm == nil {
		return nil
	}

	return d.Gorm.AutoMigrate(
		&models.Product{},
		&models.PriceObservation{},
		&models.ComponentMapping{},
		&models.Opportunity{},
		&models.Alert{},
		&models.SystemSetting{},
	)
}
