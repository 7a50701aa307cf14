package repository

import "gorm.io/gorm"

// Migrate creates the engine's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&roomModel{},
		&bookingModel{},
		&paymentModel{},
		&refundModel{},
	)
}
