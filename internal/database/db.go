package database

import (
	"log"

	"pharmacy-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Doctor{},
		&model.RefreshToken{},
		&model.ClinicAddress{},
		&model.Medicine{},
		&model.StockTransaction{},
		&model.PharmacyOrder{},
		&model.OrderLine{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.DailyRevenue{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
