package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MedicineStatus enum constants
const (
	MedicineStatusActive   = "ACTIVE"
	MedicineStatusArchived = "ARCHIVED"
)

// Medicine represents a catalog entry owned by a single doctor.
// Names are unique per doctor case-insensitively (NameKey holds the lowered
// form); the index is partial over live rows so an archived medicine does not
// block re-adding the same name.
// Records are never hard-deleted because historical order lines reference them.
type Medicine struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DoctorID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_medicines_doctor_name,where:deleted_at IS NULL" json:"doctor_id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	NameKey        string          `gorm:"type:varchar(255);not null;uniqueIndex:ux_medicines_doctor_name,where:deleted_at IS NULL" json:"-"`
	DosageForm     string          `gorm:"type:varchar(100)" json:"dosage_form"` // tablet, syrup, injection...
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	QuantityOnHand int             `gorm:"type:int;not null;default:0" json:"quantity_on_hand"`
	CGSTRate       decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"cgst_rate"` // percent, informational
	GSTRate        decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"gst_rate"`  // percent, informational
	Status         string          `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

// StockTxType enum constants
const (
	StockTxIn  = "IN"
	StockTxOut = "OUT"
)

// StockTransaction records every stock movement strictly: bulk imports write IN
// entries, settled orders write OUT entries.
type StockTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MedicineID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"medicine_id"`
	OrderID         *uuid.UUID `gorm:"type:uuid;index" json:"order_id"` // nullable for imports and manual adjustments
	TransactionType string     `gorm:"type:varchar(10);not null" json:"transaction_type"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt       time.Time  `json:"created_at"`
}
