package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentState enum constants. Transitions are driven exclusively by the
// payment service under a row lock; SETTLED is terminal.
const (
	PaymentStateAwaitingPricing = "AWAITING_PRICING"
	PaymentStateReadyForPayment = "READY_FOR_PAYMENT"
	PaymentStateMethodSelected  = "METHOD_SELECTED"
	PaymentStateAwaitingQR      = "AWAITING_QR"
	PaymentStateSettled         = "SETTLED"
	PaymentStateFailed          = "PAYMENT_FAILED"
)

// PaymentMethod enum constants
const (
	PaymentMethodNone = "NONE"
	PaymentMethodCash = "CASH"
	PaymentMethodUPI  = "UPI"
)

// LineStatus enum constants
const (
	LineStatusPending   = "PENDING"
	LineStatusCompleted = "COMPLETED"
)

// FailureReason constants for PAYMENT_FAILED
const (
	FailureReasonQRUnavailable = "QR_UNAVAILABLE"
)

// PharmacyOrder represents a patient's pharmacy order owned by the issuing
// doctor. The payable total is never stored; it is recomputed from lines on
// every read.
type PharmacyOrder struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderCode       string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_code"`
	DoctorID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"patient_id"`
	ClinicAddressID *uuid.UUID     `gorm:"type:uuid" json:"clinic_address_id"` // required for UPI settlement
	ClinicAddress   *ClinicAddress `gorm:"foreignKey:ClinicAddressID" json:"clinic_address,omitempty"`
	PaymentMethod   string         `gorm:"type:varchar(10);not null;default:'NONE'" json:"payment_method"`
	PaymentState    string         `gorm:"type:varchar(30);not null;default:'AWAITING_PRICING';index" json:"payment_state"`
	FailureReason   string         `gorm:"type:varchar(30)" json:"failure_reason,omitempty"`
	QRAttempt       int            `gorm:"type:int;not null;default:0" json:"-"` // guards stale QR provider responses
	QRImageRef      string         `gorm:"type:text" json:"qr_image_ref,omitempty"`
	SettledAt       *time.Time     `json:"settled_at"`
	Lines           []OrderLine    `gorm:"foreignKey:OrderID" json:"lines"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// OrderLine is a single medicine line within a PharmacyOrder. The medicine
// reference is nullable (a prescribed medicine may not exist in the catalog
// yet) and the unit price is null until the doctor confirms it. Tax rates are
// snapshotted at order creation and never recomputed from the catalog.
type OrderLine struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"order_id"`
	MedicineID   *uuid.UUID       `gorm:"type:uuid;index" json:"medicine_id"`
	MedicineName string           `gorm:"type:varchar(255);not null" json:"medicine_name"`
	Dosage       string           `gorm:"type:varchar(100)" json:"dosage"`
	Quantity     int              `gorm:"type:int;not null" json:"quantity"`
	UnitPrice    *decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price"`
	CGSTRate     decimal.Decimal  `gorm:"type:decimal(10,4);not null;default:0" json:"cgst_rate"`
	GSTRate      decimal.Decimal  `gorm:"type:decimal(10,4);not null;default:0" json:"gst_rate"`
	Status       string           `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
