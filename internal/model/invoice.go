package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is the structured record emitted for a settled order. Rendering to
// HTML/PDF happens outside this service; this row plus its items is the whole
// contract handed to the renderer. Exactly one invoice exists per order.
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo     string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"invoice_no"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	DoctorID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorName    string          `gorm:"type:varchar(255)" json:"doctor_name"`
	ClinicName    string          `gorm:"type:varchar(255)" json:"clinic_name"`
	ClinicAddress string          `gorm:"type:text" json:"clinic_address"`
	PaymentMethod string          `gorm:"type:varchar(10);not null" json:"payment_method"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"grand_total"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	IssuedAt      time.Time       `gorm:"not null" json:"issued_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceItem snapshots one order line onto the invoice. Tax rates are shown
// as informational percentages and are not part of LineTotal.
type InvoiceItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	MedicineName string          `gorm:"type:varchar(255);not null" json:"medicine_name"`
	Dosage       string          `gorm:"type:varchar(100)" json:"dosage"`
	Quantity     int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	CGSTRate     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"cgst_rate"`
	GSTRate      decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"gst_rate"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}
