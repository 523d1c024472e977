package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateMedicine  = "CREATE_MEDICINE"
	ActionUpdateMedicine  = "UPDATE_MEDICINE"
	ActionArchiveMedicine = "ARCHIVE_MEDICINE"
	ActionBulkImport      = "BULK_IMPORT"
	ActionCreateOrder     = "CREATE_ORDER"
	ActionSettlePayment   = "SETTLE_PAYMENT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DoctorID   *uuid.UUID `gorm:"type:uuid;index" json:"doctor_id"`
	Doctor     *Doctor    `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
