package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Doctor represents the account owning medicines, orders and revenue. Every
// core call receives the doctor identity explicitly; nothing reads it from
// ambient state.
type Doctor struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName       string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone          string         `gorm:"type:varchar(20);not null" json:"phone"`
	Password       string         `gorm:"type:varchar(255);not null" json:"-"`
	RegistrationNo string         `gorm:"type:varchar(100)" json:"registration_no"` // medical council registration
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// RefreshToken stores long-lived tokens allowing doctors to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Doctor    Doctor    `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ClinicAddress is a practice location owned by a doctor. UPI settlement
// requires the order to carry one, since the QR provider resolves the payee
// account from it.
type ClinicAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DoctorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	ClinicName  string    `gorm:"type:varchar(255);not null" json:"clinic_name"`
	FullAddress string    `gorm:"type:text;not null" json:"full_address"`
	Phone       string    `gorm:"type:varchar(20)" json:"phone"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
