package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyRevenue is a per-doctor, per-calendar-day rollup of settled orders.
// Rows are derived: the payment service upserts them inside the settlement
// transaction and nothing else mutates them.
type DailyRevenue struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DoctorID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_daily_revenue_doctor_day" json:"doctor_id"`
	Day          time.Time       `gorm:"type:date;not null;uniqueIndex:ux_daily_revenue_doctor_day" json:"day"`
	Revenue      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"revenue"`
	PatientCount int             `gorm:"type:int;not null;default:0" json:"patient_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RevenueTotals carries summed revenue and patient counts for a date range.
type RevenueTotals struct {
	Revenue      decimal.Decimal `json:"revenue"`
	PatientCount int             `json:"patient_count"`
}

// DashboardResponse feeds the doctor's dashboard counters.
type DashboardResponse struct {
	TodayRevenue  string `json:"today_revenue"`
	TodayPatients int    `json:"today_patients"`
	MonthRevenue  string `json:"month_revenue"`
	MonthPatients int    `json:"month_patients"`
}
