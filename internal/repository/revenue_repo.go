package repository

import (
	"context"
	"fmt"
	"time"

	"pharmacy-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RevenueRepository interface {
	AddSettlement(ctx context.Context, doctorID uuid.UUID, day time.Time, amount decimal.Decimal, newPatient bool) error
	SumRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (model.RevenueTotals, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

// AddSettlement upserts the doctor's daily snapshot inside the settlement
// transaction. The repository is purely additive; de-duplication of retries
// is the payment service's job.
func (r *revenueRepository) AddSettlement(ctx context.Context, doctorID uuid.UUID, day time.Time, amount decimal.Decimal, newPatient bool) error {
	patientInc := 0
	if newPatient {
		patientInc = 1
	}

	row := model.DailyRevenue{
		DoctorID:     doctorID,
		Day:          time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Revenue:      amount,
		PatientCount: patientInc,
	}

	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doctor_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"revenue":       gorm.Expr("daily_revenues.revenue + ?", amount),
			"patient_count": gorm.Expr("daily_revenues.patient_count + ?", patientInc),
			"updated_at":    time.Now(),
		}),
	}).Create(&row).Error
}

func (r *revenueRepository) SumRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (model.RevenueTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(revenue), 0)       AS revenue,
			COALESCE(SUM(patient_count), 0) AS patient_count
		FROM daily_revenues
		WHERE doctor_id = $1
		  AND day >= $2::date
		  AND day <= $3::date
	`

	var row struct {
		Revenue      decimal.Decimal `gorm:"column:revenue"`
		PatientCount int             `gorm:"column:patient_count"`
	}
	if err := GetDB(ctx, r.db).Raw(query,
		doctorID, from.Format("2006-01-02"), to.Format("2006-01-02"),
	).Scan(&row).Error; err != nil {
		return model.RevenueTotals{}, fmt.Errorf("failed to query revenue totals: %w", err)
	}

	return model.RevenueTotals{Revenue: row.Revenue, PatientCount: row.PatientCount}, nil
}
