package repository

import (
	"context"
	"time"

	"pharmacy-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.PharmacyOrder) error
	Save(ctx context.Context, order *model.PharmacyOrder) error
	UpdateLine(ctx context.Context, line *model.OrderLine) error
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error)
	List(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]model.PharmacyOrder, int64, error)
	CountSettledForPatientOnDay(ctx context.Context, doctorID, patientID uuid.UUID, day time.Time) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.PharmacyOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

// Save persists the order row and its lines in full. Callers mutate the
// loaded aggregate under a row lock and write it back through here.
func (r *orderRepository) Save(ctx context.Context, order *model.PharmacyOrder) error {
	return GetDB(ctx, r.db).Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
}

func (r *orderRepository) UpdateLine(ctx context.Context, line *model.OrderLine) error {
	return GetDB(ctx, r.db).Save(line).Error
}

func (r *orderRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error) {
	var order model.PharmacyOrder
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("ClinicAddress").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row for the duration of the surrounding
// transaction. All per-order mutations go through this, which serializes
// concurrent price edits, method selection and settlement for the same order.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error) {
	var order model.PharmacyOrder
	db := GetDB(ctx, r.db)
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := db.Where("order_id = ?", id).Order("created_at asc").Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]model.PharmacyOrder, int64, error) {
	var orders []model.PharmacyOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PharmacyOrder{}).Where("doctor_id = ?", doctorID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Where("doctor_id = ?", doctorID).
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// CountSettledForPatientOnDay tells the revenue rollup whether a settling
// order is the patient's first for that calendar day.
func (r *orderRepository) CountSettledForPatientOnDay(ctx context.Context, doctorID, patientID uuid.UUID, day time.Time) (int64, error) {
	var count int64
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	if err := GetDB(ctx, r.db).Model(&model.PharmacyOrder{}).
		Where("doctor_id = ? AND patient_id = ? AND payment_state = ? AND settled_at >= ? AND settled_at < ?",
			doctorID, patientID, model.PaymentStateSettled, start, end).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
