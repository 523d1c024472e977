package repository

import (
	"context"
	"strings"

	"pharmacy-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MedicineRepository interface {
	Create(ctx context.Context, medicine *model.Medicine) error
	Update(ctx context.Context, medicine *model.Medicine) error
	Archive(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
	FindByName(ctx context.Context, doctorID uuid.UUID, name string) (*model.Medicine, error)
	List(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) ([]model.Medicine, int64, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
}

type medicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) MedicineRepository {
	return &medicineRepository{db: db}
}

// NameKey normalizes a medicine name for the per-doctor case-insensitive
// uniqueness check.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *medicineRepository) Create(ctx context.Context, medicine *model.Medicine) error {
	medicine.NameKey = NameKey(medicine.Name)
	return GetDB(ctx, r.db).Create(medicine).Error
}

func (r *medicineRepository) Update(ctx context.Context, medicine *model.Medicine) error {
	medicine.NameKey = NameKey(medicine.Name)
	return GetDB(ctx, r.db).Save(medicine).Error
}

// Archive soft-deletes: historical order lines keep referencing the record.
func (r *medicineRepository) Archive(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Medicine{}).Where("id = ?", id).
		Update("status", model.MedicineStatusArchived).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Medicine{}).Error
}

func (r *medicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).First(&medicine, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}

func (r *medicineRepository) FindByName(ctx context.Context, doctorID uuid.UUID, name string) (*model.Medicine, error) {
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).
		Where("doctor_id = ? AND name_key = ?", doctorID, NameKey(name)).
		First(&medicine).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}

// List returns a stable page ordered by name ascending. The count is taken
// from the same filtered query so pagination math is authoritative.
func (r *medicineRepository) List(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) ([]model.Medicine, int64, error) {
	var medicines []model.Medicine
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Medicine{}).Where("doctor_id = ?", doctorID)
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&medicines).Error; err != nil {
		return nil, 0, err
	}

	return medicines, total, nil
}

func (r *medicineRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.Medicine{}).Where("id = ?", id).Update("quantity_on_hand", stock).Error
}

func (r *medicineRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var medicine model.Medicine
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&medicine).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}
