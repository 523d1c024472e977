package repository

import (
	"context"

	"pharmacy-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockTransactionRepository interface {
	Log(ctx context.Context, tx *model.StockTransaction) error
	ListByMedicine(ctx context.Context, medicineID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error)
}

type stockTransactionRepository struct {
	db *gorm.DB
}

func NewStockTransactionRepository(db *gorm.DB) StockTransactionRepository {
	return &stockTransactionRepository{db: db}
}

func (r *stockTransactionRepository) Log(ctx context.Context, tx *model.StockTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *stockTransactionRepository) ListByMedicine(ctx context.Context, medicineID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	var entries []model.StockTransaction
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockTransaction{}).Where("medicine_id = ?", medicineID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
