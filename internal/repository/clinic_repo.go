package repository

import (
	"context"

	"pharmacy-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicAddressRepository interface {
	Create(ctx context.Context, address *model.ClinicAddress) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ClinicAddress, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]model.ClinicAddress, error)
}

type clinicAddressRepository struct {
	db *gorm.DB
}

func NewClinicAddressRepository(db *gorm.DB) ClinicAddressRepository {
	return &clinicAddressRepository{db: db}
}

func (r *clinicAddressRepository) Create(ctx context.Context, address *model.ClinicAddress) error {
	return GetDB(ctx, r.db).Create(address).Error
}

func (r *clinicAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ClinicAddress, error) {
	var address model.ClinicAddress
	if err := GetDB(ctx, r.db).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *clinicAddressRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]model.ClinicAddress, error) {
	var addresses []model.ClinicAddress
	if err := GetDB(ctx, r.db).
		Where("doctor_id = ?", doctorID).
		Order("is_default desc, created_at asc").
		Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}
