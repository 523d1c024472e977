package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/repository"
	"pharmacy-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateMedicineRequest struct {
	Name       string  `json:"name" binding:"required"`
	DosageForm string  `json:"dosage_form"`
	UnitPrice  float64 `json:"unit_price" binding:"min=0"`
	Quantity   int     `json:"quantity" binding:"min=0"`
	CGSTRate   float64 `json:"cgst_rate" binding:"min=0"`
	GSTRate    float64 `json:"gst_rate" binding:"min=0"`
}

type UpdateMedicineRequest struct {
	Name       string  `json:"name" binding:"required"`
	DosageForm string  `json:"dosage_form"`
	UnitPrice  float64 `json:"unit_price" binding:"min=0"`
	Quantity   int     `json:"quantity" binding:"min=0"`
	CGSTRate   float64 `json:"cgst_rate" binding:"min=0"`
	GSTRate    float64 `json:"gst_rate" binding:"min=0"`
}

type MedicineResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DosageForm     string `json:"dosage_form"`
	UnitPrice      string `json:"unit_price"`
	QuantityOnHand int    `json:"quantity_on_hand"`
	CGSTRate       string `json:"cgst_rate"`
	GSTRate        string `json:"gst_rate"`
	Status         string `json:"status"`
}

type CatalogService interface {
	AddMedicine(ctx context.Context, doctorID uuid.UUID, req CreateMedicineRequest) (MedicineResponse, error)
	UpdateMedicine(ctx context.Context, doctorID uuid.UUID, id string, req UpdateMedicineRequest) (MedicineResponse, error)
	ArchiveMedicine(ctx context.Context, doctorID uuid.UUID, id string) error
	ListMedicines(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) ([]MedicineResponse, int64, error)
}

type catalogService struct {
	medicineRepo repository.MedicineRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCatalogService(
	medicineRepo repository.MedicineRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		medicineRepo: medicineRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func toMedicineResponse(m model.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:             m.ID.String(),
		Name:           m.Name,
		DosageForm:     m.DosageForm,
		UnitPrice:      m.UnitPrice.StringFixed(2),
		QuantityOnHand: m.QuantityOnHand,
		CGSTRate:       m.CGSTRate.StringFixed(2),
		GSTRate:        m.GSTRate.StringFixed(2),
		Status:         m.Status,
	}
}

func (s *catalogService) AddMedicine(ctx context.Context, doctorID uuid.UUID, req CreateMedicineRequest) (MedicineResponse, error) {
	price := decimal.NewFromFloat(req.UnitPrice)
	if err := ValidatePrice(price); err != nil {
		return MedicineResponse{}, err
	}

	medicine := model.Medicine{
		DoctorID:       doctorID,
		Name:           req.Name,
		DosageForm:     req.DosageForm,
		UnitPrice:      price,
		QuantityOnHand: req.Quantity,
		CGSTRate:       decimal.NewFromFloat(req.CGSTRate),
		GSTRate:        decimal.NewFromFloat(req.GSTRate),
		Status:         model.MedicineStatusActive,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Case-insensitive duplicate check per doctor
		if _, err := s.medicineRepo.FindByName(txCtx, doctorID, req.Name); err == nil {
			return apperror.ErrDuplicateMedicine
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		if err := s.medicineRepo.Create(txCtx, &medicine); err != nil {
			return fmt.Errorf("failed to create medicine: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			DoctorID:   &doctorID,
			Action:     model.ActionCreateMedicine,
			EntityID:   medicine.ID.String(),
			EntityName: medicine.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})

	if err != nil {
		return MedicineResponse{}, err
	}

	return toMedicineResponse(medicine), nil
}

func (s *catalogService) UpdateMedicine(ctx context.Context, doctorID uuid.UUID, id string, req UpdateMedicineRequest) (MedicineResponse, error) {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return MedicineResponse{}, apperror.NewValidation("invalid medicine id")
	}

	price := decimal.NewFromFloat(req.UnitPrice)
	if err := ValidatePrice(price); err != nil {
		return MedicineResponse{}, err
	}

	medicine, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MedicineResponse{}, apperror.NewNotFound("medicine")
		}
		return MedicineResponse{}, fmt.Errorf("database error: %w", err)
	}
	if medicine.DoctorID != doctorID {
		return MedicineResponse{}, apperror.NewNotFound("medicine")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Renaming onto another medicine's name is still a duplicate
		if existing, err := s.medicineRepo.FindByName(txCtx, doctorID, req.Name); err == nil && existing.ID != medicine.ID {
			return apperror.ErrDuplicateMedicine
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("database error: %w", err)
		}

		medicine.Name = req.Name
		medicine.DosageForm = req.DosageForm
		medicine.UnitPrice = price
		medicine.QuantityOnHand = req.Quantity
		medicine.CGSTRate = decimal.NewFromFloat(req.CGSTRate)
		medicine.GSTRate = decimal.NewFromFloat(req.GSTRate)

		if err := s.medicineRepo.Update(txCtx, medicine); err != nil {
			return fmt.Errorf("failed to update medicine: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			DoctorID:   &doctorID,
			Action:     model.ActionUpdateMedicine,
			EntityID:   medicine.ID.String(),
			EntityName: medicine.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})

	if err != nil {
		return MedicineResponse{}, err
	}

	return toMedicineResponse(*medicine), nil
}

func (s *catalogService) ArchiveMedicine(ctx context.Context, doctorID uuid.UUID, id string) error {
	medicineID, err := uuid.Parse(id)
	if err != nil {
		return apperror.NewValidation("invalid medicine id")
	}

	medicine, err := s.medicineRepo.FindByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NewNotFound("medicine")
		}
		return fmt.Errorf("database error: %w", err)
	}
	if medicine.DoctorID != doctorID {
		return apperror.NewNotFound("medicine")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.medicineRepo.Archive(txCtx, medicineID); err != nil {
			return fmt.Errorf("failed to archive medicine: %w", err)
		}

		audit := &model.AuditLog{
			DoctorID:   &doctorID,
			Action:     model.ActionArchiveMedicine,
			EntityID:   medicine.ID.String(),
			EntityName: medicine.Name,
			Details:    `{"archived": true}`,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *catalogService) ListMedicines(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) ([]MedicineResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	medicines, total, err := s.medicineRepo.List(ctx, doctorID, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]MedicineResponse, 0, len(medicines))
	for _, m := range medicines {
		res = append(res, toMedicineResponse(m))
	}

	return res, total, nil
}
