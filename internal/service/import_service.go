package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BulkRow is one parsed row of an uploaded inventory sheet. Values arrive as
// strings; coercion happens during validation, per row, with 1-based row
// numbers in every error.
type BulkRow struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type validatedRow struct {
	Row      int
	Name     string
	Quantity int
	Price    decimal.Decimal
}

type ImportResult struct {
	InsertedCount int        `json:"inserted_count"`
	Errors        []RowError `json:"errors"`
}

type ImportService interface {
	ValidateBatch(rows []BulkRow) []RowError
	SubmitBatch(ctx context.Context, doctorID uuid.UUID, rows []BulkRow) (ImportResult, error)
}

type importService struct {
	medicineRepo repository.MedicineRepository
	stockRepo    repository.StockTransactionRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     Notifier

	// Serializes submissions per doctor so two rows of one batch cannot race
	// to insert the same new name before either commit is visible.
	doctorLocks sync.Map
}

func NewImportService(
	medicineRepo repository.MedicineRepository,
	stockRepo repository.StockTransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) ImportService {
	return &importService{
		medicineRepo: medicineRepo,
		stockRepo:    stockRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
	}
}

// validateRows coerces every row independently. A bad row never aborts the
// batch; it is reported with its 1-based source row number.
func validateRows(rows []BulkRow) ([]validatedRow, []RowError) {
	valid := make([]validatedRow, 0, len(rows))
	var rowErrors []RowError

	for i, row := range rows {
		rowNo := i + 1

		name := strings.TrimSpace(row.Name)
		if name == "" {
			rowErrors = append(rowErrors, RowError{Row: rowNo, Message: "medicine name is required"})
			continue
		}

		qty, err := strconv.Atoi(strings.TrimSpace(row.Quantity))
		if err != nil || qty < 0 {
			rowErrors = append(rowErrors, RowError{Row: rowNo, Message: "quantity must be a non-negative number"})
			continue
		}

		price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
		if err != nil || price.IsNegative() {
			rowErrors = append(rowErrors, RowError{Row: rowNo, Message: "price must be a non-negative number"})
			continue
		}

		valid = append(valid, validatedRow{Row: rowNo, Name: name, Quantity: qty, Price: price})
	}

	return valid, rowErrors
}

func (s *importService) ValidateBatch(rows []BulkRow) []RowError {
	_, rowErrors := validateRows(rows)
	return rowErrors
}

// SubmitBatch evaluates each row as insert-or-reject against the doctor's
// catalog. Partial success is the normal outcome: doctors re-submit sheets
// mixing new and already-known medicines, so nothing is rolled back and
// every rejection is reported alongside the inserted count.
func (s *importService) SubmitBatch(ctx context.Context, doctorID uuid.UUID, rows []BulkRow) (ImportResult, error) {
	valid, rowErrors := validateRows(rows)
	result := ImportResult{Errors: rowErrors}

	lock, _ := s.doctorLocks.LoadOrStore(doctorID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	for _, row := range valid {
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if _, err := s.medicineRepo.FindByName(txCtx, doctorID, row.Name); err == nil {
				return gorm.ErrDuplicatedKey
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("database error: %w", err)
			}

			medicine := model.Medicine{
				DoctorID:       doctorID,
				Name:           row.Name,
				UnitPrice:      row.Price,
				QuantityOnHand: row.Quantity,
				Status:         model.MedicineStatusActive,
			}
			if err := s.medicineRepo.Create(txCtx, &medicine); err != nil {
				return fmt.Errorf("failed to create medicine: %w", err)
			}

			if row.Quantity > 0 {
				stockTx := &model.StockTransaction{
					MedicineID:      medicine.ID,
					TransactionType: model.StockTxIn,
					QuantityChanged: row.Quantity,
					StockAfter:      row.Quantity,
				}
				if err := s.stockRepo.Log(txCtx, stockTx); err != nil {
					return fmt.Errorf("failed to record stock entry: %w", err)
				}
			}

			return nil
		})

		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				result.Errors = append(result.Errors, RowError{Row: row.Row, Message: "already exists"})
			} else {
				log.Printf("bulk import row %d failed: %v", row.Row, err)
				result.Errors = append(result.Errors, RowError{Row: row.Row, Message: "failed to insert"})
			}
			continue
		}
		result.InsertedCount++
	}

	details, _ := json.Marshal(map[string]interface{}{
		"total_rows":     len(rows),
		"inserted_count": result.InsertedCount,
		"error_count":    len(result.Errors),
	})
	audit := &model.AuditLog{
		DoctorID:   &doctorID,
		Action:     model.ActionBulkImport,
		EntityName: fmt.Sprintf("%d rows", len(rows)),
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		log.Printf("failed to write bulk import audit log: %v", err)
	}

	if s.notifier != nil {
		s.notifier.Publish("import.completed", map[string]interface{}{
			"doctor_id":      doctorID.String(),
			"inserted_count": result.InsertedCount,
			"error_count":    len(result.Errors),
		})
	}

	return result, nil
}
