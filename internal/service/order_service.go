package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/repository"
	"pharmacy-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type OrderLineRequest struct {
	MedicineID string   `json:"medicine_id"` // optional: catalog reference
	Name       string   `json:"name"`        // required when medicine_id is empty
	Dosage     string   `json:"dosage"`
	Quantity   int      `json:"quantity" binding:"required,gt=0"`
	UnitPrice  *float64 `json:"unit_price"` // optional: walk-ins may price up front
}

type CreateOrderRequest struct {
	PatientID       string             `json:"patient_id" binding:"required"`
	ClinicAddressID string             `json:"clinic_address_id"`
	Lines           []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type OrderLineResponse struct {
	ID           string  `json:"id"`
	MedicineID   *string `json:"medicine_id"`
	MedicineName string  `json:"medicine_name"`
	Dosage       string  `json:"dosage"`
	Quantity     int     `json:"quantity"`
	UnitPrice    *string `json:"unit_price"`
	CGSTRate     string  `json:"cgst_rate"`
	GSTRate      string  `json:"gst_rate"`
	Status       string  `json:"status"`
	LineTotal    string  `json:"line_total"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	OrderCode       string              `json:"order_code"`
	PatientID       string              `json:"patient_id"`
	ClinicAddressID *string             `json:"clinic_address_id"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentState    string              `json:"payment_state"`
	FailureReason   string              `json:"failure_reason,omitempty"`
	QRImageRef      string              `json:"qr_image_ref,omitempty"`
	TotalAmount     string              `json:"total_amount"`
	SettledAt       *time.Time          `json:"settled_at"`
	Lines           []OrderLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"created_at"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, doctorID uuid.UUID, req CreateOrderRequest) (OrderResponse, error)
	GetOrder(ctx context.Context, doctorID uuid.UUID, id string) (OrderResponse, error)
	ListOrders(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]OrderResponse, int64, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	medicineRepo repository.MedicineRepository
	clinicRepo   repository.ClinicAddressRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	medicineRepo repository.MedicineRepository,
	clinicRepo repository.ClinicAddressRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		medicineRepo: medicineRepo,
		clinicRepo:   clinicRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func toOrderResponse(order model.PharmacyOrder) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lr := OrderLineResponse{
			ID:           line.ID.String(),
			MedicineName: line.MedicineName,
			Dosage:       line.Dosage,
			Quantity:     line.Quantity,
			CGSTRate:     line.CGSTRate.StringFixed(2),
			GSTRate:      line.GSTRate.StringFixed(2),
			Status:       line.Status,
			LineTotal:    LineTotal(line).StringFixed(2),
		}
		if line.MedicineID != nil {
			id := line.MedicineID.String()
			lr.MedicineID = &id
		}
		if line.UnitPrice != nil {
			p := line.UnitPrice.StringFixed(2)
			lr.UnitPrice = &p
		}
		lines = append(lines, lr)
	}

	res := OrderResponse{
		ID:            order.ID.String(),
		OrderCode:     order.OrderCode,
		PatientID:     order.PatientID.String(),
		PaymentMethod: order.PaymentMethod,
		PaymentState:  order.PaymentState,
		FailureReason: order.FailureReason,
		QRImageRef:    order.QRImageRef,
		TotalAmount:   OrderTotal(order).StringFixed(2), // always fresh, never cached
		SettledAt:     order.SettledAt,
		Lines:         lines,
		CreatedAt:     order.CreatedAt,
	}
	if order.ClinicAddressID != nil {
		id := order.ClinicAddressID.String()
		res.ClinicAddressID = &id
	}
	return res
}

// CreateOrder derives a pharmacy order from prescription lines or a walk-in
// request. Tax rates are snapshotted from the catalog at this moment; later
// catalog edits never touch existing lines.
func (s *orderService) CreateOrder(ctx context.Context, doctorID uuid.UUID, req CreateOrderRequest) (OrderResponse, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return OrderResponse{}, apperror.NewValidation("invalid patient id")
	}

	var clinicAddressID *uuid.UUID
	if req.ClinicAddressID != "" {
		addrID, err := uuid.Parse(req.ClinicAddressID)
		if err != nil {
			return OrderResponse{}, apperror.NewValidation("invalid clinic address id")
		}
		address, err := s.clinicRepo.FindByID(ctx, addrID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return OrderResponse{}, apperror.NewNotFound("clinic address")
			}
			return OrderResponse{}, fmt.Errorf("database error: %w", err)
		}
		if address.DoctorID != doctorID {
			return OrderResponse{}, apperror.NewNotFound("clinic address")
		}
		clinicAddressID = &addrID
	}

	order := model.PharmacyOrder{
		OrderCode:       fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), uuid.NewString()[:8]),
		DoctorID:        doctorID,
		PatientID:       patientID,
		ClinicAddressID: clinicAddressID,
		PaymentMethod:   model.PaymentMethodNone,
	}

	for _, lineReq := range req.Lines {
		line := model.OrderLine{
			MedicineName: lineReq.Name,
			Dosage:       lineReq.Dosage,
			Quantity:     lineReq.Quantity,
			Status:       model.LineStatusPending,
		}

		if lineReq.MedicineID != "" {
			medID, parseErr := uuid.Parse(lineReq.MedicineID)
			if parseErr != nil {
				return OrderResponse{}, apperror.NewValidation("invalid medicine id in line")
			}
			medicine, findErr := s.medicineRepo.FindByID(ctx, medID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return OrderResponse{}, apperror.NewNotFound("medicine")
				}
				return OrderResponse{}, fmt.Errorf("failed to find medicine: %w", findErr)
			}
			if medicine.DoctorID != doctorID {
				return OrderResponse{}, apperror.NewNotFound("medicine")
			}
			line.MedicineID = &medicine.ID
			line.MedicineName = medicine.Name
			line.Dosage = medicine.DosageForm
			// snapshot tax rates at creation time
			line.CGSTRate = medicine.CGSTRate
			line.GSTRate = medicine.GSTRate
		} else if line.MedicineName == "" {
			return OrderResponse{}, apperror.NewValidation("line requires a medicine id or a name")
		}

		if lineReq.UnitPrice != nil {
			price := decimal.NewFromFloat(*lineReq.UnitPrice)
			if err := ValidatePrice(price); err != nil {
				return OrderResponse{}, err
			}
			line.UnitPrice = &price
		}

		order.Lines = append(order.Lines, line)
	}

	order.PaymentState = DeriveState(order)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_code": order.OrderCode,
			"patient_id": order.PatientID.String(),
			"line_count": len(order.Lines),
		})
		audit := &model.AuditLog{
			DoctorID:   &doctorID,
			Action:     model.ActionCreateOrder,
			EntityID:   order.ID.String(),
			EntityName: order.OrderCode,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})

	if err != nil {
		return OrderResponse{}, err
	}

	return toOrderResponse(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, doctorID uuid.UUID, id string) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperror.NewValidation("invalid order id")
	}

	order, err := s.orderRepo.FindByIDWithLines(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperror.NewNotFound("order")
		}
		return OrderResponse{}, fmt.Errorf("database error: %w", err)
	}
	if order.DoctorID != doctorID {
		return OrderResponse{}, apperror.NewNotFound("order")
	}

	return toOrderResponse(*order), nil
}

func (s *orderService) ListOrders(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]OrderResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.List(ctx, doctorID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, toOrderResponse(o))
	}

	return res, total, nil
}
