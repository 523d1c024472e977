package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/repository"
	"pharmacy-backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceItemResponse mirrors one invoice item for the external renderer.
type InvoiceItemResponse struct {
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	CGSTRate     string `json:"cgst_rate"`
	GSTRate      string `json:"gst_rate"`
	LineTotal    string `json:"line_total"`
}

// InvoiceResponse is the full data contract handed to HTML/PDF rendering.
type InvoiceResponse struct {
	ID            string                `json:"id"`
	InvoiceNo     string                `json:"invoice_no"`
	OrderID       string                `json:"order_id"`
	PatientID     string                `json:"patient_id"`
	DoctorName    string                `json:"doctor_name"`
	ClinicName    string                `json:"clinic_name"`
	ClinicAddress string                `json:"clinic_address"`
	PaymentMethod string                `json:"payment_method"`
	GrandTotal    string                `json:"grand_total"`
	Items         []InvoiceItemResponse `json:"items"`
	IssuedAt      time.Time             `json:"issued_at"`
}

// InvoiceService is read-only: invoices are created exclusively by payment
// settlement, exactly once per order.
type InvoiceService interface {
	GetInvoice(ctx context.Context, doctorID uuid.UUID, id string) (InvoiceResponse, error)
	GetInvoiceForOrder(ctx context.Context, doctorID uuid.UUID, orderID string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]InvoiceResponse, int64, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
}

func NewInvoiceService(invoiceRepo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo}
}

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			MedicineName: item.MedicineName,
			Dosage:       item.Dosage,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.StringFixed(2),
			CGSTRate:     item.CGSTRate.StringFixed(2),
			GSTRate:      item.GSTRate.StringFixed(2),
			LineTotal:    item.LineTotal.StringFixed(2),
		})
	}

	return InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNo:     inv.InvoiceNo,
		OrderID:       inv.OrderID.String(),
		PatientID:     inv.PatientID.String(),
		DoctorName:    inv.DoctorName,
		ClinicName:    inv.ClinicName,
		ClinicAddress: inv.ClinicAddress,
		PaymentMethod: inv.PaymentMethod,
		GrandTotal:    inv.GrandTotal.StringFixed(2),
		Items:         items,
		IssuedAt:      inv.IssuedAt,
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, doctorID uuid.UUID, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, apperror.NewValidation("invalid invoice id")
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, apperror.NewNotFound("invoice")
		}
		return InvoiceResponse{}, fmt.Errorf("database error: %w", err)
	}
	if invoice.DoctorID != doctorID {
		return InvoiceResponse{}, apperror.NewNotFound("invoice")
	}

	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) GetInvoiceForOrder(ctx context.Context, doctorID uuid.UUID, orderID string) (InvoiceResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return InvoiceResponse{}, apperror.NewValidation("invalid order id")
	}

	invoice, err := s.invoiceRepo.FindByOrderID(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvoiceResponse{}, apperror.NewNotFound("invoice")
		}
		return InvoiceResponse{}, fmt.Errorf("database error: %w", err)
	}
	if invoice.DoctorID != doctorID {
		return InvoiceResponse{}, apperror.NewNotFound("invoice")
	}

	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]InvoiceResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	invoices, total, err := s.invoiceRepo.List(ctx, doctorID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		res = append(res, toInvoiceResponse(inv))
	}

	return res, total, nil
}
