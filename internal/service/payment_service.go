package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/qr"
	"pharmacy-backend/internal/repository"
	"pharmacy-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notifier is the fire-and-forget boundary to the dashboard/toast layer.
// Implemented by the websocket hub; the core never waits on it.
type Notifier interface {
	Publish(event string, data map[string]interface{})
}

type ConfirmPaymentResponse struct {
	Order     OrderResponse `json:"order"`
	InvoiceID string        `json:"invoice_id,omitempty"`
	Replayed  bool          `json:"replayed"` // true when the order was already settled
}

// PaymentService drives an order through pricing confirmation, method
// selection, QR retrieval and settlement. Every transition runs inside a
// transaction holding a FOR UPDATE lock on the order row, which serializes
// all mutations per order.
type PaymentService interface {
	SetLinePrice(ctx context.Context, doctorID uuid.UUID, orderID, lineID string, price decimal.Decimal) (OrderResponse, error)
	SelectMethod(ctx context.Context, doctorID uuid.UUID, orderID, method string) (OrderResponse, error)
	ConfirmPayment(ctx context.Context, doctorID uuid.UUID, orderID, method string, amount decimal.Decimal) (ConfirmPaymentResponse, error)
}

type paymentService struct {
	orderRepo    repository.OrderRepository
	medicineRepo repository.MedicineRepository
	stockRepo    repository.StockTransactionRepository
	invoiceRepo  repository.InvoiceRepository
	revenueRepo  repository.RevenueRepository
	clinicRepo   repository.ClinicAddressRepository
	doctorRepo   repository.DoctorRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	qrProvider   qr.Provider
	notifier     Notifier
	qrTimeout    time.Duration
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	medicineRepo repository.MedicineRepository,
	stockRepo repository.StockTransactionRepository,
	invoiceRepo repository.InvoiceRepository,
	revenueRepo repository.RevenueRepository,
	clinicRepo repository.ClinicAddressRepository,
	doctorRepo repository.DoctorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	qrProvider qr.Provider,
	notifier Notifier,
) PaymentService {
	return &paymentService{
		orderRepo:    orderRepo,
		medicineRepo: medicineRepo,
		stockRepo:    stockRepo,
		invoiceRepo:  invoiceRepo,
		revenueRepo:  revenueRepo,
		clinicRepo:   clinicRepo,
		doctorRepo:   doctorRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		qrProvider:   qrProvider,
		notifier:     notifier,
		qrTimeout:    10 * time.Second,
	}
}

// lockOrder loads the order with its lines under a row lock and checks ownership.
func (s *paymentService) lockOrder(ctx context.Context, doctorID, orderID uuid.UUID) (*model.PharmacyOrder, error) {
	order, err := s.orderRepo.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("order")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if order.DoctorID != doctorID {
		return nil, apperror.NewNotFound("order")
	}
	return order, nil
}

// SetLinePrice applies a price edit. Prices may be edited any number of times
// before settlement; the only hard rule is that a settled order is immutable.
// Editing a price drops any selected method back to the recomputed pre-payment
// state.
func (s *paymentService) SetLinePrice(ctx context.Context, doctorID uuid.UUID, orderID, lineID string, price decimal.Decimal) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, apperror.NewValidation("invalid order id")
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return OrderResponse{}, apperror.NewValidation("invalid line id")
	}
	if err := ValidatePrice(price); err != nil {
		return OrderResponse{}, err
	}

	var updated model.PharmacyOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockOrder(txCtx, doctorID, oid)
		if err != nil {
			return err
		}
		if order.PaymentState == model.PaymentStateSettled {
			return apperror.ErrOrderSettled
		}

		found := false
		for i := range order.Lines {
			if order.Lines[i].ID == lid {
				p := price
				order.Lines[i].UnitPrice = &p
				found = true
				break
			}
		}
		if !found {
			return apperror.NewNotFound("order line")
		}

		order.PaymentState = DeriveState(*order)
		order.PaymentMethod = model.PaymentMethodNone
		order.FailureReason = ""
		order.QRImageRef = ""

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		updated = *order
		return nil
	})

	if err != nil {
		return OrderResponse{}, err
	}
	return toOrderResponse(updated), nil
}

// SelectMethod chooses cash or UPI for an order whose lines are all priced.
// Cash is immediately eligible for confirmation. UPI commits an AWAITING_QR
// state, fetches the code outside the transaction, then commits the outcome;
// re-selecting while a fetch is in flight supersedes it (best-effort cancel —
// the stale response is dropped via the attempt counter).
func (s *paymentService) SelectMethod(ctx context.Context, doctorID uuid.UUID, orderID, method string) (OrderResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return OrderResponse{}, apperror.NewValidation("invalid order id")
	}
	if method != model.PaymentMethodCash && method != model.PaymentMethodUPI {
		return OrderResponse{}, apperror.NewValidation("payment method must be CASH or UPI")
	}

	var (
		updated      model.PharmacyOrder
		attempt      int
		clinicAddrID uuid.UUID
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockOrder(txCtx, doctorID, oid)
		if err != nil {
			return err
		}
		switch order.PaymentState {
		case model.PaymentStateSettled:
			return apperror.ErrOrderSettled
		case model.PaymentStateAwaitingPricing:
			return apperror.ErrUnpricedLines
		}

		if method == model.PaymentMethodCash {
			order.PaymentMethod = model.PaymentMethodCash
			order.PaymentState = model.PaymentStateMethodSelected
			order.FailureReason = ""
			order.QRImageRef = ""
		} else {
			if order.ClinicAddressID == nil {
				return apperror.ErrMissingClinicAddress
			}
			clinicAddrID = *order.ClinicAddressID
			order.PaymentMethod = model.PaymentMethodUPI
			order.PaymentState = model.PaymentStateAwaitingQR
			order.FailureReason = ""
			order.QRImageRef = ""
			order.QRAttempt++
			attempt = order.QRAttempt
		}

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		updated = *order
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	if method == model.PaymentMethodCash {
		return toOrderResponse(updated), nil
	}

	// QR fetch happens outside any transaction. No automatic retry: a
	// missing or late answer fails this attempt and the doctor re-selects.
	qrCtx, cancel := context.WithTimeout(ctx, s.qrTimeout)
	defer cancel()
	qrRef, qrErr := s.qrProvider.GetQRCode(qrCtx, clinicAddrID, doctorID)

	var superseded bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockOrder(txCtx, doctorID, oid)
		if err != nil {
			return err
		}
		// A later selection already moved the order on; drop this result.
		if order.PaymentState != model.PaymentStateAwaitingQR || order.QRAttempt != attempt {
			superseded = true
			updated = *order
			return nil
		}

		if qrErr != nil {
			order.PaymentState = model.PaymentStateFailed
			order.FailureReason = model.FailureReasonQRUnavailable
		} else {
			order.PaymentState = model.PaymentStateMethodSelected
			order.QRImageRef = qrRef
		}

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		updated = *order
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	if superseded {
		return OrderResponse{}, apperror.NewConflict("payment attempt superseded by a newer selection")
	}
	if qrErr != nil {
		log.Printf("qr fetch failed for order %s: %v", orderID, qrErr)
		return toOrderResponse(updated), apperror.ErrQRUnavailable
	}
	return toOrderResponse(updated), nil
}

// ConfirmPayment settles the order. The amount is checked against a total
// computed fresh from the locked lines, never the caller's arithmetic. The
// call is idempotent: confirming an already-settled order is a no-op success,
// so client retries on flaky networks cannot double-charge or double-count
// revenue — only the first of N concurrent confirms performs side effects.
func (s *paymentService) ConfirmPayment(ctx context.Context, doctorID uuid.UUID, orderID, method string, amount decimal.Decimal) (ConfirmPaymentResponse, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return ConfirmPaymentResponse{}, apperror.NewValidation("invalid order id")
	}

	var res ConfirmPaymentResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.lockOrder(txCtx, doctorID, oid)
		if err != nil {
			return err
		}

		if order.PaymentState == model.PaymentStateSettled {
			res.Order = toOrderResponse(*order)
			res.Replayed = true
			if invoice, err := s.invoiceRepo.FindByOrderID(txCtx, order.ID); err == nil {
				res.InvoiceID = invoice.ID.String()
			}
			return nil
		}

		if order.PaymentState != model.PaymentStateMethodSelected {
			return apperror.NewConflict("order is not ready for confirmation")
		}
		if method != order.PaymentMethod {
			return apperror.NewConflict("payment method does not match the selected method")
		}
		if HasUnpricedPendingLine(*order) {
			return apperror.ErrUnpricedLines
		}

		total := OrderTotal(*order)
		if !total.IsPositive() || !amount.Equal(total) {
			return apperror.ErrInvalidAmount
		}

		now := time.Now()

		// First settled order for this patient today? Checked before the
		// state flips so the current order doesn't count itself.
		settledBefore, err := s.orderRepo.CountSettledForPatientOnDay(txCtx, doctorID, order.PatientID, now)
		if err != nil {
			return fmt.Errorf("failed to check patient settlements: %w", err)
		}

		for i := range order.Lines {
			if order.Lines[i].Status == model.LineStatusPending && order.Lines[i].UnitPrice != nil {
				order.Lines[i].Status = model.LineStatusCompleted
			}
		}
		order.PaymentState = model.PaymentStateSettled
		order.FailureReason = ""
		order.SettledAt = &now

		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		if err := s.applyStockMovements(txCtx, order); err != nil {
			return err
		}

		invoice, err := s.createInvoice(txCtx, order)
		if err != nil {
			return err
		}

		if err := s.revenueRepo.AddSettlement(txCtx, doctorID, now, total, settledBefore == 0); err != nil {
			return fmt.Errorf("failed to update revenue: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_code": order.OrderCode,
			"method":     order.PaymentMethod,
			"amount":     total.StringFixed(2),
			"invoice_no": invoice.InvoiceNo,
		})
		audit := &model.AuditLog{
			DoctorID:   &doctorID,
			Action:     model.ActionSettlePayment,
			EntityID:   order.ID.String(),
			EntityName: order.OrderCode,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		res.Order = toOrderResponse(*order)
		res.InvoiceID = invoice.ID.String()
		return nil
	})

	if err != nil {
		return ConfirmPaymentResponse{}, err
	}

	if !res.Replayed && s.notifier != nil {
		s.notifier.Publish("payment.settled", map[string]interface{}{
			"order_id":   res.Order.ID,
			"amount":     res.Order.TotalAmount,
			"invoice_id": res.InvoiceID,
		})
	}

	return res, nil
}

// applyStockMovements decrements stock for every settled line that references
// a catalog medicine, under a row lock per medicine.
func (s *paymentService) applyStockMovements(ctx context.Context, order *model.PharmacyOrder) error {
	for _, line := range order.Lines {
		if line.MedicineID == nil {
			continue
		}
		medicine, err := s.medicineRepo.FindByIDForUpdate(ctx, *line.MedicineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue // archived since the order was built; nothing to move
			}
			return fmt.Errorf("failed to lock medicine: %w", err)
		}

		stockAfter := medicine.QuantityOnHand - line.Quantity
		if err := s.medicineRepo.UpdateStock(ctx, medicine.ID, stockAfter); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		stockTx := &model.StockTransaction{
			MedicineID:      medicine.ID,
			OrderID:         &order.ID,
			TransactionType: model.StockTxOut,
			QuantityChanged: -line.Quantity,
			StockAfter:      stockAfter,
		}
		if err := s.stockRepo.Log(ctx, stockTx); err != nil {
			return fmt.Errorf("failed to record stock entry: %w", err)
		}
	}
	return nil
}

// createInvoice emits the structured record for the renderer. Numbering is
// doctor-scoped: INV-<yyyymmdd>-<seq> where seq counts that doctor's invoices
// for the day. The doctor row is locked first so two of the doctor's orders
// settling at once cannot read the same sequence and collide on invoice_no.
func (s *paymentService) createInvoice(ctx context.Context, order *model.PharmacyOrder) (*model.Invoice, error) {
	doctor, err := s.doctorRepo.GetByIDForUpdate(ctx, order.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock doctor for invoice numbering: %w", err)
	}

	prefix := "INV-" + time.Now().Format("20060102") + "-"
	count, err := s.invoiceRepo.CountByPrefix(ctx, order.DoctorID, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}

	invoice := &model.Invoice{
		InvoiceNo:     fmt.Sprintf("%s%05d", prefix, count+1),
		OrderID:       order.ID,
		DoctorID:      order.DoctorID,
		PatientID:     order.PatientID,
		PaymentMethod: order.PaymentMethod,
		GrandTotal:    OrderTotal(*order),
		IssuedAt:      time.Now(),
		DoctorName:    doctor.FullName,
	}
	if order.ClinicAddressID != nil {
		if address, err := s.clinicRepo.FindByID(ctx, *order.ClinicAddressID); err == nil {
			invoice.ClinicName = address.ClinicName
			invoice.ClinicAddress = address.FullAddress
		}
	}

	for _, line := range order.Lines {
		if line.UnitPrice == nil {
			continue
		}
		invoice.Items = append(invoice.Items, model.InvoiceItem{
			MedicineName: line.MedicineName,
			Dosage:       line.Dosage,
			Quantity:     line.Quantity,
			UnitPrice:    *line.UnitPrice,
			CGSTRate:     line.CGSTRate,
			GSTRate:      line.GSTRate,
			LineTotal:    LineTotal(line),
		})
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoice, nil
}
