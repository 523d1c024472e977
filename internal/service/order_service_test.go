package service

import (
	"context"
	"testing"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/pkg/apperror"

	"github.com/google/uuid"
)

type orderFixture struct {
	orders   *fakeOrderRepo
	meds     *fakeMedicineRepo
	clinics  *fakeClinicRepo
	audits   *fakeAuditRepo
	svc      OrderService
	doctorID uuid.UUID
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:   newFakeOrderRepo(),
		meds:     newFakeMedicineRepo(),
		clinics:  newFakeClinicRepo(),
		audits:   &fakeAuditRepo{},
		doctorID: uuid.New(),
	}
	f.svc = NewOrderService(f.orders, f.meds, f.clinics, f.audits, &fakeTxManager{})
	return f
}

func TestCreateOrderSnapshotsCatalogData(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	medicine := &model.Medicine{
		DoctorID:   f.doctorID,
		Name:       "Paracetamol 500mg",
		DosageForm: "tablet",
		UnitPrice:  dec("2.50"),
		CGSTRate:   dec("9"),
		GSTRate:    dec("18"),
		Status:     model.MedicineStatusActive,
	}
	if err := f.meds.Create(ctx, medicine); err != nil {
		t.Fatalf("seed medicine: %v", err)
	}

	res, err := f.svc.CreateOrder(ctx, f.doctorID, CreateOrderRequest{
		PatientID: uuid.NewString(),
		Lines: []OrderLineRequest{
			{MedicineID: medicine.ID.String(), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if res.PaymentState != model.PaymentStateAwaitingPricing {
		t.Errorf("state = %s, want %s (no price confirmed yet)", res.PaymentState, model.PaymentStateAwaitingPricing)
	}
	if len(res.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(res.Lines))
	}
	line := res.Lines[0]
	if line.MedicineName != "Paracetamol 500mg" || line.Dosage != "tablet" {
		t.Errorf("line snapshot = %s / %s, want catalog name and dosage", line.MedicineName, line.Dosage)
	}
	if line.CGSTRate != "9.00" || line.GSTRate != "18.00" {
		t.Errorf("tax snapshot = %s / %s, want 9.00 / 18.00", line.CGSTRate, line.GSTRate)
	}
	if line.UnitPrice != nil {
		t.Errorf("unit price = %v, want unset; catalog price is not prefilled", *line.UnitPrice)
	}
	if res.OrderCode == "" {
		t.Error("expected a generated order code")
	}

	if n := f.audits.countByAction(model.ActionCreateOrder); n != 1 {
		t.Errorf("create order audit entries = %d, want 1", n)
	}
}

func TestCreateOrderWalkInLine(t *testing.T) {
	f := newOrderFixture()
	price := 15.0

	res, err := f.svc.CreateOrder(context.Background(), f.doctorID, CreateOrderRequest{
		PatientID: uuid.NewString(),
		Lines: []OrderLineRequest{
			{Name: "Zinc Supplement", Quantity: 1, UnitPrice: &price},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if res.PaymentState != model.PaymentStateReadyForPayment {
		t.Errorf("state = %s, want %s after an up-front price", res.PaymentState, model.PaymentStateReadyForPayment)
	}
	if res.TotalAmount != "15.00" {
		t.Errorf("total = %s, want 15.00", res.TotalAmount)
	}
}

func TestCreateOrderRejectsForeignMedicine(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	medicine := &model.Medicine{
		DoctorID:  uuid.New(),
		Name:      "Not Yours",
		UnitPrice: dec("1"),
		Status:    model.MedicineStatusActive,
	}
	if err := f.meds.Create(ctx, medicine); err != nil {
		t.Fatalf("seed medicine: %v", err)
	}

	_, err := f.svc.CreateOrder(ctx, f.doctorID, CreateOrderRequest{
		PatientID: uuid.NewString(),
		Lines: []OrderLineRequest{
			{MedicineID: medicine.ID.String(), Quantity: 1},
		},
	})
	if err == nil || apperror.Get(err).Code != 404 {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateOrderRequiresNameOrReference(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.CreateOrder(context.Background(), f.doctorID, CreateOrderRequest{
		PatientID: uuid.NewString(),
		Lines: []OrderLineRequest{
			{Quantity: 1},
		},
	})
	if err == nil || apperror.Get(err).Code != 400 {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	res, err := f.svc.CreateOrder(ctx, f.doctorID, CreateOrderRequest{
		PatientID: uuid.NewString(),
		Lines:     []OrderLineRequest{{Name: "Syrup", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := f.svc.GetOrder(ctx, f.doctorID, res.ID); err != nil {
		t.Errorf("owner blocked from own order: %v", err)
	}
	if _, err := f.svc.GetOrder(ctx, uuid.New(), res.ID); err == nil || apperror.Get(err).Code != 404 {
		t.Errorf("err = %v, want not found for a foreign doctor", err)
	}
}
