package service

import (
	"context"
	"testing"

	"pharmacy-backend/internal/model"

	"github.com/google/uuid"
)

type importFixture struct {
	meds     *fakeMedicineRepo
	stock    *fakeStockRepo
	audits   *fakeAuditRepo
	notifier *fakeNotifier
	svc      ImportService
	doctorID uuid.UUID
}

func newImportFixture() *importFixture {
	f := &importFixture{
		meds:     newFakeMedicineRepo(),
		stock:    &fakeStockRepo{},
		audits:   &fakeAuditRepo{},
		notifier: &fakeNotifier{},
		doctorID: uuid.New(),
	}
	f.svc = NewImportService(f.meds, f.stock, f.audits, &fakeTxManager{}, f.notifier)
	return f
}

func TestValidateBatchReportsRowNumbers(t *testing.T) {
	svc := newImportFixture().svc

	rows := []BulkRow{
		{Name: "Paracetamol", Quantity: "10", Price: "2.50"},
		{Name: "", Quantity: "5", Price: "1"},
		{Name: "Cough Syrup", Quantity: "abc", Price: "3"},
		{Name: "Vitamin C", Quantity: "7", Price: "-4"},
		{Name: "Ibuprofen", Quantity: "-1", Price: "5"},
	}

	rowErrors := svc.ValidateBatch(rows)
	if len(rowErrors) != 4 {
		t.Fatalf("errors = %d, want 4: %+v", len(rowErrors), rowErrors)
	}

	wantRows := []int{2, 3, 4, 5}
	for i, re := range rowErrors {
		if re.Row != wantRows[i] {
			t.Errorf("error %d row = %d, want %d", i, re.Row, wantRows[i])
		}
	}
}

func TestSubmitBatchPartialSuccess(t *testing.T) {
	f := newImportFixture()
	meds, stock, audits, svc, doctorID := f.meds, f.stock, f.audits, f.svc, f.doctorID
	ctx := context.Background()

	// Pre-existing catalog entry; the sheet repeats it with different casing.
	existing := &model.Medicine{
		DoctorID:  doctorID,
		Name:      "Dolo 650",
		UnitPrice: dec("2"),
		Status:    model.MedicineStatusActive,
	}
	if err := meds.Create(ctx, existing); err != nil {
		t.Fatalf("seed medicine: %v", err)
	}

	rows := []BulkRow{
		{Name: "Paracetamol", Quantity: "10", Price: "2.50"},
		{Name: "Azithromycin", Quantity: "0", Price: "12"},
		{Name: "dolo 650", Quantity: "5", Price: "2"},
		{Name: "Cetirizine", Quantity: "20", Price: "1.10"},
	}

	result, err := svc.SubmitBatch(ctx, doctorID, rows)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}

	if result.InsertedCount != 3 {
		t.Errorf("inserted = %d, want 3", result.InsertedCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %+v, want one duplicate rejection", result.Errors)
	}
	if result.Errors[0].Row != 3 || result.Errors[0].Message != "already exists" {
		t.Errorf("error = %+v, want row 3 already exists", result.Errors[0])
	}

	if _, err := meds.FindByName(ctx, doctorID, "Cetirizine"); err != nil {
		t.Errorf("Cetirizine not inserted: %v", err)
	}

	// IN entries only for rows with positive quantity: Azithromycin has none.
	stock.mu.Lock()
	inEntries := len(stock.entries)
	stock.mu.Unlock()
	if inEntries != 2 {
		t.Errorf("stock IN entries = %d, want 2", inEntries)
	}

	if n := audits.countByAction(model.ActionBulkImport); n != 1 {
		t.Errorf("bulk import audit entries = %d, want 1", n)
	}

	if len(f.notifier.events) != 1 || f.notifier.events[0] != "import.completed" {
		t.Errorf("notifier events = %v, want [import.completed]", f.notifier.events)
	}
}

func TestSubmitBatchSameNameTwiceInOneSheet(t *testing.T) {
	f := newImportFixture()
	svc, doctorID := f.svc, f.doctorID
	ctx := context.Background()

	rows := []BulkRow{
		{Name: "Metformin", Quantity: "10", Price: "4"},
		{Name: "metformin", Quantity: "6", Price: "4"},
	}

	result, err := svc.SubmitBatch(ctx, doctorID, rows)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.InsertedCount != 1 {
		t.Errorf("inserted = %d, want 1", result.InsertedCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 2 {
		t.Errorf("errors = %+v, want row 2 rejected", result.Errors)
	}
}

func TestSubmitBatchKeepsOtherDoctorsApart(t *testing.T) {
	f := newImportFixture()
	meds, svc, doctorID := f.meds, f.svc, f.doctorID
	ctx := context.Background()
	otherDoctor := uuid.New()

	other := &model.Medicine{
		DoctorID:  otherDoctor,
		Name:      "Paracetamol",
		UnitPrice: dec("2"),
		Status:    model.MedicineStatusActive,
	}
	if err := meds.Create(ctx, other); err != nil {
		t.Fatalf("seed medicine: %v", err)
	}

	result, err := svc.SubmitBatch(ctx, doctorID, []BulkRow{
		{Name: "Paracetamol", Quantity: "10", Price: "2.50"},
	})
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.InsertedCount != 1 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want the row inserted; catalogs are per doctor", result)
	}
}
