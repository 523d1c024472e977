package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"pharmacy-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fakeTxManager serializes all transactions with one mutex, which mirrors the
// FOR UPDATE row lock the real manager relies on: two callers touching the
// same order can never interleave.
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.PharmacyOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.PharmacyOrder)}
}

func copyOrder(o *model.PharmacyOrder) *model.PharmacyOrder {
	cp := *o
	cp.Lines = make([]model.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	return &cp
}

func (r *fakeOrderRepo) put(order *model.PharmacyOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}
	r.orders[order.ID] = copyOrder(order)
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *model.PharmacyOrder) error {
	r.put(order)
	return nil
}

func (r *fakeOrderRepo) Save(ctx context.Context, order *model.PharmacyOrder) error {
	r.put(order)
	return nil
}

func (r *fakeOrderRepo) UpdateLine(ctx context.Context, line *model.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[line.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range order.Lines {
		if order.Lines[i].ID == line.ID {
			order.Lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyOrder(order), nil
}

func (r *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PharmacyOrder, error) {
	return r.FindByIDWithLines(ctx, id)
}

func (r *fakeOrderRepo) List(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]model.PharmacyOrder, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.PharmacyOrder
	for _, o := range r.orders {
		if o.DoctorID == doctorID {
			res = append(res, *copyOrder(o))
		}
	}
	return res, int64(len(res)), nil
}

func (r *fakeOrderRepo) CountSettledForPatientOnDay(ctx context.Context, doctorID, patientID uuid.UUID, day time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, o := range r.orders {
		if o.DoctorID != doctorID || o.PatientID != patientID || o.SettledAt == nil {
			continue
		}
		y1, m1, d1 := o.SettledAt.Date()
		y2, m2, d2 := day.Date()
		if y1 == y2 && m1 == m2 && d1 == d2 {
			count++
		}
	}
	return count, nil
}

type fakeMedicineRepo struct {
	mu        sync.Mutex
	medicines map[uuid.UUID]*model.Medicine
}

func newFakeMedicineRepo() *fakeMedicineRepo {
	return &fakeMedicineRepo{medicines: make(map[uuid.UUID]*model.Medicine)}
}

func (r *fakeMedicineRepo) put(m *model.Medicine) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	r.medicines[m.ID] = &cp
}

func (r *fakeMedicineRepo) Create(ctx context.Context, medicine *model.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// The unique index is partial over live rows, so archived entries do
	// not hold their name.
	key := strings.ToLower(strings.TrimSpace(medicine.Name))
	for _, m := range r.medicines {
		if m.DoctorID == medicine.DoctorID && m.Status != model.MedicineStatusArchived &&
			strings.ToLower(strings.TrimSpace(m.Name)) == key {
			return gorm.ErrDuplicatedKey
		}
	}
	r.put(medicine)
	return nil
}

func (r *fakeMedicineRepo) Update(ctx context.Context, medicine *model.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.medicines[medicine.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.put(medicine)
	return nil
}

func (r *fakeMedicineRepo) Archive(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.medicines[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Status = model.MedicineStatusArchived
	return nil
}

func (r *fakeMedicineRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.medicines[id]
	if !ok || m.Status == model.MedicineStatusArchived {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMedicineRepo) FindByName(ctx context.Context, doctorID uuid.UUID, name string) (*model.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(strings.TrimSpace(name))
	for _, m := range r.medicines {
		if m.DoctorID == doctorID && m.Status != model.MedicineStatusArchived &&
			strings.ToLower(strings.TrimSpace(m.Name)) == key {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMedicineRepo) List(ctx context.Context, doctorID uuid.UUID, page, limit int, search string) ([]model.Medicine, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.Medicine
	for _, m := range r.medicines {
		if m.DoctorID == doctorID && m.Status != model.MedicineStatusArchived {
			res = append(res, *m)
		}
	}
	return res, int64(len(res)), nil
}

func (r *fakeMedicineRepo) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.medicines[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.QuantityOnHand = stock
	return nil
}

func (r *fakeMedicineRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	return r.FindByID(ctx, id)
}

type fakeStockRepo struct {
	mu      sync.Mutex
	entries []model.StockTransaction
}

func (r *fakeStockRepo) Log(ctx context.Context, tx *model.StockTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *tx)
	return nil
}

func (r *fakeStockRepo) ListByMedicine(ctx context.Context, medicineID uuid.UUID, page, limit int) ([]model.StockTransaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.StockTransaction
	for _, e := range r.entries {
		if e.MedicineID == medicineID {
			res = append(res, e)
		}
	}
	return res, int64(len(res)), nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices []*model.Invoice
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	for _, inv := range r.invoices {
		if inv.OrderID == invoice.OrderID {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *invoice
	r.invoices = append(r.invoices, &cp)
	return nil
}

func (r *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ID == id {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvoiceRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.OrderID == orderID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvoiceRepo) List(ctx context.Context, doctorID uuid.UUID, page, limit int) ([]model.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.Invoice
	for _, inv := range r.invoices {
		if inv.DoctorID == doctorID {
			res = append(res, *inv)
		}
	}
	return res, int64(len(res)), nil
}

func (r *fakeInvoiceRepo) CountByPrefix(ctx context.Context, doctorID uuid.UUID, prefix string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, inv := range r.invoices {
		if inv.DoctorID == doctorID && strings.HasPrefix(inv.InvoiceNo, prefix) {
			count++
		}
	}
	return count, nil
}

type revenueEntry struct {
	doctorID   uuid.UUID
	day        time.Time
	amount     decimal.Decimal
	newPatient bool
}

type fakeRevenueRepo struct {
	mu      sync.Mutex
	entries []revenueEntry
}

func (r *fakeRevenueRepo) AddSettlement(ctx context.Context, doctorID uuid.UUID, day time.Time, amount decimal.Decimal, newPatient bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, revenueEntry{doctorID: doctorID, day: day, amount: amount, newPatient: newPatient})
	return nil
}

func (r *fakeRevenueRepo) SumRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (model.RevenueTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := model.RevenueTotals{Revenue: decimal.Zero}
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	for _, e := range r.entries {
		if e.doctorID != doctorID {
			continue
		}
		day := time.Date(e.day.Year(), e.day.Month(), e.day.Day(), 0, 0, 0, 0, e.day.Location())
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		totals.Revenue = totals.Revenue.Add(e.amount)
		if e.newPatient {
			totals.PatientCount++
		}
	}
	return totals, nil
}

func (r *fakeRevenueRepo) total() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, e := range r.entries {
		sum = sum.Add(e.amount)
	}
	return sum
}

type fakeClinicRepo struct {
	mu        sync.Mutex
	addresses map[uuid.UUID]*model.ClinicAddress
}

func newFakeClinicRepo() *fakeClinicRepo {
	return &fakeClinicRepo{addresses: make(map[uuid.UUID]*model.ClinicAddress)}
}

func (r *fakeClinicRepo) Create(ctx context.Context, address *model.ClinicAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	cp := *address
	r.addresses[address.ID] = &cp
	return nil
}

func (r *fakeClinicRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ClinicAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeClinicRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]model.ClinicAddress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.ClinicAddress
	for _, a := range r.addresses {
		if a.DoctorID == doctorID {
			res = append(res, *a)
		}
	}
	return res, nil
}

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*model.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *fakeDoctorRepo) Create(ctx context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	cp := *doctor
	r.doctors[doctor.ID] = &cp
	return nil
}

func (r *fakeDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDoctorRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDoctorRepo) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.Email == email {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDoctorRepo) Update(ctx context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *doctor
	r.doctors[doctor.ID] = &cp
	return nil
}

func (r *fakeDoctorRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return nil
}

func (r *fakeDoctorRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDoctorRepo) DeleteRefreshToken(ctx context.Context, token string) error { return nil }

func (r *fakeDoctorRepo) DeleteExpiredRefreshTokens(ctx context.Context) error { return nil }

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, doctorID uuid.UUID, action string, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []model.AuditLog
	for _, e := range r.entries {
		if e.DoctorID != nil && *e.DoctorID == doctorID && (action == "" || e.Action == action) {
			res = append(res, e)
		}
	}
	return res, int64(len(res)), nil
}

func (r *fakeAuditRepo) countByAction(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if e.Action == action {
			count++
		}
	}
	return count
}

// fakeQRProvider returns a canned ref or error per call.
type fakeQRProvider struct {
	mu    sync.Mutex
	ref   string
	err   error
	calls int
}

func (p *fakeQRProvider) GetQRCode(ctx context.Context, clinicAddressID, doctorID uuid.UUID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.ref, p.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Publish(event string, data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
