package fulfillment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pharmanet/pharmanet/internal/domain/appointment"
	"github.com/pharmanet/pharmanet/internal/domain/inventory"
	"github.com/pharmanet/pharmanet/internal/domain/order"
	"github.com/pharmanet/pharmanet/internal/domain/tracking"
	"github.com/pharmanet/pharmanet/internal/platform/notification"
)

type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: map[uuid.UUID]*order.Order{}}
}

func copyOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = make([]*order.OrderItem, len(o.Items))
	for i, item := range o.Items {
		ic := *item
		cp.Items[i] = &ic
	}
	return &cp
}

func (m *mockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.New()
	if o.OrderNumber == "" {
		o.OrderNumber = order.NewOrderNumber()
	}
	for _, item := range o.Items {
		item.ID = uuid.New()
		item.OrderID = o.ID
	}
	m.orders[o.ID] = copyOrder(o)
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *mockOrderRepo) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return copyOrder(o), nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status, stockCommitted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	o.StockCommitted = stockCommitted
	return nil
}

func (m *mockOrderRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*order.Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*order.Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) snapshot() map[uuid.UUID]*order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[uuid.UUID]*order.Order, len(m.orders))
	for id, o := range m.orders {
		snap[id] = copyOrder(o)
	}
	return snap
}

func (m *mockOrderRepo) restore(snap map[uuid.UUID]*order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = snap
}

type entryKey struct {
	facility uuid.UUID
	medicine uuid.UUID
}

type mockStockRepo struct {
	mu        sync.Mutex
	entries   map[entryKey]*inventory.StockEntry
	movements []*inventory.StockMovement
}

func newMockStockRepo() *mockStockRepo {
	return &mockStockRepo{entries: map[entryKey]*inventory.StockEntry{}}
}

func (m *mockStockRepo) Create(ctx context.Context, e *inventory.StockEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	m.entries[entryKey{e.FacilityID, e.MedicineID}] = &cp
	return nil
}

func (m *mockStockRepo) GetByID(ctx context.Context, id uuid.UUID) (*inventory.StockEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, inventory.ErrNotFound
}

func (m *mockStockRepo) GetEntry(ctx context.Context, facilityID, medicineID uuid.UUID) (*inventory.StockEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryKey{facilityID, medicineID}]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockStockRepo) Update(ctx context.Context, e *inventory.StockEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries[entryKey{e.FacilityID, e.MedicineID}] = &cp
	return nil
}

func (m *mockStockRepo) ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*inventory.StockEntry, int, error) {
	return nil, 0, nil
}

func (m *mockStockRepo) Adjust(ctx context.Context, facilityID, medicineID uuid.UUID, delta int) (*inventory.StockEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryKey{facilityID, medicineID}]
	if !ok {
		return nil, false, inventory.ErrNotFound
	}
	if e.Quantity+delta < 0 {
		cp := *e
		return &cp, false, nil
	}
	e.Quantity += delta
	cp := *e
	return &cp, true, nil
}

func (m *mockStockRepo) RecordMovement(ctx context.Context, mv *inventory.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv.ID = uuid.New()
	m.movements = append(m.movements, mv)
	return nil
}

func (m *mockStockRepo) ListMovements(ctx context.Context, facilityID, medicineID uuid.UUID, limit, offset int) ([]*inventory.StockMovement, int, error) {
	return nil, 0, nil
}

func (m *mockStockRepo) quantity(t *testing.T, facilityID, medicineID uuid.UUID) int {
	t.Helper()
	e, err := m.GetEntry(context.Background(), facilityID, medicineID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e.Quantity
}

func (m *mockStockRepo) snapshot() map[entryKey]*inventory.StockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[entryKey]*inventory.StockEntry, len(m.entries))
	for k, e := range m.entries {
		cp := *e
		snap[k] = &cp
	}
	return snap
}

func (m *mockStockRepo) restore(snap map[entryKey]*inventory.StockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = snap
}

type mockTrackingRepo struct {
	mu      sync.Mutex
	entries []*tracking.Entry
}

func (m *mockTrackingRepo) Append(ctx context.Context, e *tracking.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockTrackingRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*tracking.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tracking.Entry
	for _, e := range m.entries {
		if e.OrderID == orderID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockTrackingRepo) Latest(ctx context.Context, orderID uuid.UUID) (*tracking.Entry, error) {
	entries, _ := m.ListByOrder(ctx, orderID)
	if len(entries) == 0 {
		return nil, tracking.ErrNotFound
	}
	return entries[len(entries)-1], nil
}

func (m *mockTrackingRepo) snapshot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *mockTrackingRepo) restore(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = m.entries[:n]
}

type mockApptRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*appointment.Appointment
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{appts: map[uuid.UUID]*appointment.Appointment{}}
}

func (m *mockApptRepo) Create(ctx context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockApptRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockApptRepo) Update(ctx context.Context, a *appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[a.ID]; !ok {
		return appointment.ErrNotFound
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockApptRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*appointment.Appointment, int, error) {
	return nil, 0, nil
}

type sent struct {
	template  string
	data      map[string]string
	recipient string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (m *mockNotifier) Dispatch(templateID string, data map[string]string, recipient string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{template: templateID, data: data, recipient: recipient})
}

func (m *mockNotifier) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.template
	}
	return out
}

// fixture wires the orchestrator over map-backed mocks. Its tx runner
// serializes transactions (standing in for the row lock) and restores repo
// state on error (standing in for rollback).
type fixture struct {
	txMu     sync.Mutex
	orders   *mockOrderRepo
	stock    *mockStockRepo
	timeline *mockTrackingRepo
	appts    *mockApptRepo
	notes    *mockNotifier
	apptSvc  *appointment.Service
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		orders:   newMockOrderRepo(),
		stock:    newMockStockRepo(),
		timeline: &mockTrackingRepo{},
		appts:    newMockApptRepo(),
		notes:    &mockNotifier{},
	}
	f.apptSvc = appointment.NewService(f.appts, 24*time.Hour)
	f.svc = NewService(
		f.runTx,
		f.orders,
		order.NewService(f.orders),
		inventory.NewService(f.stock, 10),
		tracking.NewService(f.timeline),
		f.apptSvc,
		f.notes,
		Pricing{TaxRate: 0.10, DeliveryFee: 5.00},
		zerolog.Nop(),
	)
	return f
}

func (f *fixture) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	ordersSnap := f.orders.snapshot()
	stockSnap := f.stock.snapshot()
	timelineSnap := f.timeline.snapshot()
	if err := fn(ctx); err != nil {
		f.orders.restore(ordersSnap)
		f.stock.restore(stockSnap)
		f.timeline.restore(timelineSnap)
		return err
	}
	return nil
}

func (f *fixture) seedStock(t *testing.T, facilityID, medicineID uuid.UUID, qty int, unitPrice float64, discountPrice *float64) {
	t.Helper()
	err := f.stock.Create(context.Background(), &inventory.StockEntry{
		FacilityID:    facilityID,
		MedicineID:    medicineID,
		Quantity:      qty,
		UnitPrice:     unitPrice,
		DiscountPrice: discountPrice,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func (f *fixture) placeOrder(t *testing.T, o *order.Order) *order.Order {
	t.Helper()
	if err := f.svc.PlaceOrder(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return o
}

func ptrFloat(v float64) *float64 { return &v }

func TestPlaceOrder_PricesFromStockWithoutTouchingQuantities(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	medA := uuid.New()
	medB := uuid.New()
	f.seedStock(t, facilityID, medA, 50, 10.00, nil)
	f.seedStock(t, facilityID, medB, 50, 8.00, ptrFloat(6.00))

	o := &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items: []*order.OrderItem{
			{MedicineID: medA, Quantity: 2},
			{MedicineID: medB, Quantity: 3},
		},
	}
	f.placeOrder(t, o)

	if o.Status != order.StatusPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
	if o.StockCommitted {
		t.Error("stock must not be committed at placement")
	}
	// subtotal 2*10 + 3*8 = 44, discount 3*(8-6) = 6, tax 4.40, fee 5
	if o.Subtotal != 44.00 {
		t.Errorf("subtotal = %.2f, want 44.00", o.Subtotal)
	}
	if o.Discount != 6.00 {
		t.Errorf("discount = %.2f, want 6.00", o.Discount)
	}
	if o.Tax != 4.40 {
		t.Errorf("tax = %.2f, want 4.40", o.Tax)
	}
	if o.Total != 47.40 {
		t.Errorf("total = %.2f, want 47.40", o.Total)
	}

	if got := f.stock.quantity(t, facilityID, medA); got != 50 {
		t.Errorf("medicine A quantity = %d, want 50 (placement must not touch stock)", got)
	}
	if got := f.stock.quantity(t, facilityID, medB); got != 50 {
		t.Errorf("medicine B quantity = %d, want 50", got)
	}

	timeline, err := f.timeline.ListByOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(timeline) != 1 || timeline[0].Status != string(order.StatusPending) {
		t.Fatalf("timeline = %v, want single pending entry", timeline)
	}

	if got := f.notes.templates(); len(got) != 1 || got[0] != notification.TemplateOrderPlaced {
		t.Errorf("notifications = %v, want [order-placed]", got)
	}
}

func TestPlaceOrder_DiscountRoundedToCents(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	// 8.10 - 6.03 is not exactly representable; 3 lines of savings
	// accumulate binary dust without a final rounding step.
	f.seedStock(t, facilityID, med, 50, 8.10, ptrFloat(6.03))

	o := &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: med, Quantity: 3}},
	}
	f.placeOrder(t, o)

	if o.Discount != 6.21 {
		t.Errorf("discount = %v, want exactly 6.21", o.Discount)
	}
	// subtotal 24.30, tax 2.43, fee 5.00
	if o.Total != 25.52 {
		t.Errorf("total = %v, want 25.52", o.Total)
	}
}

func TestPlaceOrder_UnstockedMedicineRejected(t *testing.T) {
	f := newFixture()
	o := &order.Order{
		FacilityID: uuid.New(),
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: uuid.New(), Quantity: 1}},
	}
	err := f.svc.PlaceOrder(context.Background(), o)
	if !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.orders.snapshot()) != 0 {
		t.Error("failed placement must not persist an order")
	}
	if got := f.notes.templates(); len(got) != 0 {
		t.Errorf("notifications = %v, want none", got)
	}
}

func TestAdvanceOrder_ConfirmCommitsStockOnce(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	f.seedStock(t, facilityID, med, 50, 10.00, nil)

	o := f.placeOrder(t, &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: med, Quantity: 5}},
	})

	got, err := f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusConfirmed, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != order.StatusConfirmed || !got.StockCommitted {
		t.Fatalf("status = %s committed = %v, want confirmed/true", got.Status, got.StockCommitted)
	}
	if q := f.stock.quantity(t, facilityID, med); q != 45 {
		t.Errorf("quantity = %d, want 45", q)
	}

	// further transitions must not touch stock again
	for _, next := range []order.Status{order.StatusPreparing, order.StatusOutForDelivery, order.StatusDelivered} {
		if _, err := f.svc.AdvanceOrder(context.Background(), o.ID, next, nil, nil); err != nil {
			t.Fatalf("unexpected error advancing to %s: %v", next, err)
		}
	}
	if q := f.stock.quantity(t, facilityID, med); q != 45 {
		t.Errorf("quantity after delivery = %d, want 45", q)
	}

	timeline, err := f.timeline.ListByOrder(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(timeline) != 5 {
		t.Errorf("timeline length = %d, want 5", len(timeline))
	}
}

func TestAdvanceOrder_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	medA := uuid.New()
	medB := uuid.New()
	f.seedStock(t, facilityID, medA, 50, 10.00, nil)
	f.seedStock(t, facilityID, medB, 2, 8.00, nil)

	o := f.placeOrder(t, &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items: []*order.OrderItem{
			{MedicineID: medA, Quantity: 5},
			{MedicineID: medB, Quantity: 10},
		},
	})

	_, err := f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusConfirmed, nil, nil)
	var short *inventory.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if len(short.Shortfalls) != 1 {
		t.Fatalf("shortfalls = %v, want one for medicine B", short.Shortfalls)
	}
	if short.Shortfalls[0].MedicineID != medB || short.Shortfalls[0].Available != 2 {
		t.Errorf("shortfall = %+v, want medicine B with available 2", short.Shortfalls[0])
	}

	// rollback: the partial decrement of medicine A is undone
	if q := f.stock.quantity(t, facilityID, medA); q != 50 {
		t.Errorf("medicine A quantity = %d, want 50", q)
	}
	stored, err := f.orders.GetByID(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != order.StatusPending || stored.StockCommitted {
		t.Errorf("order = %s committed=%v, want pending/false", stored.Status, stored.StockCommitted)
	}
}

func TestAdvanceOrder_InvalidTransition(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	f.seedStock(t, facilityID, med, 50, 10.00, nil)

	o := f.placeOrder(t, &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: med, Quantity: 1}},
	})

	_, err := f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusDelivered, nil, nil)
	var invalid *order.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if invalid.From != order.StatusPending || invalid.To != order.StatusDelivered {
		t.Errorf("transition = %s -> %s, want pending -> delivered", invalid.From, invalid.To)
	}
}

func TestAdvanceOrder_ConcurrentConfirmOneWins(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	f.seedStock(t, facilityID, med, 10, 10.00, nil)

	o := f.placeOrder(t, &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: med, Quantity: 4}},
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusConfirmed, nil, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var invalid *order.InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidTransitionError for the loser, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
	if q := f.stock.quantity(t, facilityID, med); q != 6 {
		t.Errorf("quantity = %d, want 6 (stock committed once)", q)
	}
}

func TestAdvanceOrder_CancelReleasesCommittedStock(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	f.seedStock(t, facilityID, med, 20, 10.00, nil)

	o := f.placeOrder(t, &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: med, Quantity: 5}},
	})
	if _, err := f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusConfirmed, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q := f.stock.quantity(t, facilityID, med); q != 15 {
		t.Fatalf("quantity = %d, want 15", q)
	}

	got, err := f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusCancelled, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != order.StatusCancelled || got.StockCommitted {
		t.Fatalf("status = %s committed = %v, want cancelled/false", got.Status, got.StockCommitted)
	}
	if q := f.stock.quantity(t, facilityID, med); q != 20 {
		t.Errorf("quantity = %d, want 20 after release", q)
	}

	templates := f.notes.templates()
	if len(templates) == 0 || templates[len(templates)-1] != notification.TemplateOrderCancelled {
		t.Errorf("notifications = %v, want order-cancelled last", templates)
	}
}

func TestAdvanceOrder_CancelPendingSkipsRelease(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	f.seedStock(t, facilityID, med, 20, 10.00, nil)

	o := f.placeOrder(t, &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: med, Quantity: 5}},
	})
	if _, err := f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusCancelled, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q := f.stock.quantity(t, facilityID, med); q != 20 {
		t.Errorf("quantity = %d, want 20 (nothing was committed)", q)
	}
}

func TestAdvanceOrder_LowStockAlertOnCrossing(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	f.seedStock(t, facilityID, med, 12, 10.00, nil)

	o := f.placeOrder(t, &order.Order{
		FacilityID: facilityID,
		PatientID:  uuid.New(),
		Items:      []*order.OrderItem{{MedicineID: med, Quantity: 4}},
	})
	if _, err := f.svc.AdvanceOrder(context.Background(), o.ID, order.StatusConfirmed, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, template := range f.notes.templates() {
		if template == notification.TemplateLowStockAlert {
			found = true
		}
	}
	if !found {
		t.Errorf("notifications = %v, want a low-stock-alert", f.notes.templates())
	}
}

func TestAdjustStock_AlertAndNotFound(t *testing.T) {
	f := newFixture()
	facilityID := uuid.New()
	med := uuid.New()
	f.seedStock(t, facilityID, med, 15, 10.00, nil)

	level, err := f.svc.AdjustStock(context.Background(), facilityID, med, -7, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level.Quantity != 8 || level.Status != inventory.StatusLowStock {
		t.Errorf("level = %d/%s, want 8/low_stock", level.Quantity, level.Status)
	}
	if got := f.notes.templates(); len(got) != 1 || got[0] != notification.TemplateLowStockAlert {
		t.Errorf("notifications = %v, want [low-stock-alert]", got)
	}

	_, err = f.svc.AdjustStock(context.Background(), facilityID, uuid.New(), -1, "", nil)
	if !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func seedAppointment(t *testing.T, f *fixture, scheduledAt time.Time, status appointment.Status) *appointment.Appointment {
	t.Helper()
	a := &appointment.Appointment{
		PatientID:      uuid.New(),
		ProfessionalID: uuid.New(),
		FacilityID:     uuid.New(),
		ScheduledAt:    scheduledAt,
		Status:         status,
	}
	if err := f.appts.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestCancelAppointment_NotifiesPatient(t *testing.T) {
	f := newFixture()
	a := seedAppointment(t, f, time.Now().Add(72*time.Hour), appointment.StatusConfirmed)

	got, err := f.svc.CancelAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != appointment.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if ts := f.notes.templates(); len(ts) != 1 || ts[0] != notification.TemplateAppointmentCancelled {
		t.Errorf("notifications = %v, want [appointment-cancelled]", ts)
	}
}

func TestCancelAppointment_InsideCutoffNoNotification(t *testing.T) {
	f := newFixture()
	a := seedAppointment(t, f, time.Now().Add(3*time.Hour), appointment.StatusConfirmed)

	_, err := f.svc.CancelAppointment(context.Background(), a.ID)
	var cutoff *appointment.CutoffWindowError
	if !errors.As(err, &cutoff) {
		t.Fatalf("expected CutoffWindowError, got %v", err)
	}
	if ts := f.notes.templates(); len(ts) != 0 {
		t.Errorf("notifications = %v, want none", ts)
	}
	stored, err := f.appts.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != appointment.StatusConfirmed {
		t.Errorf("status = %s, want confirmed (unchanged)", stored.Status)
	}
}

func TestRescheduleAppointment_NotifiesWithBothDates(t *testing.T) {
	f := newFixture()
	oldTime := time.Now().Add(96 * time.Hour).Truncate(time.Hour)
	newTime := oldTime.Add(48 * time.Hour)
	a := seedAppointment(t, f, oldTime, appointment.StatusConfirmed)

	got, err := f.svc.RescheduleAppointment(context.Background(), a.ID, newTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != appointment.StatusRescheduled {
		t.Errorf("status = %s, want rescheduled", got.Status)
	}
	if !got.ScheduledAt.Equal(newTime) {
		t.Errorf("scheduled_at = %v, want %v", got.ScheduledAt, newTime)
	}

	f.notes.mu.Lock()
	defer f.notes.mu.Unlock()
	if len(f.notes.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notes.sent))
	}
	msg := f.notes.sent[0]
	if msg.template != notification.TemplateAppointmentRescheduled {
		t.Errorf("template = %s, want appointment-rescheduled", msg.template)
	}
	wantOld := oldTime.Format("2006-01-02")
	wantNew := newTime.Format("2006-01-02")
	if msg.data["old_date"] != wantOld || msg.data["new_date"] != wantNew {
		t.Errorf("dates = %s -> %s, want %s -> %s",
			msg.data["old_date"], msg.data["new_date"], wantOld, wantNew)
	}
}

func TestAdvanceOrder_UnknownOrder(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AdvanceOrder(context.Background(), uuid.New(), order.StatusConfirmed, nil, nil)
	if !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDemands_MirrorsItems(t *testing.T) {
	med := uuid.New()
	o := &order.Order{Items: []*order.OrderItem{{MedicineID: med, Quantity: 3}}}
	d := demands(o)
	if len(d) != 1 || d[0].MedicineID != med || d[0].Quantity != 3 {
		t.Fatalf("demands = %+v, want one line of 3", d)
	}
}
