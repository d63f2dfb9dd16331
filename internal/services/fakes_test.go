package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the relational store. Transactions are
// serialised and roll back by restoring a snapshot, which is enough to observe
// the all-or-nothing behaviour of the services.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID   int64
	orderSeq int64

	orders      map[int64]models.Order
	items       map[int64]models.OrderItem
	payments    map[int64]models.Payment
	movements   map[int64]models.StockMovement
	products    map[int64]models.Product
	units       map[int64]models.UnitOfMeasure
	restaurants map[int64]models.Restaurant
	staff       map[int64]models.StaffMember
	shifts      map[int64]models.Shift

	// beforeOrderUpdate runs inside orders.Update before the version check.
	beforeOrderUpdate func(orderID int64)
	orderUpdates      int
}

func newMemStore() *memStore {
	return &memStore{
		orders:      map[int64]models.Order{},
		items:       map[int64]models.OrderItem{},
		payments:    map[int64]models.Payment{},
		movements:   map[int64]models.StockMovement{},
		products:    map[int64]models.Product{},
		units:       map[int64]models.UnitOfMeasure{},
		restaurants: map[int64]models.Restaurant{},
		staff:       map[int64]models.StaffMember{},
		shifts:      map[int64]models.Shift{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	nextID, orderSeq int64
	orders           map[int64]models.Order
	items            map[int64]models.OrderItem
	payments         map[int64]models.Payment
	movements        map[int64]models.StockMovement
	products         map[int64]models.Product
	units            map[int64]models.UnitOfMeasure
	restaurants      map[int64]models.Restaurant
	staff            map[int64]models.StaffMember
	shifts           map[int64]models.Shift
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		nextID: s.nextID, orderSeq: s.orderSeq,
		orders: cloneMap(s.orders), items: cloneMap(s.items), payments: cloneMap(s.payments),
		movements: cloneMap(s.movements), products: cloneMap(s.products), units: cloneMap(s.units),
		restaurants: cloneMap(s.restaurants), staff: cloneMap(s.staff), shifts: cloneMap(s.shifts),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID, s.orderSeq = snap.nextID, snap.orderSeq
	s.orders, s.items, s.payments = snap.orders, snap.items, snap.payments
	s.movements, s.products, s.units = snap.movements, snap.products, snap.units
	s.restaurants, s.staff, s.shifts = snap.restaurants, snap.staff, snap.shifts
}

// --- TxManager ---

type memTx struct{ store *memStore }

func (t memTx) WithinTx(ctx context.Context, fn func(executor repositories.SQLExecutor) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	snap := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// --- Orders ---

type memOrders struct{ store *memStore }

func (r memOrders) NextOrderNumber(ctx context.Context, _ repositories.SQLExecutor, at time.Time) (string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orderSeq++
	return fmt.Sprintf("ORD-%s-%06d", at.Format("20060102"), r.store.orderSeq), nil
}

func (r memOrders) Create(ctx context.Context, _ repositories.SQLExecutor, order *models.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.restaurants[order.RestaurantID]; !ok {
		return repositories.ErrNotFound
	}
	order.ID = r.store.id()
	order.Version = 1
	stored := *order
	stored.Items, stored.Payments = nil, nil
	r.store.orders[order.ID] = stored
	return nil
}

func (r memOrders) GetByID(ctx context.Context, _ repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &o, nil
}

func (r memOrders) List(ctx context.Context, _ repositories.SQLExecutor, filters models.OrderFilters) ([]models.Order, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.store.orders {
		if filters.Status != nil && string(o.Status) != *filters.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r memOrders) ListPaidFinalizedBetween(ctx context.Context, _ repositories.SQLExecutor, from, to time.Time) ([]models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.store.orders {
		if o.Status != models.OrderStatusPaid || o.FinalizedAt == nil {
			continue
		}
		if o.FinalizedAt.Before(from) || o.FinalizedAt.After(to) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memOrders) Update(ctx context.Context, _ repositories.SQLExecutor, order *models.Order, expectedVersion int64) error {
	if hook := r.store.beforeOrderUpdate; hook != nil {
		hook(order.ID)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.orders[order.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if current.Version != expectedVersion {
		return repositories.ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	stored := *order
	stored.Items, stored.Payments = nil, nil
	r.store.orders[order.ID] = stored
	r.store.orderUpdates++
	return nil
}

func (r memOrders) Delete(ctx context.Context, _ repositories.SQLExecutor, orderID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.orders[orderID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.store.orders, orderID)
	for id, it := range r.store.items {
		if it.OrderID == orderID {
			delete(r.store.items, id)
			for mid, m := range r.store.movements {
				if m.OrderItemID != nil && *m.OrderItemID == id {
					m.OrderItemID = nil
					r.store.movements[mid] = m
				}
			}
		}
	}
	for id, p := range r.store.payments {
		if p.OrderID == orderID {
			delete(r.store.payments, id)
		}
	}
	return nil
}

// --- Order items ---

type memItems struct{ store *memStore }

func (r memItems) Create(ctx context.Context, _ repositories.SQLExecutor, item *models.OrderItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item.ID = r.store.id()
	for i := range item.Variations {
		item.Variations[i].ID = r.store.id()
		item.Variations[i].OrderItemID = item.ID
	}
	stored := *item
	stored.Variations = append([]models.Variation(nil), item.Variations...)
	r.store.items[item.ID] = stored
	return nil
}

func (r memItems) GetByID(ctx context.Context, _ repositories.SQLExecutor, itemID int64) (*models.OrderItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	it, ok := r.store.items[itemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &it, nil
}

func (r memItems) ListByOrder(ctx context.Context, _ repositories.SQLExecutor, orderID int64) ([]models.OrderItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.OrderItem{}
	for _, it := range r.store.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memItems) Update(ctx context.Context, _ repositories.SQLExecutor, item *models.OrderItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.items[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.store.items[item.ID] = *item
	return nil
}

func (r memItems) Delete(ctx context.Context, _ repositories.SQLExecutor, itemID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.items[itemID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.store.items, itemID)
	return nil
}

// --- Payments ---

type memPayments struct{ store *memStore }

func (r memPayments) Create(ctx context.Context, _ repositories.SQLExecutor, p *models.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p.ID = r.store.id()
	r.store.payments[p.ID] = *p
	return nil
}

func (r memPayments) GetByID(ctx context.Context, _ repositories.SQLExecutor, paymentID int64) (*models.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payments[paymentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (r memPayments) ListByOrder(ctx context.Context, ex repositories.SQLExecutor, orderID int64) ([]models.Payment, error) {
	return r.ListByOrders(ctx, ex, []int64{orderID})
}

func (r memPayments) ListByOrders(ctx context.Context, _ repositories.SQLExecutor, orderIDs []int64) ([]models.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	wanted := map[int64]bool{}
	for _, id := range orderIDs {
		wanted[id] = true
	}
	out := []models.Payment{}
	for _, p := range r.store.payments {
		if wanted[p.OrderID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memPayments) UpdateStatus(ctx context.Context, _ repositories.SQLExecutor, p *models.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.payments[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	current.Status, current.ProcessedAt = p.Status, p.ProcessedAt
	r.store.payments[p.ID] = current
	return nil
}

func (r memPayments) Delete(ctx context.Context, _ repositories.SQLExecutor, paymentID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.payments[paymentID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.store.payments, paymentID)
	return nil
}

// --- Stock movements ---

type memMovements struct{ store *memStore }

func (r memMovements) Create(ctx context.Context, _ repositories.SQLExecutor, m *models.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.units[m.UnitID]; !ok {
		return repositories.ErrNotFound
	}
	m.ID = r.store.id()
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.ID) * time.Second)
	}
	stored := *m
	stored.Unit = nil
	r.store.movements[m.ID] = stored
	return nil
}

func (r memMovements) withUnit(m models.StockMovement) models.StockMovement {
	u := r.store.units[m.UnitID]
	m.Unit = &u
	return m
}

func (r memMovements) GetByID(ctx context.Context, _ repositories.SQLExecutor, movementID int64) (*models.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.movements[movementID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	m = r.withUnit(m)
	return &m, nil
}

func (r memMovements) ListByProduct(ctx context.Context, _ repositories.SQLExecutor, productID int64, filters models.MovementFilters) ([]models.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.StockMovement{}
	for _, m := range r.store.movements {
		if m.ProductID != productID {
			continue
		}
		if filters.From != nil && m.RecordedAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && m.RecordedAt.After(*filters.To) {
			continue
		}
		out = append(out, r.withUnit(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memMovements) Update(ctx context.Context, _ repositories.SQLExecutor, m *models.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.movements[m.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	current.Quantity, current.UnitValue, current.TotalValue, current.Reason = m.Quantity, m.UnitValue, m.TotalValue, m.Reason
	r.store.movements[m.ID] = current
	return nil
}

func (r memMovements) Delete(ctx context.Context, _ repositories.SQLExecutor, movementID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.movements[movementID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.store.movements, movementID)
	return nil
}

// --- Catalog ---

type memProducts struct{ store *memStore }

func (r memProducts) Create(ctx context.Context, _ repositories.SQLExecutor, p *models.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p.ID = r.store.id()
	p.CurrentStock, p.InventoryValue = decimal.Zero, decimal.Zero
	r.store.products[p.ID] = *p
	return nil
}

func (r memProducts) GetByID(ctx context.Context, _ repositories.SQLExecutor, productID int64) (*models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (r memProducts) GetByIDForUpdate(ctx context.Context, ex repositories.SQLExecutor, productID int64) (*models.Product, error) {
	return r.GetByID(ctx, ex, productID)
}

func (r memProducts) List(ctx context.Context, _ repositories.SQLExecutor, availableOnly bool) ([]models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Product{}
	for _, p := range r.store.products {
		if availableOnly && !p.Available {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memProducts) UpdateStockSnapshot(ctx context.Context, _ repositories.SQLExecutor, b models.StockBalance) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[b.ProductID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.CurrentStock, p.InventoryValue, p.LastMovementAt = b.CurrentBalance, b.InventoryValue, b.LastMovementAt
	r.store.products[b.ProductID] = p
	return nil
}

type memUnits struct{ store *memStore }

func (r memUnits) Create(ctx context.Context, _ repositories.SQLExecutor, u *models.UnitOfMeasure) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.units {
		if existing.Symbol == u.Symbol {
			return repositories.ErrDuplicateKey
		}
	}
	u.ID = r.store.id()
	r.store.units[u.ID] = *u
	return nil
}

func (r memUnits) GetByID(ctx context.Context, _ repositories.SQLExecutor, unitID int64) (*models.UnitOfMeasure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.units[unitID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r memUnits) List(ctx context.Context, _ repositories.SQLExecutor) ([]models.UnitOfMeasure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.UnitOfMeasure{}
	for _, u := range r.store.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

type memSettings struct{ store *memStore }

func (r memSettings) GetRestaurant(ctx context.Context, _ repositories.SQLExecutor, restaurantID int64) (*models.Restaurant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rest, ok := r.store.restaurants[restaurantID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rest, nil
}

func (r memSettings) UpdateServiceChargeRate(ctx context.Context, _ repositories.SQLExecutor, restaurantID int64, rate decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rest, ok := r.store.restaurants[restaurantID]
	if !ok {
		return repositories.ErrNotFound
	}
	rest.ServiceChargeRate = rate
	r.store.restaurants[restaurantID] = rest
	return nil
}

// --- Staff and shifts ---

type memStaff struct{ store *memStore }

func (r memStaff) GetStaffMemberByID(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.StaffMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.staff[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (r memStaff) GetStaffMembers(ctx context.Context, _ repositories.SQLExecutor, activeOnly bool) ([]models.StaffMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.StaffMember{}
	for _, m := range r.store.staff {
		if activeOnly && !m.Active {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memStaff) CreateShift(ctx context.Context, _ repositories.SQLExecutor, shift *models.Shift) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.shifts {
		if s.StaffID == shift.StaffID && s.Status == models.ShiftStatusOpen {
			return repositories.ErrDuplicateKey
		}
	}
	shift.ID = r.store.id()
	stored := *shift
	stored.StaffMember = nil
	r.store.shifts[shift.ID] = stored
	return nil
}

func (r memStaff) GetShiftByID(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.shifts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r memStaff) FindOpenShiftByStaff(ctx context.Context, _ repositories.SQLExecutor, staffID int64) (*models.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.shifts {
		if s.StaffID == staffID && s.Status == models.ShiftStatusOpen {
			return &s, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memStaff) GetShifts(ctx context.Context, _ repositories.SQLExecutor, filters models.ShiftFilters) ([]models.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Shift{}
	for _, s := range r.store.shifts {
		if filters.StaffID != nil && s.StaffID != *filters.StaffID {
			continue
		}
		if filters.Status != nil && string(s.Status) != *filters.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memStaff) CloseShift(ctx context.Context, _ repositories.SQLExecutor, shift *models.Shift) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.shifts[shift.ID]
	if !ok || current.Status != models.ShiftStatusOpen {
		return repositories.ErrVersionConflict
	}
	stored := *shift
	stored.Status = models.ShiftStatusClosed
	stored.StaffMember = nil
	r.store.shifts[shift.ID] = stored
	shift.Status = models.ShiftStatusClosed
	return nil
}

func (r memStaff) DeleteShift(ctx context.Context, _ repositories.SQLExecutor, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.shifts[id]
	if !ok || s.Status != models.ShiftStatusOpen {
		return repositories.ErrNotFound
	}
	delete(r.store.shifts, id)
	return nil
}

// --- Test environment ---

// testClock is a manually advanced clock shared by every service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store      *memStore
	clock      *testClock
	aggregator *OrderAggregator
	ledger     *StockLedger
	orders     *orderService
	items      *orderItemService
	payments   *paymentService
	shifts     *shiftService
	catalog    CatalogService

	restaurantID   int64 // service charge 0
	restaurant10ID int64 // service charge 10%
	unitID         int64 // base unit, factor 1
	cashierID      int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	clock := &testClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}

	tx := memTx{store}
	ordersRepo, itemsRepo, paymentsRepo := memOrders{store}, memItems{store}, memPayments{store}
	productsRepo, unitsRepo, settingsRepo := memProducts{store}, memUnits{store}, memSettings{store}
	staffRepo, movementsRepo := memStaff{store}, memMovements{store}

	aggregator := NewOrderAggregator(tx, ordersRepo, itemsRepo, paymentsRepo, settingsRepo, 3)
	ledger := NewStockLedger(tx, movementsRepo, productsRepo, unitsRepo)

	items := newOrderItemService(aggregator, itemsRepo, productsRepo, ledger)
	items.now = clock.Now
	orders := NewOrderService(tx, aggregator, ordersRepo, itemsRepo, paymentsRepo, productsRepo, staffRepo, ledger).(*orderService)
	orders.now = clock.Now
	orders.itemOps.now = clock.Now
	payments := NewPaymentService(aggregator, ordersRepo, paymentsRepo).(*paymentService)
	payments.now = clock.Now
	shifts := NewShiftService(tx, staffRepo, ordersRepo, paymentsRepo).(*shiftService)
	shifts.now = clock.Now

	env := &testEnv{
		store: store, clock: clock, aggregator: aggregator, ledger: ledger,
		orders: orders, items: items, payments: payments, shifts: shifts,
		catalog: NewCatalogService(productsRepo, unitsRepo, settingsRepo),
	}

	store.mu.Lock()
	env.restaurantID = store.id()
	store.restaurants[env.restaurantID] = models.Restaurant{ID: env.restaurantID, Name: "Main", ServiceChargeRate: decimal.Zero}
	env.restaurant10ID = store.id()
	store.restaurants[env.restaurant10ID] = models.Restaurant{ID: env.restaurant10ID, Name: "Terrace", ServiceChargeRate: dec("0.10")}
	env.unitID = store.id()
	store.units[env.unitID] = models.UnitOfMeasure{ID: env.unitID, Name: "Unit", Symbol: "un", ConversionFactor: decimal.NewFromInt(1)}
	env.cashierID = store.id()
	store.staff[env.cashierID] = models.StaffMember{ID: env.cashierID, FullName: "Ana Cashier", Role: "Staff", Active: true}
	store.mu.Unlock()

	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *testEnv) addProduct(t *testing.T, name, price string, controlsStock bool) int64 {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), CreateProductRequest{
		Name: name, Price: dec(price), ControlsStock: controlsStock, BaseUnitID: e.unitID,
	})
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) addUnit(t *testing.T, symbol, factor string) int64 {
	t.Helper()
	u, err := e.catalog.CreateUnit(context.Background(), CreateUnitRequest{Name: symbol, Symbol: symbol, ConversionFactor: dec(factor)})
	require.NoError(t, err)
	return u.ID
}

func (e *testEnv) createOrder(t *testing.T, restaurantID int64, items ...AddItemRequest) *models.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(context.Background(), CreateOrderRequest{RestaurantID: restaurantID, Items: items})
	require.NoError(t, err)
	return order
}

func (e *testEnv) storedOrder(t *testing.T, orderID int64) models.Order {
	t.Helper()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	o, ok := e.store.orders[orderID]
	require.True(t, ok, "order %d not stored", orderID)
	return o
}

func (e *testEnv) storedProduct(t *testing.T, productID int64) models.Product {
	t.Helper()
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	p, ok := e.store.products[productID]
	require.True(t, ok, "product %d not stored", productID)
	return p
}

func item(productID int64, qty string, variations ...VariationRequest) AddItemRequest {
	return AddItemRequest{ProductID: productID, Quantity: dec(qty), Variations: variations}
}
