package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/internal/notifications"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func testCosts() DeliveryCosts {
	return DeliveryCosts{
		enums.DeliveryStandard: dec("3.000"),
		enums.DeliveryExpress:  dec("5.000"),
		enums.DeliverySameDay:  dec("7.000"),
	}
}

func fullAddress() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName:   "Layla",
		LastName:    "Haddad",
		Email:       "layla@example.com",
		Phone:       "+96550000000",
		AddressText: "Block 3, Street 12, House 7",
		City:        "Kuwait City",
	}
}

func line(price string, qty int) cart.Line {
	return cart.Line{ProductID: uuid.New(), Quantity: qty, UnitPrice: dec(price), ProductName: "Oud"}
}

// readyContext returns a session parked on the payment step with every step valid.
func readyContext(userID uuid.UUID, delivery enums.DeliveryOption) *Context {
	c := NewContext(userID, enums.LanguageEnglish, nil, fixedNow)
	c.Shipping = fullAddress()
	c.Delivery = delivery
	c.Payment = PaymentSelection{Method: enums.PaymentMethodCashOnDelivery, TermsAccepted: true}
	c.Step = enums.CheckoutStepPayment
	c.Furthest = enums.CheckoutStepPayment
	return c
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCart struct {
	mu       sync.Mutex
	lines    []cart.Line
	err      error
	clearErr error
	cleared  int
}

func (s *stubCart) WithTx(*gorm.DB) cart.Store { return s }

func (s *stubCart) GetLines(context.Context, uuid.UUID, enums.Language) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]cart.Line(nil), s.lines...), nil
}

func (s *stubCart) Clear(context.Context, uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared++
	s.lines = nil
	return nil
}

type stubOrders struct {
	mu            sync.Mutex
	nextNumber    int64
	orders        map[uuid.UUID]*models.Order
	items         map[uuid.UUID][]models.OrderItem
	usages        []models.CouponUsage
	createErr     error
	itemsErr      error
	usageErr      error
	deleteErr     error
	deleted       []uuid.UUID
	deletedUsages int
	createDelay   time.Duration
}

func newStubOrders() *stubOrders {
	return &stubOrders{
		nextNumber: 10001,
		orders:     map[uuid.UUID]*models.Order{},
		items:      map[uuid.UUID][]models.OrderItem{},
	}
}

func (s *stubOrders) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrders) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	if s.createDelay > 0 {
		time.Sleep(s.createDelay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	order.ID = uuid.New()
	order.OrderNumber = s.nextNumber
	s.nextNumber++
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrders) CreateOrderItems(_ context.Context, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.itemsErr != nil {
		return s.itemsErr
	}
	for _, item := range items {
		s.items[item.OrderID] = append(s.items[item.OrderID], item)
	}
	return nil
}

func (s *stubOrders) CreateCouponUsage(_ context.Context, usage *models.CouponUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usageErr != nil {
		return s.usageErr
	}
	s.usages = append(s.usages, *usage)
	return nil
}

func (s *stubOrders) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, orderID)
	delete(s.orders, orderID)
	delete(s.items, orderID)
	return nil
}

func (s *stubOrders) DeleteCouponUsage(_ context.Context, couponID, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.usages[:0]
	for _, usage := range s.usages {
		if usage.CouponID == couponID && usage.OrderID == orderID {
			s.deletedUsages++
			continue
		}
		kept = append(kept, usage)
	}
	s.usages = kept
	return nil
}

func (s *stubOrders) FindOrder(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID], nil
}

func (s *stubOrders) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type stubCoupons struct {
	mu        sync.Mutex
	coupons   map[string]*models.Coupon
	increment error
}

func (s *stubCoupons) WithTx(*gorm.DB) coupons.Repository { return s }

func (s *stubCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.coupons[coupons.NormalizeCode(code)]
	if !ok {
		return nil, nil
	}
	clone := *found
	return &clone, nil
}

func (s *stubCoupons) IncrementUsage(_ context.Context, couponID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.increment != nil {
		return false, s.increment
	}
	for _, c := range s.coupons {
		if c.ID != couponID {
			continue
		}
		if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
			return false, nil
		}
		c.CurrentUses++
		return true, nil
	}
	return false, nil
}

func (s *stubCoupons) DecrementUsage(_ context.Context, couponID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.coupons {
		if c.ID == couponID && c.CurrentUses > 0 {
			c.CurrentUses--
		}
	}
	return nil
}

func (s *stubCoupons) uses(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupons[code].CurrentUses
}

func couponCatalog() *stubCoupons {
	return &stubCoupons{coupons: map[string]*models.Coupon{
		"SAVE10": {ID: uuid.New(), Code: "SAVE10", DiscountType: enums.DiscountTypePercentage, DiscountValue: dec("10"), MinOrderAmount: dec("20"), IsActive: true},
		"FLAT50": {ID: uuid.New(), Code: "FLAT50", DiscountType: enums.DiscountTypeFixed, DiscountValue: dec("50"), IsActive: true},
	}}
}

type stubNotifier struct {
	mu    sync.Mutex
	err   error
	panic bool
	sent  []notifications.Confirmation
}

func (s *stubNotifier) SendOrderConfirmation(_ context.Context, msg notifications.Confirmation) error {
	if s.panic {
		panic("mail relay exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

type recordingMetrics struct {
	mu            sync.Mutex
	outcomes      []string
	compensations []bool
}

func (r *recordingMetrics) ObserveCommit(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingMetrics) IncCompensation(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensations = append(r.compensations, ok)
}

type memorySessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Context
	saveErr  error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[uuid.UUID]*Context{}}
}

func (m *memorySessions) Load(_ context.Context, userID uuid.UUID) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	clone := *c
	if c.Coupon != nil {
		applied := *c.Coupon
		clone.Coupon = &applied
	}
	return &clone, nil
}

func (m *memorySessions) Save(_ context.Context, c *Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	clone := *c
	m.sessions[c.UserID] = &clone
	return nil
}

func (m *memorySessions) Delete(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

type stubProfiles struct {
	addr *types.ShippingAddress
	err  error
}

func (s stubProfiles) GetDefaultAddress(context.Context, uuid.UUID) (*types.ShippingAddress, error) {
	return s.addr, s.err
}

func newTestEngine(t *testing.T, repo coupons.Repository) coupons.Engine {
	t.Helper()
	eng, err := coupons.NewEngine(repo, clock, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

var errStoreDown = errors.New("store unavailable")
