package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/internal/notifications"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

var errCouponUsesExhausted = errors.New("coupon usage limit reached at commit")

// SequencerDeps wires the stores the commit writes to.
type SequencerDeps struct {
	Tx          txRunner
	Cart        cart.Store
	Orders      orders.Repository
	Coupons     coupons.Repository
	Engine      coupons.Engine
	Notifier    notifications.Dispatcher
	Costs       DeliveryCosts
	Logger      *logger.Logger
	Metrics     compensationRecorder
	StepTimeout time.Duration
	Clock       func() time.Time
}

// Sequencer turns a finalized checkout session into an order.
type Sequencer struct {
	tx          txRunner
	cart        cart.Store
	orders      orders.Repository
	coupons     coupons.Repository
	engine      coupons.Engine
	notifier    notifications.Dispatcher
	costs       DeliveryCosts
	logg        *logger.Logger
	metrics     compensationRecorder
	stepTimeout time.Duration
	now         func() time.Time
}

// NewSequencer validates deps and builds a Sequencer.
func NewSequencer(deps SequencerDeps) (*Sequencer, error) {
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Sequencer{
		tx:          deps.Tx,
		cart:        deps.Cart,
		orders:      deps.Orders,
		coupons:     deps.Coupons,
		engine:      deps.Engine,
		notifier:    deps.Notifier,
		costs:       deps.Costs,
		logg:        deps.Logger,
		metrics:     deps.Metrics,
		stepTimeout: deps.StepTimeout,
		now:         deps.Clock,
	}, nil
}

// Commit places the order for the session held by m and moves it to confirmation.
//
// Totals are recomputed from the live cart and the applied coupon is re-validated first. The
// writes then run as a saga: a failed item insert deletes the order, a failed cart clear also
// returns the coupon usage. A failed usage record only produces a warning. The confirmation
// notification never affects the outcome.
func (s *Sequencer) Commit(ctx context.Context, m *Machine) (*Placed, error) {
	if err := m.ReadyToCommit(); err != nil {
		return nil, err
	}
	c := m.Context()
	ctx = s.logg.WithSessionID(ctx, c.SessionID)

	readCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
	lines, err := s.cart.GetLines(readCtx, c.UserID, c.Language)
	cancel()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeCartEmpty, "cart is empty")
	}

	subtotal := cart.Subtotal(lines)
	var applied *coupons.Applied
	if c.Coupon != nil {
		validateCtx, cancel := withStepTimeout(ctx, s.stepTimeout)
		applied, err = s.engine.Validate(validateCtx, c.Coupon.Code, subtotal)
		cancel()
		if err != nil {
			return nil, err
		}
	}
	totals := ComputeTotals(lines, s.costs.Cost(c.Delivery), appliedDiscount(applied))

	// Once the order insert starts the commit runs to completion or compensation.
	commitCtx := context.WithoutCancel(ctx)
	order := s.buildOrder(c, totals, applied)

	sg := &saga{timeout: s.stepTimeout, logg: s.logg, metrics: s.metrics}
	usageRecorded := false
	sg.steps = []sagaStep{
		{
			name: "create_order",
			action: func(ctx context.Context) error {
				created, err := s.orders.CreateOrder(ctx, order)
				if err != nil {
					return err
				}
				order = created
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.orders.DeleteOrder(ctx, order.ID)
			},
		},
		{
			name: "create_items",
			action: func(ctx context.Context) error {
				return s.orders.CreateOrderItems(ctx, buildItems(order.ID, lines))
			},
		},
		{
			name:     "record_coupon_usage",
			optional: true,
			action: func(ctx context.Context) error {
				if applied == nil {
					return nil
				}
				if err := s.recordCouponUsage(ctx, order, applied, totals); err != nil {
					return err
				}
				usageRecorded = true
				return nil
			},
			compensate: func(ctx context.Context) error {
				if !usageRecorded {
					return nil
				}
				return s.releaseCouponUsage(ctx, order, applied)
			},
		},
		{
			name: "clear_cart",
			action: func(ctx context.Context) error {
				return s.cart.Clear(ctx, c.UserID)
			},
		},
	}

	if err := sg.run(commitCtx); err != nil {
		placeErr := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order could not be placed")
		var failure *stepFailure
		if errors.As(err, &failure) {
			placeErr = placeErr.WithDetails(map[string]any{"step": failure.step})
		}
		return nil, placeErr
	}

	commitCtx = s.logg.WithOrderNumber(commitCtx, order.OrderNumber)
	placed := Placed{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Totals:      totals,
		PlacedAt:    s.now().UTC(),
	}
	placed.Warnings = append(placed.Warnings, sg.skipped...)

	s.notify(commitCtx, c, order.OrderNumber, lines, totals)

	m.confirm(placed)
	s.logg.Info(commitCtx, "checkout.commit.confirmed")
	return &placed, nil
}

func (s *Sequencer) buildOrder(c *Context, totals Totals, applied *coupons.Applied) *models.Order {
	order := &models.Order{
		UserID:          c.UserID,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.Delivery,
		DiscountAmount:  totals.Discount,
		TotalAmount:     totals.Total,
		ShippingAddress: c.Shipping.Normalized(),
		BillingAddress:  c.Shipping.Normalized(),
		ShippingMethod:  c.Delivery,
		PaymentMethod:   c.Payment.Method,
		Language:        c.Language,
	}
	if applied != nil {
		id := applied.ID
		order.CouponID = &id
	}
	if notes := c.Shipping.Normalized().Notes; notes != "" {
		order.Notes = &notes
	}
	return order
}

func buildItems(orderID uuid.UUID, lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:       orderID,
			ProductID:     line.ProductID,
			VariationID:   line.VariationID,
			ProductName:   line.ProductName,
			VariationName: line.VariationName,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TotalPrice:    line.Total(),
		})
	}
	return items
}

// recordCouponUsage bumps the counter and writes the usage row together. The increment is
// conditional in the store, so a coupon exhausted by a concurrent order writes nothing.
func (s *Sequencer) recordCouponUsage(ctx context.Context, order *models.Order, applied *coupons.Applied, totals Totals) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.coupons.WithTx(tx).IncrementUsage(ctx, applied.ID)
		if err != nil {
			return err
		}
		if !ok {
			return errCouponUsesExhausted
		}
		return s.orders.WithTx(tx).CreateCouponUsage(ctx, &models.CouponUsage{
			CouponID:        applied.ID,
			UserID:          order.UserID,
			OrderID:         order.ID,
			DiscountApplied: totals.Discount,
		})
	})
}

func (s *Sequencer) releaseCouponUsage(ctx context.Context, order *models.Order, applied *coupons.Applied) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).DeleteCouponUsage(ctx, applied.ID, order.ID); err != nil {
			return err
		}
		return s.coupons.WithTx(tx).DecrementUsage(ctx, applied.ID)
	})
}

// notify hands the confirmation to the dispatcher. Errors and panics are logged and dropped.
func (s *Sequencer) notify(ctx context.Context, c *Context, orderNumber int64, lines []cart.Line, totals Totals) {
	msg := notifications.Confirmation{
		OrderNumber: orderNumber,
		Contact: notifications.Contact{
			Name:  c.Shipping.FullName(),
			Email: c.Shipping.Email,
			Phone: c.Shipping.Phone,
		},
		Language: c.Language,
		Items:    make([]notifications.Item, 0, len(lines)),
		Totals: notifications.Totals{
			Subtotal: totals.Subtotal,
			Delivery: totals.Delivery,
			Discount: totals.Discount,
			Total:    totals.Total,
		},
	}
	for _, line := range lines {
		msg.Items = append(msg.Items, notifications.Item{
			Name:          line.ProductName,
			VariationName: line.VariationName,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TotalPrice:    line.Total(),
		})
	}

	defer func() {
		if r := recover(); r != nil {
			s.logg.Error(ctx, "checkout.commit.notify.panic", fmt.Errorf("panic: %v", r))
		}
	}()
	if err := s.notifier.SendOrderConfirmation(ctx, msg); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.commit.notify.failed")
		return
	}
	s.logg.Info(ctx, "checkout.commit.notify")
}

func appliedDiscount(applied *coupons.Applied) decimal.Decimal {
	if applied == nil {
		return decimal.Zero
	}
	return applied.Discount
}
