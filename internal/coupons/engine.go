package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type rejectionRecorder interface {
	IncCouponRejected(reason string)
}

// Engine validates coupon codes against a subtotal and keeps discounts in step with it.
type Engine interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Applied, error)
	Recalculate(applied Applied, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type engine struct {
	repo    Repository
	now     func() time.Time
	metrics rejectionRecorder
}

// NewEngine builds the coupon engine. A nil clock defaults to time.Now.
func NewEngine(repo Repository, clock func() time.Time, metrics rejectionRecorder) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &engine{repo: repo, now: clock, metrics: metrics}, nil
}

// Validate looks the code up and checks it against subtotal. Applying a coupon never touches
// its usage counter.
func (e *engine) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*Applied, error) {
	coupon, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup coupon")
	}
	if reason, ok := checkApplicable(coupon, subtotal, e.now()); !ok {
		return nil, e.reject(reason)
	}
	applied := snapshot(coupon)
	applied.Discount = ComputeDiscount(applied.DiscountType, applied.DiscountValue, applied.MaxDiscountAmount, subtotal)
	return &applied, nil
}

// Recalculate recomputes the discount of an already applied coupon for a new subtotal. It
// returns a rejection when the coupon stopped applying, and the caller must drop it.
func (e *engine) Recalculate(applied Applied, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if reason, ok := checkWindow(applied.ValidFrom, applied.ValidUntil, e.now()); !ok {
		return decimal.Zero, e.reject(reason)
	}
	if subtotal.LessThan(applied.MinOrderAmount) {
		return decimal.Zero, e.reject(ReasonBelowMinimum)
	}
	return ComputeDiscount(applied.DiscountType, applied.DiscountValue, applied.MaxDiscountAmount, subtotal), nil
}

func (e *engine) reject(reason Reason) error {
	if e.metrics != nil {
		e.metrics.IncCouponRejected(string(reason))
	}
	return Rejection(reason)
}
