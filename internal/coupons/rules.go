package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/money"
)

// Applied is the coupon snapshot a checkout session holds between validation and commit.
type Applied struct {
	ID                uuid.UUID           `json:"id"`
	Code              string              `json:"code"`
	DiscountType      enums.DiscountType  `json:"discount_type"`
	DiscountValue     decimal.Decimal     `json:"discount_value"`
	MinOrderAmount    decimal.Decimal     `json:"min_order_amount"`
	MaxDiscountAmount decimal.NullDecimal `json:"max_discount_amount"`
	ValidFrom         *time.Time          `json:"valid_from,omitempty"`
	ValidUntil        *time.Time          `json:"valid_until,omitempty"`
	Discount          decimal.Decimal     `json:"discount"`
}

func snapshot(c *models.Coupon) Applied {
	return Applied{
		ID:                c.ID,
		Code:              c.Code,
		DiscountType:      c.DiscountType,
		DiscountValue:     c.DiscountValue,
		MinOrderAmount:    c.MinOrderAmount,
		MaxDiscountAmount: c.MaxDiscountAmount,
		ValidFrom:         c.ValidFrom,
		ValidUntil:        c.ValidUntil,
	}
}

// checkWindow reports Expired when now is before ValidFrom or after ValidUntil.
func checkWindow(from, until *time.Time, now time.Time) (Reason, bool) {
	if from != nil && now.Before(*from) {
		return ReasonExpired, false
	}
	if until != nil && now.After(*until) {
		return ReasonExpired, false
	}
	return "", true
}

// checkApplicable evaluates every applicability rule in a fixed order and returns the first failure.
func checkApplicable(c *models.Coupon, subtotal decimal.Decimal, now time.Time) (Reason, bool) {
	if c == nil {
		return ReasonNotFound, false
	}
	if !c.IsActive {
		return ReasonInactive, false
	}
	if reason, ok := checkWindow(c.ValidFrom, c.ValidUntil, now); !ok {
		return reason, false
	}
	if subtotal.LessThan(c.MinOrderAmount) {
		return ReasonBelowMinimum, false
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return ReasonUsesExhausted, false
	}
	return "", true
}

// ComputeDiscount returns the discount for subtotal. Percentage coupons take value percent,
// fixed coupons take min(value, subtotal). The result is capped by maxDiscount when set and
// never exceeds the subtotal.
func ComputeDiscount(kind enums.DiscountType, value decimal.Decimal, maxDiscount decimal.NullDecimal, subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || !value.IsPositive() {
		return decimal.Zero
	}
	var raw decimal.Decimal
	switch kind {
	case enums.DiscountTypePercentage:
		raw = money.Percent(subtotal, value)
	case enums.DiscountTypeFixed:
		raw = decimal.Min(value, subtotal)
	default:
		return decimal.Zero
	}
	if maxDiscount.Valid && raw.GreaterThan(maxDiscount.Decimal) {
		raw = money.NonNegative(maxDiscount.Decimal)
	}
	return money.Round(money.Clamp(raw, decimal.Zero, subtotal))
}
