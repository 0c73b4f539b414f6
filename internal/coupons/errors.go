package coupons

import (
	"errors"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Reason explains why a coupon does not apply.
type Reason string

const (
	ReasonNotFound      Reason = "not_found"
	ReasonInactive      Reason = "inactive"
	ReasonExpired       Reason = "expired"
	ReasonBelowMinimum  Reason = "below_minimum"
	ReasonUsesExhausted Reason = "uses_exhausted"
)

var reasonMessages = map[Reason]string{
	ReasonNotFound:      "coupon code not found",
	ReasonInactive:      "coupon is not active",
	ReasonExpired:       "coupon is outside its validity window",
	ReasonBelowMinimum:  "order subtotal is below the coupon minimum",
	ReasonUsesExhausted: "coupon has no uses left",
}

// RejectedError carries the rejection reason through wrapped error chains.
type RejectedError struct {
	Reason Reason
}

func (e *RejectedError) Error() string {
	return "coupon rejected: " + string(e.Reason)
}

// Rejection builds the typed API error for a rejected coupon.
func Rejection(reason Reason) error {
	msg, ok := reasonMessages[reason]
	if !ok {
		msg = "coupon rejected"
	}
	return pkgerrors.Wrap(pkgerrors.CodeCouponRejected, &RejectedError{Reason: reason}, msg).
		WithDetails(map[string]any{"reason": reason})
}

// ReasonOf extracts the rejection reason from err.
func ReasonOf(err error) (Reason, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason, true
	}
	return "", false
}
