package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// PaymentSelection is the payment step form.
type PaymentSelection struct {
	Method        enums.PaymentMethod `json:"method"`
	TermsAccepted bool                `json:"terms_accepted"`
}

// Totals is the running order summary.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Delivery decimal.Decimal `json:"delivery"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Placed records the order created by a successful commit.
type Placed struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	Totals      Totals    `json:"totals"`
	Warnings    []string  `json:"warnings,omitempty"`
	PlacedAt    time.Time `json:"placed_at"`
}

// Context is the complete state of one checkout session. It is stored between requests and
// rehydrated into a Machine for every transition.
type Context struct {
	SessionID string         `json:"session_id"`
	UserID    uuid.UUID      `json:"user_id"`
	Language  enums.Language `json:"language"`

	Step     enums.CheckoutStep `json:"step"`
	Furthest enums.CheckoutStep `json:"furthest"`

	Shipping types.ShippingAddress `json:"shipping"`
	Delivery enums.DeliveryOption  `json:"delivery"`
	Payment  PaymentSelection      `json:"payment"`
	Coupon   *coupons.Applied      `json:"coupon,omitempty"`

	Placed *Placed `json:"placed,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewContext opens a session on the shipping step. prefill, when present, seeds the shipping form.
func NewContext(userID uuid.UUID, lang enums.Language, prefill *types.ShippingAddress, now time.Time) *Context {
	c := &Context{
		SessionID: uuid.NewString(),
		UserID:    userID,
		Language:  lang,
		Step:      enums.CheckoutStepShipping,
		Furthest:  enums.CheckoutStepShipping,
		Delivery:  enums.DeliveryStandard,
		StartedAt: now,
		UpdatedAt: now,
	}
	if prefill != nil {
		c.Shipping = prefill.Normalized()
	}
	return c
}

// CompletedSteps lists the steps before the current one that the user passed through.
func (c *Context) CompletedSteps() []enums.CheckoutStep {
	if c.Step == enums.CheckoutStepConfirmation {
		return enums.CheckoutSteps()
	}
	completed := []enums.CheckoutStep{}
	for _, step := range enums.CheckoutSteps() {
		if step.Index() >= c.Furthest.Index() {
			break
		}
		completed = append(completed, step)
	}
	return completed
}

// Confirmed reports whether an order was placed from this session.
func (c *Context) Confirmed() bool {
	return c.Step == enums.CheckoutStepConfirmation && c.Placed != nil
}
