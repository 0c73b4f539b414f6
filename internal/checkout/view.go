package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Step progress states.
const (
	StepCompleted = "completed"
	StepCurrent   = "current"
	StepUpcoming  = "upcoming"
)

// StepStatus drives the progress indicator.
type StepStatus struct {
	Step  enums.CheckoutStep `json:"step"`
	State string             `json:"state"`
}

type DeliveryChoice struct {
	Option enums.DeliveryOption `json:"option"`
	Cost   decimal.Decimal      `json:"cost"`
}

type PaymentChoice struct {
	Method    enums.PaymentMethod `json:"method"`
	Available bool                `json:"available"`
}

type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Notice tells the shopper about a change the server made on its own, such as dropping a coupon.
type Notice struct {
	Code    string         `json:"code"`
	Reason  coupons.Reason `json:"reason,omitempty"`
	Message string         `json:"message"`
}

// View is what the wizard renders for any step.
type View struct {
	SessionID       string                `json:"session_id"`
	Step            enums.CheckoutStep    `json:"step"`
	Steps           []StepStatus          `json:"steps"`
	Language        enums.Language        `json:"language"`
	Shipping        types.ShippingAddress `json:"shipping"`
	Delivery        enums.DeliveryOption  `json:"delivery"`
	DeliveryOptions []DeliveryChoice      `json:"delivery_options"`
	Payment         PaymentSelection      `json:"payment"`
	PaymentMethods  []PaymentChoice       `json:"payment_methods"`
	Coupon          *AppliedCoupon        `json:"coupon,omitempty"`
	Lines           []cart.Line           `json:"lines"`
	Summary         Totals                `json:"summary"`
	Order           *Placed               `json:"order,omitempty"`
	Notices         []Notice              `json:"notices,omitempty"`
}

func buildView(m *Machine, costs DeliveryCosts, lines []cart.Line, totals Totals, notices []Notice) *View {
	c := m.Context()
	view := &View{
		SessionID: c.SessionID,
		Step:      c.Step,
		Steps:     stepStatuses(c),
		Language:  c.Language,
		Shipping:  c.Shipping,
		Delivery:  c.Delivery,
		Payment:   c.Payment,
		Lines:     lines,
		Summary:   totals,
		Order:     c.Placed,
		Notices:   notices,
	}
	if view.Lines == nil {
		view.Lines = []cart.Line{}
	}
	for _, option := range enums.DeliveryOptions() {
		view.DeliveryOptions = append(view.DeliveryOptions, DeliveryChoice{Option: option, Cost: costs.Cost(option)})
	}
	for _, method := range []enums.PaymentMethod{
		enums.PaymentMethodCashOnDelivery,
		enums.PaymentMethodBankTransfer,
		enums.PaymentMethodCard,
	} {
		view.PaymentMethods = append(view.PaymentMethods, PaymentChoice{
			Method:    method,
			Available: m.paymentMethodProblems(method) == nil,
		})
	}
	if c.Coupon != nil {
		view.Coupon = &AppliedCoupon{Code: c.Coupon.Code, Discount: totals.Discount}
	}
	return view
}

func stepStatuses(c *Context) []StepStatus {
	completed := map[enums.CheckoutStep]bool{}
	for _, step := range c.CompletedSteps() {
		completed[step] = true
	}
	statuses := make([]StepStatus, 0, 4)
	for _, step := range enums.CheckoutSteps() {
		state := StepUpcoming
		switch {
		case step == c.Step:
			state = StepCurrent
		case completed[step]:
			state = StepCompleted
		}
		statuses = append(statuses, StepStatus{Step: step, State: state})
	}
	return statuses
}
