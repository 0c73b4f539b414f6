package checkout

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Rules are the deployment-level switches the machine consults.
type Rules struct {
	CardPayments bool
}

// Machine drives one checkout Context through its steps. Transitions are synchronous and do no I/O.
type Machine struct {
	ctx   *Context
	rules Rules
	now   func() time.Time
}

// NewMachine rehydrates a machine around c.
func NewMachine(c *Context, rules Rules, clock func() time.Time) *Machine {
	if clock == nil {
		clock = time.Now
	}
	return &Machine{ctx: c, rules: rules, now: clock}
}

// Context returns the state the machine operates on.
func (m *Machine) Context() *Context {
	return m.ctx
}

// Step returns the current step.
func (m *Machine) Step() enums.CheckoutStep {
	return m.ctx.Step
}

// SetShipping replaces the shipping form. Only the shipping step may change it.
func (m *Machine) SetShipping(addr types.ShippingAddress) error {
	if err := m.requireStep(enums.CheckoutStepShipping); err != nil {
		return err
	}
	m.ctx.Shipping = addr.Normalized()
	m.touch()
	return nil
}

// SelectDelivery records the delivery option. Only the delivery step may change it.
func (m *Machine) SelectDelivery(option enums.DeliveryOption) error {
	if err := m.requireStep(enums.CheckoutStepDelivery); err != nil {
		return err
	}
	if !option.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery option").
			WithDetails(map[string]string{"delivery": "is invalid"})
	}
	m.ctx.Delivery = option
	m.touch()
	return nil
}

// SelectPayment records the payment form. Only the payment step may change it.
func (m *Machine) SelectPayment(sel PaymentSelection) error {
	if err := m.requireStep(enums.CheckoutStepPayment); err != nil {
		return err
	}
	if sel.Method != "" {
		if details := m.paymentMethodProblems(sel.Method); len(details) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").WithDetails(details)
		}
	}
	m.ctx.Payment = sel
	m.touch()
	return nil
}

// ApplyCoupon stores a validated coupon snapshot on the session.
func (m *Machine) ApplyCoupon(applied coupons.Applied) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	m.ctx.Coupon = &applied
	m.touch()
	return nil
}

// RemoveCoupon clears the applied coupon and its discount. Usage counters are never touched.
func (m *Machine) RemoveCoupon() error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	m.ctx.Coupon = nil
	m.touch()
	return nil
}

// Advance moves to the next step when the current one is valid. The payment step never advances
// by navigation: confirmation is reached only by placing the order.
func (m *Machine) Advance() error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if err := m.ValidateStep(m.ctx.Step); err != nil {
		return err
	}
	next, ok := m.ctx.Step.Next()
	if !ok || next == enums.CheckoutStepConfirmation {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "place the order to continue").
			WithDetails(map[string]any{"step": m.ctx.Step})
	}
	m.moveTo(next)
	return nil
}

// Retreat moves to the previous step.
func (m *Machine) Retreat() error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	prev, ok := m.ctx.Step.Previous()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "already at the first step").
			WithDetails(map[string]any{"step": m.ctx.Step})
	}
	m.moveTo(prev)
	return nil
}

// JumpTo moves back to an earlier step. Forward jumps and jumps to confirmation are refused.
func (m *Machine) JumpTo(target enums.CheckoutStep) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout step").
			WithDetails(map[string]string{"step": "is invalid"})
	}
	if target == m.ctx.Step {
		return nil
	}
	if target == enums.CheckoutStepConfirmation || target.Index() > m.ctx.Step.Index() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot skip ahead").
			WithDetails(map[string]any{"step": m.ctx.Step, "target": target})
	}
	m.moveTo(target)
	return nil
}

// ValidateStep evaluates the local validity predicate of step.
func (m *Machine) ValidateStep(step enums.CheckoutStep) error {
	switch step {
	case enums.CheckoutStepShipping:
		return validateShipping(m.ctx.Shipping)
	case enums.CheckoutStepDelivery:
		if !m.ctx.Delivery.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "select a delivery option").
				WithDetails(map[string]string{"delivery": "is required"})
		}
		return nil
	case enums.CheckoutStepPayment:
		details := map[string]string{}
		if m.ctx.Payment.Method == "" {
			details["method"] = "is required"
		} else {
			for field, msg := range m.paymentMethodProblems(m.ctx.Payment.Method) {
				details[field] = msg
			}
		}
		if !m.ctx.Payment.TermsAccepted {
			details["terms_accepted"] = "must be accepted"
		}
		if len(details) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment step incomplete").WithDetails(details)
		}
		return nil
	default:
		return nil
	}
}

// ReadyToCommit checks that the session sits on the payment step with every step valid.
func (m *Machine) ReadyToCommit() error {
	if err := m.requireStep(enums.CheckoutStepPayment); err != nil {
		return err
	}
	for _, step := range []enums.CheckoutStep{
		enums.CheckoutStepShipping,
		enums.CheckoutStepDelivery,
		enums.CheckoutStepPayment,
	} {
		if err := m.ValidateStep(step); err != nil {
			return err
		}
	}
	return nil
}

// confirm is the only way into the confirmation step.
func (m *Machine) confirm(placed Placed) {
	m.ctx.Placed = &placed
	m.moveTo(enums.CheckoutStepConfirmation)
}

func (m *Machine) moveTo(step enums.CheckoutStep) {
	m.ctx.Step = step
	if step.Index() > m.ctx.Furthest.Index() {
		m.ctx.Furthest = step
	}
	m.touch()
}

func (m *Machine) touch() {
	m.ctx.UpdatedAt = m.now().UTC()
}

func (m *Machine) requireOpen() error {
	if m.ctx.Step.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already completed")
	}
	return nil
}

func (m *Machine) requireStep(step enums.CheckoutStep) error {
	if err := m.requireOpen(); err != nil {
		return err
	}
	if m.ctx.Step != step {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("only allowed on the %s step", step)).
			WithDetails(map[string]any{"step": m.ctx.Step})
	}
	return nil
}

func (m *Machine) paymentMethodProblems(method enums.PaymentMethod) map[string]string {
	if !method.IsValid() {
		return map[string]string{"method": "is invalid"}
	}
	if method == enums.PaymentMethodCard && !m.rules.CardPayments {
		return map[string]string{"method": "is not available"}
	}
	return nil
}

func validateShipping(addr types.ShippingAddress) error {
	err := validate.Struct(addr.Normalized())
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "shipping details incomplete")
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = "is required"
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "shipping details incomplete").WithDetails(details)
}
