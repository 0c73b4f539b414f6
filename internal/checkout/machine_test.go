package checkout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/internal/coupons"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

func newTestMachine(c *Context) *Machine {
	return NewMachine(c, Rules{}, clock)
}

func TestNewContextPrefillsShipping(t *testing.T) {
	prefill := types.ShippingAddress{FirstName: "  Omar ", City: "Salmiya "}
	c := NewContext(uuid.New(), enums.LanguageArabic, &prefill, fixedNow)

	if c.Step != enums.CheckoutStepShipping {
		t.Fatalf("expected shipping step, got %s", c.Step)
	}
	if c.Shipping.FirstName != "Omar" || c.Shipping.City != "Salmiya" {
		t.Fatalf("expected normalized prefill, got %+v", c.Shipping)
	}
	if c.Delivery != enums.DeliveryStandard {
		t.Fatalf("expected standard delivery by default, got %s", c.Delivery)
	}
}

func TestAdvanceRequiresShippingFields(t *testing.T) {
	m := newTestMachine(NewContext(uuid.New(), enums.LanguageEnglish, nil, fixedNow))

	addr := fullAddress()
	addr.City = "   "
	if err := m.SetShipping(addr); err != nil {
		t.Fatalf("set shipping: %v", err)
	}
	err := m.Advance()
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if details["city"] != "is required" {
		t.Fatalf("expected city detail, got %v", details)
	}
	if m.Step() != enums.CheckoutStepShipping {
		t.Fatalf("step must not change on failed advance")
	}

	if err := m.SetShipping(fullAddress()); err != nil {
		t.Fatalf("set shipping: %v", err)
	}
	if err := m.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if m.Step() != enums.CheckoutStepDelivery {
		t.Fatalf("expected delivery step, got %s", m.Step())
	}
}

func TestAdvanceFromPaymentNeverReachesConfirmation(t *testing.T) {
	c := readyContext(uuid.New(), enums.DeliveryStandard)
	c.Payment.TermsAccepted = false
	m := newTestMachine(c)

	err := m.Advance()
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error without terms, got %v", err)
	}
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if _, ok := details["terms_accepted"]; !ok {
		t.Fatalf("expected terms detail, got %v", details)
	}

	c.Payment.TermsAccepted = true
	err = m.Advance()
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict once valid, got %v", err)
	}
	if m.Step() != enums.CheckoutStepPayment {
		t.Fatalf("payment must not advance by navigation, got %s", m.Step())
	}
}

func TestJumpToRules(t *testing.T) {
	m := newTestMachine(readyContext(uuid.New(), enums.DeliveryExpress))

	if err := m.JumpTo(enums.CheckoutStepConfirmation); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("jump to confirmation must be refused, got %v", err)
	}
	if err := m.JumpTo(enums.CheckoutStepShipping); err != nil {
		t.Fatalf("jump back: %v", err)
	}
	if m.Step() != enums.CheckoutStepShipping {
		t.Fatalf("expected shipping, got %s", m.Step())
	}
	if err := m.JumpTo(enums.CheckoutStepPayment); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("forward jump must be refused, got %v", err)
	}
	if err := m.JumpTo(enums.CheckoutStep("basket")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown step must be a validation error, got %v", err)
	}

	completed := m.Context().CompletedSteps()
	if len(completed) != 2 {
		t.Fatalf("expected shipping and delivery still completed, got %v", completed)
	}
}

func TestRetreat(t *testing.T) {
	m := newTestMachine(readyContext(uuid.New(), enums.DeliveryStandard))

	if err := m.Retreat(); err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if m.Step() != enums.CheckoutStepDelivery {
		t.Fatalf("expected delivery, got %s", m.Step())
	}
	_ = m.Retreat()
	if err := m.Retreat(); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("retreat from shipping must fail, got %v", err)
	}
}

func TestConfirmationIsTerminal(t *testing.T) {
	m := newTestMachine(readyContext(uuid.New(), enums.DeliveryStandard))
	m.confirm(Placed{OrderID: uuid.New(), OrderNumber: 10001})

	if !m.Context().Confirmed() {
		t.Fatalf("expected confirmed session")
	}
	for name, err := range map[string]error{
		"retreat": m.Retreat(),
		"advance": m.Advance(),
		"jump":    m.JumpTo(enums.CheckoutStepShipping),
		"coupon":  m.RemoveCoupon(),
		"payment": m.SelectPayment(PaymentSelection{}),
	} {
		if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("%s after confirmation: expected state conflict, got %v", name, err)
		}
	}
	if len(m.Context().CompletedSteps()) != 4 {
		t.Fatalf("all steps should read as completed")
	}
}

func TestStepLocalMutations(t *testing.T) {
	m := newTestMachine(NewContext(uuid.New(), enums.LanguageEnglish, nil, fixedNow))

	if err := m.SelectDelivery(enums.DeliveryExpress); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("delivery outside its step must be refused, got %v", err)
	}
	_ = m.SetShipping(fullAddress())
	_ = m.Advance()

	if err := m.SelectDelivery(enums.DeliveryOption("drone")); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown option must be invalid, got %v", err)
	}
	if err := m.SelectDelivery(enums.DeliverySameDay); err != nil {
		t.Fatalf("select delivery: %v", err)
	}
	if err := m.SetShipping(fullAddress()); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("shipping outside its step must be refused, got %v", err)
	}
}

func TestCardPaymentsFollowRules(t *testing.T) {
	c := readyContext(uuid.New(), enums.DeliveryStandard)
	disabled := NewMachine(c, Rules{CardPayments: false}, clock)
	if err := disabled.SelectPayment(PaymentSelection{Method: enums.PaymentMethodCard, TermsAccepted: true}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("card must be unavailable, got %v", err)
	}

	enabled := NewMachine(c, Rules{CardPayments: true}, clock)
	if err := enabled.SelectPayment(PaymentSelection{Method: enums.PaymentMethodCard, TermsAccepted: true}); err != nil {
		t.Fatalf("card should be accepted when enabled: %v", err)
	}
	if err := enabled.ReadyToCommit(); err != nil {
		t.Fatalf("ready to commit: %v", err)
	}
}

func TestRemoveCouponClearsDiscount(t *testing.T) {
	m := newTestMachine(readyContext(uuid.New(), enums.DeliveryStandard))
	if err := m.ApplyCoupon(coupons.Applied{Code: "SAVE10", Discount: dec("10")}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := m.RemoveCoupon(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Context().Coupon != nil {
		t.Fatalf("coupon should be cleared")
	}
}
