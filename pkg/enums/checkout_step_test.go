package enums

import "testing"

func TestCheckoutStepOrdering(t *testing.T) {
	next, ok := CheckoutStepShipping.Next()
	if !ok || next != CheckoutStepDelivery {
		t.Fatalf("expected delivery after shipping, got %q", next)
	}
	if _, ok := CheckoutStepConfirmation.Next(); ok {
		t.Fatalf("confirmation has no next step")
	}
	if _, ok := CheckoutStepShipping.Previous(); ok {
		t.Fatalf("shipping has no previous step")
	}
	prev, ok := CheckoutStepPayment.Previous()
	if !ok || prev != CheckoutStepDelivery {
		t.Fatalf("expected delivery before payment, got %q", prev)
	}
	if !CheckoutStepConfirmation.IsTerminal() || CheckoutStepPayment.IsTerminal() {
		t.Fatalf("only confirmation is terminal")
	}
}

func TestParseCheckoutStep(t *testing.T) {
	if _, err := ParseCheckoutStep("review"); err == nil {
		t.Fatalf("expected unknown step to fail")
	}
	step, err := ParseCheckoutStep("payment")
	if err != nil || step != CheckoutStepPayment {
		t.Fatalf("unexpected parse result %q %v", step, err)
	}
	steps := CheckoutSteps()
	steps[0] = CheckoutStepPayment
	if CheckoutSteps()[0] != CheckoutStepShipping {
		t.Fatalf("CheckoutSteps must return a copy")
	}
}
