package enums

import "fmt"

// CheckoutStep is one stage of the checkout wizard. Steps are strictly ordered.
type CheckoutStep string

const (
	CheckoutStepShipping     CheckoutStep = "shipping"
	CheckoutStepDelivery     CheckoutStep = "delivery"
	CheckoutStepPayment      CheckoutStep = "payment"
	CheckoutStepConfirmation CheckoutStep = "confirmation"
)

var orderedCheckoutSteps = []CheckoutStep{
	CheckoutStepShipping,
	CheckoutStepDelivery,
	CheckoutStepPayment,
	CheckoutStepConfirmation,
}

// CheckoutSteps returns the wizard steps in order.
func CheckoutSteps() []CheckoutStep {
	return append([]CheckoutStep(nil), orderedCheckoutSteps...)
}

// Index returns the zero-based position of the step, or -1 when unknown.
func (s CheckoutStep) Index() int {
	for i, candidate := range orderedCheckoutSteps {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the following step; ok is false for the terminal step.
func (s CheckoutStep) Next() (CheckoutStep, bool) {
	idx := s.Index()
	if idx < 0 || idx+1 >= len(orderedCheckoutSteps) {
		return "", false
	}
	return orderedCheckoutSteps[idx+1], true
}

// Previous returns the preceding step; ok is false for the first step.
func (s CheckoutStep) Previous() (CheckoutStep, bool) {
	idx := s.Index()
	if idx <= 0 {
		return "", false
	}
	return orderedCheckoutSteps[idx-1], true
}

// IsTerminal reports whether no navigation may leave the step.
func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepConfirmation
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	return s.Index() >= 0
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range orderedCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
