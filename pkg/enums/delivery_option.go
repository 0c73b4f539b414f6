package enums

import "fmt"

// DeliveryOption is the shipping speed chosen during checkout.
type DeliveryOption string

const (
	DeliveryStandard DeliveryOption = "standard"
	DeliveryExpress  DeliveryOption = "express"
	DeliverySameDay  DeliveryOption = "sameday"
)

var validDeliveryOptions = []DeliveryOption{
	DeliveryStandard,
	DeliveryExpress,
	DeliverySameDay,
}

// DeliveryOptions lists every option in display order.
func DeliveryOptions() []DeliveryOption {
	return append([]DeliveryOption(nil), validDeliveryOptions...)
}

// String implements fmt.Stringer.
func (d DeliveryOption) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryOption.
func (d DeliveryOption) IsValid() bool {
	for _, candidate := range validDeliveryOptions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryOption converts raw input into a DeliveryOption.
func ParseDeliveryOption(value string) (DeliveryOption, error) {
	for _, candidate := range validDeliveryOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery option %q", value)
}
