package types

import "strings"

// ShippingAddress is the contact and delivery information collected by the shipping step.
// It is snapshotted onto orders as JSON.
type ShippingAddress struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	AddressText string `json:"address_text" validate:"required"`
	City        string `json:"city" validate:"required"`
	Area        string `json:"area,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed from every field.
func (a ShippingAddress) Normalized() ShippingAddress {
	return ShippingAddress{
		FirstName:   strings.TrimSpace(a.FirstName),
		LastName:    strings.TrimSpace(a.LastName),
		Email:       strings.TrimSpace(a.Email),
		Phone:       strings.TrimSpace(a.Phone),
		AddressText: strings.TrimSpace(a.AddressText),
		City:        strings.TrimSpace(a.City),
		Area:        strings.TrimSpace(a.Area),
		Notes:       strings.TrimSpace(a.Notes),
	}
}

// FullName joins first and last name for display and notifications.
func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
