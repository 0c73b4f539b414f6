package notifications

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/enums"
)

// Dispatcher sends order confirmations to the customer.
type Dispatcher interface {
	SendOrderConfirmation(ctx context.Context, msg Confirmation) error
}

// Confirmation is everything the confirmation email needs.
type Confirmation struct {
	OrderNumber int64          `json:"order_number"`
	Contact     Contact        `json:"contact"`
	Language    enums.Language `json:"language"`
	Items       []Item         `json:"items"`
	Totals      Totals         `json:"totals"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Item struct {
	Name          string          `json:"name"`
	VariationName *string         `json:"variation_name,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Delivery decimal.Decimal `json:"delivery"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}
