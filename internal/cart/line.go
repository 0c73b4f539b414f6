package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/money"
)

// Line is one priced cart line as seen at the moment it was read.
type Line struct {
	ProductID     uuid.UUID       `json:"product_id"`
	VariationID   *uuid.UUID      `json:"variation_id,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ProductName   string          `json:"product_name"`
	VariationName *string         `json:"variation_name,omitempty"`
}

// Total returns unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

// Subtotal sums the line totals.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Total())
	}
	return money.Round(sum)
}
