package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/money"
)

// DeliveryCosts prices each delivery option.
type DeliveryCosts map[enums.DeliveryOption]decimal.Decimal

// DeliveryCostsFromConfig reads the configured option prices.
func DeliveryCostsFromConfig(cfg config.CheckoutConfig) DeliveryCosts {
	return DeliveryCosts{
		enums.DeliveryStandard: money.Round(cfg.StandardCost),
		enums.DeliveryExpress:  money.Round(cfg.ExpressCost),
		enums.DeliverySameDay:  money.Round(cfg.SameDayCost),
	}
}

// Cost returns the price of option, zero when it is unknown.
func (d DeliveryCosts) Cost(option enums.DeliveryOption) decimal.Decimal {
	cost, ok := d[option]
	if !ok {
		return decimal.Zero
	}
	return cost
}

// ComputeTotals derives the order summary. The discount is clamped to subtotal plus delivery so the
// total never goes negative.
func ComputeTotals(lines []cart.Line, delivery decimal.Decimal, discount decimal.Decimal) Totals {
	subtotal := cart.Subtotal(lines)
	delivery = money.NonNegative(money.Round(delivery))
	discount = money.Clamp(money.Round(discount), decimal.Zero, subtotal.Add(delivery))
	return Totals{
		Subtotal: subtotal,
		Delivery: delivery,
		Discount: discount,
		Total:    money.NonNegative(subtotal.Add(delivery).Sub(discount)),
	}
}
