// Package pricing derives checkout totals from raw cart line items and an
// optional coupon. The computation is pure: identical inputs always produce
// identical totals, and it never fails. A partially loaded cart renders as
// zeros instead of an error.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/domain/coupon"
)

var hundred = decimal.NewFromInt(100)

// Item is one product/variant/quantity entry entering the computation.
type Item struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
	Variant   string
}

// Totals is the derived pricing snapshot for a cart+coupon combination.
// Each field is independently rounded to 2 decimal places at the point of
// computation so that the grand total always matches the line-level display.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Config holds the pricing knobs. Shipping is waived when the undiscounted
// subtotal strictly exceeds FreeShippingMin.
type Config struct {
	TaxRate         decimal.Decimal
	FlatShipping    decimal.Decimal
	FreeShippingMin decimal.Decimal
}

// DefaultConfig returns the standard storefront pricing configuration:
// 15% tax, flat shipping of 10, free shipping above 100.
func DefaultConfig() Config {
	return Config{
		TaxRate:         decimal.New(15, -2),
		FlatShipping:    decimal.NewFromInt(10),
		FreeShippingMin: decimal.NewFromInt(100),
	}
}

// ComputeTotals derives the pricing snapshot for the given line items and
// optional coupon. The order of operations is load-bearing:
//
//   - subtotal: aggregate of unit price x quantity, rounded once (never
//     per item)
//   - discount: the raw coupon discount capped at the subtotal, then rounded
//   - shipping: flat fee based on the undiscounted subtotal
//   - tax: computed on the discounted base, not the raw subtotal
//   - total: sum of the already-rounded components, rounded
//
// Missing or negative prices and quantities contribute zero.
func ComputeTotals(items []Item, c *coupon.Coupon, cfg Config) Totals {
	subtotal := round2(rawSubtotal(items))
	discount := round2(rawDiscount(subtotal, c))

	shipping := cfg.FlatShipping
	if subtotal.GreaterThan(cfg.FreeShippingMin) {
		shipping = decimal.Zero
	}
	shipping = round2(shipping)

	tax := round2(cfg.TaxRate.Mul(subtotal.Sub(discount)))
	total := round2(subtotal.Sub(discount).Add(shipping).Add(tax))

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}

// rawSubtotal sums unit price x quantity across all items, clamping
// negative inputs to zero.
func rawSubtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		price := clampNonNegative(item.UnitPrice)
		qty := int64(item.Quantity)
		if qty < 0 {
			qty = 0
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(qty)))
	}
	return sum
}

// rawDiscount computes the uncapped coupon discount, then caps it at the
// subtotal: a discount can never make an order negative.
func rawDiscount(subtotal decimal.Decimal, c *coupon.Coupon) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}

	var raw decimal.Decimal
	switch c.Kind {
	case coupon.KindPercentage:
		raw = subtotal.Mul(c.Value).Div(hundred)
	case coupon.KindFixed:
		raw = c.Value
	default:
		return decimal.Zero
	}

	return clampNonNegative(decimal.Min(raw, subtotal))
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// clampNonNegative floors negative values at zero.
func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
