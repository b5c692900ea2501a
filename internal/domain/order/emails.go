package order

import (
	"fmt"
	"strings"

	"github.com/shopsphere/storefront/internal/notify"
)

// confirmationEmail builds the order confirmation sent to the buyer right
// after checkout.
func confirmationEmail(o *Order) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", o.BuyerName)
	fmt.Fprintf(&b, "Thanks for your order %s. We are getting it ready.\n\n", o.ID)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s\n", item.Quantity, item.Name, item.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Pricing.Subtotal.StringFixed(2))
	if o.Pricing.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount (%s): -%s\n", o.CouponCode, o.Pricing.Discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Shipping: %s\n", o.Pricing.Shipping.StringFixed(2))
	fmt.Fprintf(&b, "Tax: %s\n", o.Pricing.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n", o.Pricing.Total.StringFixed(2))

	return notify.Message{
		To:      o.BuyerEmail,
		Subject: fmt.Sprintf("Order %s confirmed", o.ID),
		Body:    b.String(),
	}
}

// shipmentEmail builds the notification sent to the buyer when an order
// moves to Shipped.
func shipmentEmail(o *Order) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", o.BuyerName)
	fmt.Fprintf(&b, "Good news: your order %s has shipped.\n\n", o.ID)
	fmt.Fprintf(&b, "Shipping to: %s, %s %s, %s\n",
		o.ShippingAddress.Line1, o.ShippingAddress.City,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country)

	return notify.Message{
		To:      o.BuyerEmail,
		Subject: fmt.Sprintf("Order %s has shipped", o.ID),
		Body:    b.String(),
	}
}
