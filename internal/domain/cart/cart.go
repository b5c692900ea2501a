package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/domain/coupon"
	"github.com/shopsphere/storefront/internal/domain/order"
	"github.com/shopsphere/storefront/internal/domain/pricing"
)

// ErrNotFound is returned by repositories when no cart exists for a buyer.
// Callers on the read path treat a missing cart as an empty one.
var ErrNotFound = errors.New("cart not found")

// Item is one product entry held in a cart.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
	Image     string          `json:"image,omitempty"`
}

// Cart is an explicit value object holding a buyer's pending selections.
// It is loaded, modified, and saved as a whole; there is no ambient shared
// cart state. The applied coupon is stored by value and re-validated on
// every totals read.
type Cart struct {
	BuyerID         string         `json:"buyerId"`
	Items           []Item         `json:"items"`
	ShippingAddress order.Address  `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	Coupon          *coupon.Coupon `json:"coupon,omitempty"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Empty creates an empty cart for the buyer.
func Empty(buyerID string) *Cart {
	return &Cart{BuyerID: buyerID, PaymentMethod: "card"}
}

// PricingItems converts the cart items for the pricing engine.
func (c *Cart) PricingItems() []pricing.Item {
	items := make([]pricing.Item, len(c.Items))
	for i, item := range c.Items {
		items[i] = pricing.Item{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		}
	}
	return items
}

// Repository persists carts keyed by buyer. Get returns ErrNotFound when
// the buyer has no saved cart.
type Repository interface {
	Get(ctx context.Context, buyerID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, buyerID string) error
}
