package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/domain/pricing"
)

// Sentinel errors for order operations.
var (
	// ErrEmptyOrder is returned when creating an order without line items.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrNotFound is returned for unknown order IDs. Kept distinct from
	// ErrUnauthorized so callers can render the two differently.
	ErrNotFound = errors.New("order not found")
	// ErrUnauthorized is returned when the actor may not perform the
	// requested operation on the order.
	ErrUnauthorized = errors.New("not authorized for this order")
	// ErrNotPaid is returned when marking an unpaid order delivered.
	ErrNotPaid = errors.New("order is not paid")
	// ErrConflict is returned when a concurrent transition won the version
	// race; the caller should re-read and retry.
	ErrConflict = errors.New("order was modified concurrently")
)

// InvalidTransitionError indicates a status change the transition table
// does not permit.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// LineItem is one product entry frozen onto an order. UnitPrice and VendorID
// are denormalized at creation time so later catalog changes never alter the
// order and per-vendor queries need no catalog join.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	VendorID  string          `json:"vendorId"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
	Image     string          `json:"image,omitempty"`
}

// Address is the shipping destination captured at checkout.
type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// Order is created once at checkout and thereafter mutated only through
// status transitions and payment marking. The Pricing snapshot is frozen at
// creation; coupon or catalog changes never retroactively alter it.
type Order struct {
	ID              string
	BuyerID         string
	BuyerName       string
	BuyerEmail      string
	Items           []LineItem
	ShippingAddress Address
	PaymentMethod   string
	CouponCode      string
	Pricing         pricing.Totals
	Status          Status
	IsPaid          bool
	PaidAt          *time.Time
	DeliveredAt     *time.Time
	Version         int64
	CreatedAt       time.Time
}

// HasVendor reports whether at least one line item belongs to the given
// vendor.
func (o *Order) HasVendor(vendorID string) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// Repository defines persistence operations for orders. Update must apply
// an optimistic version check and return ErrConflict when the stored version
// differs: two concurrent transitions are never merged, the loser retries.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	ListByVendor(ctx context.Context, vendorID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}
