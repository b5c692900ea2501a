package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported coupon discount strategies.
type Kind string

const (
	// KindPercentage discounts a percentage of the cart subtotal.
	KindPercentage Kind = "Percentage"
	// KindFixed discounts a fixed amount, capped at the subtotal.
	KindFixed Kind = "Fixed"
)

// Valid reports whether k is a known discount kind.
func (k Kind) Valid() bool {
	return k == KindPercentage || k == KindFixed
}

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrExpired is returned when a coupon's validity window has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrInactive is returned when an admin has deactivated the coupon.
	ErrInactive = errors.New("coupon inactive")
	// ErrDuplicateCode is returned when creating a coupon whose code is taken.
	ErrDuplicateCode = errors.New("coupon code already exists")
	// ErrInvalidValue is returned when the discount value is out of range
	// for its kind: Percentage must be in (0, 100], Fixed must be >= 0.
	ErrInvalidValue = errors.New("invalid discount value")
)

// Coupon is a named discount rule. Codes are stored canonicalized to
// uppercase and compared case-insensitively. Coupons are created once and
// thereafter only toggled active/inactive; expiry is evaluated at validation
// time, never cached.
type Coupon struct {
	ID        string
	Code      string
	Kind      Kind
	Value     decimal.Decimal
	ExpiresAt time.Time
	Active    bool
	CreatedAt time.Time
}

// CanonicalCode normalizes a user-supplied coupon code for lookup and
// storage: trimmed and uppercased.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository provides persistence for coupon rules.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	SetActive(ctx context.Context, id string, active bool) error
}
