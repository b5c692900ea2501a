package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/shopsphere/storefront/internal/domain/coupon"
	"github.com/shopsphere/storefront/internal/domain/order"
	"github.com/shopsphere/storefront/internal/domain/pricing"
	"github.com/shopsphere/storefront/internal/domain/product"
)

// View is a cart together with its derived pricing snapshot. The snapshot
// is recomputed on every read, never stored.
type View struct {
	Cart   *Cart
	Totals pricing.Totals
}

// Service owns cart mutation and the cart read path.
type Service struct {
	carts    Repository
	products product.Repository
	coupons  coupon.Validator
	pricing  pricing.Config
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(
	carts Repository,
	products product.Repository,
	coupons coupon.Validator,
	cfg pricing.Config,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		pricing:  cfg,
		now:      time.Now,
	}
}

// load returns the buyer's cart, treating a missing cart as empty so the
// read path never fails on first visit.
func (s *Service) load(ctx context.Context, buyerID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, buyerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Empty(buyerID), nil
		}
		return nil, errors.Wrap(err, "load cart")
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = s.now()
	return s.carts.Save(ctx, c)
}

// SetItem adds a product to the cart or replaces the existing entry for the
// same product and variant. The unit price and name are snapshotted from
// the live catalog.
func (s *Service) SetItem(ctx context.Context, buyerID, productID, variant string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	item := Item{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Variant:   variant,
		Image:     p.Image,
	}

	replaced := false
	for i, existing := range c.Items {
		if existing.ProductID == productID && existing.Variant == variant {
			c.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.Items = append(c.Items, item)
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem deletes all entries for the product from the cart.
func (s *Service) RemoveItem(ctx context.Context, buyerID, productID string) (*Cart, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetShippingAddress stores the shipping destination on the cart.
func (s *Service) SetShippingAddress(ctx context.Context, buyerID string, addr order.Address) (*Cart, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	c.ShippingAddress = addr
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetPaymentMethod stores the payment method selection on the cart.
func (s *Service) SetPaymentMethod(ctx context.Context, buyerID, method string) (*Cart, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	c.PaymentMethod = method
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyCoupon validates the code and applies it to the cart as one logical
// step. When validation fails, any previously applied coupon is cleared in
// the same step and the validation error is returned: a cart must never
// keep discounting with a coupon that just failed re-validation.
func (s *Service) ApplyCoupon(ctx context.Context, buyerID, code string) (*Cart, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	validated, vErr := s.coupons.Validate(ctx, code)
	if vErr != nil {
		c.Coupon = nil
		if saveErr := s.save(ctx, c); saveErr != nil {
			return nil, errors.Wrap(saveErr, "clear coupon")
		}
		return nil, vErr
	}

	c.Coupon = validated
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveCoupon clears the applied coupon.
func (s *Service) RemoveCoupon(ctx context.Context, buyerID string) (*Cart, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	c.Coupon = nil
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// View returns the cart and its freshly derived totals. The applied coupon
// is re-validated against the current time and active flag; if it no longer
// holds, it is cleared from the cart before the totals are computed, so a
// stale discount never renders.
func (s *Service) View(ctx context.Context, buyerID string) (*View, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	if c.Coupon != nil {
		if _, vErr := s.coupons.Validate(ctx, c.Coupon.Code); vErr != nil {
			c.Coupon = nil
			if saveErr := s.save(ctx, c); saveErr != nil {
				return nil, errors.Wrap(saveErr, "clear stale coupon")
			}
		}
	}

	return &View{
		Cart:   c,
		Totals: pricing.ComputeTotals(c.PricingItems(), c.Coupon, s.pricing),
	}, nil
}

// Clear removes the buyer's cart entirely, typically after checkout.
func (s *Service) Clear(ctx context.Context, buyerID string) error {
	if err := s.carts.Delete(ctx, buyerID); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
