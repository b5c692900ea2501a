package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopsphere/storefront/internal/domain/auth"
	"github.com/shopsphere/storefront/internal/domain/pricing"
	"github.com/shopsphere/storefront/internal/domain/product"
	"github.com/shopsphere/storefront/internal/notify"
)

// Service owns order creation and the status state machine.
type Service struct {
	orders   Repository
	products product.Repository
	notifier notify.Notifier
	lg       *zap.Logger
	now      func() time.Time
}

// NewService creates an order Service.
func NewService(
	orders Repository,
	products product.Repository,
	notifier notify.Notifier,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		products: products,
		notifier: notifier,
		lg:       lg,
		now:      time.Now,
	}
}

// CreateRequest holds the checkout input. Totals carries the pricing
// snapshot already derived for the cart; its five fields are frozen onto
// the order verbatim.
type CreateRequest struct {
	Buyer           auth.Actor
	Items           []pricing.Item
	ShippingAddress Address
	PaymentMethod   string
	CouponCode      string
	Totals          pricing.Totals
}

// Create builds and persists a new order in the Processing state. Each line
// item is stamped with the vendor owning its product at creation time, and
// the pricing snapshot is frozen so later coupon or price changes never
// alter the order. A confirmation email is dispatched best-effort: its
// failure is logged and dropped, the persisted order is the durable fact.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "resolve products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]LineItem, len(req.Items))
	for i, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, errors.Wrapf(product.ErrNotFound, "product %s", item.ProductID)
		}
		items[i] = LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			VendorID:  p.VendorID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
			Image:     p.Image,
		}
	}

	o := &Order{
		ID:              uuid.New().String(),
		BuyerID:         req.Buyer.ID,
		BuyerName:       req.Buyer.Name,
		BuyerEmail:      req.Buyer.Email,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		Pricing:         req.Totals,
		Status:          StatusProcessing,
		Version:         1,
		CreatedAt:       s.now(),
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.dispatch(ctx, confirmationEmail(o))

	return o, nil
}

// Transition moves an order to the requested status on behalf of the actor.
// The actor must be an admin or a vendor owning at least one line item.
// Delivered additionally requires the order to be paid and stamps the
// delivery timestamp; Shipped dispatches a best-effort shipment email.
func (s *Service) Transition(ctx context.Context, orderID string, to Status, actor auth.Actor) (*Order, error) {
	if !to.Valid() {
		return nil, &InvalidTransitionError{To: to}
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(actor, o) {
		return nil, ErrUnauthorized
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, &InvalidTransitionError{From: o.Status, To: to}
	}

	if to == StatusDelivered {
		if !o.IsPaid {
			return nil, ErrNotPaid
		}
		now := s.now()
		o.DeliveredAt = &now
	}

	o.Status = to
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}

	if to == StatusShipped {
		s.dispatch(ctx, shipmentEmail(o))
	}

	return o, nil
}

// MarkPaid records a successful payment on the order. Only the owning buyer
// or an admin may mark an order paid.
func (s *Service) MarkPaid(ctx context.Context, orderID string, actor auth.Actor) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && o.BuyerID != actor.ID {
		return nil, ErrUnauthorized
	}
	if o.IsPaid {
		return o, nil
	}

	now := s.now()
	o.IsPaid = true
	o.PaidAt = &now
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// Get returns a single order, restricted to the owning buyer, a vendor with
// a line item in it, or an admin.
func (s *Service) Get(ctx context.Context, orderID string, actor auth.Actor) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, o) {
		return nil, ErrUnauthorized
	}
	return o, nil
}

// ListForActor returns the orders visible to the actor: their own orders
// for buyers, orders containing at least one of their line items for
// vendors, and everything for admins.
func (s *Service) ListForActor(ctx context.Context, actor auth.Actor) ([]Order, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.orders.ListAll(ctx)
	case auth.RoleVendor:
		return s.orders.ListByVendor(ctx, actor.ID)
	default:
		return s.orders.ListByBuyer(ctx, actor.ID)
	}
}

// dispatch sends a notification and logs failures. Notification delivery is
// best-effort: an error here never surfaces to the caller and never rolls
// back the operation that triggered it.
func (s *Service) dispatch(ctx context.Context, msg notify.Message) {
	if msg.To == "" {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.lg.Warn("notification dispatch failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}
