package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/shopsphere/storefront/internal/domain/order"
)

type orderItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	VendorID  string  `json:"vendorId"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Variant   string  `json:"variant,omitempty"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	BuyerID         string              `json:"buyerId"`
	Items           []orderItemResponse `json:"items"`
	ShippingAddress order.Address       `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
	CouponCode      string              `json:"couponCode,omitempty"`
	Totals          totalsResponse      `json:"totals"`
	Status          string              `json:"status"`
	IsPaid          bool                `json:"isPaid"`
	PaidAt          *time.Time          `json:"paidAt,omitempty"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			VendorID:  item.VendorID,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		}
	}
	return orderResponse{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		CouponCode:      o.CouponCode,
		Totals:          toTotalsResponse(o.Pricing),
		Status:          string(o.Status),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}

// Checkout converts the actor's cart into an order. The cart view supplies
// the line items, coupon and totals; the totals are frozen onto the order
// exactly as the cart rendered them. The cart is cleared once the order is
// persisted.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	view, err := h.carts.View(r.Context(), actor.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if len(view.Cart.Items) == 0 {
		writeDomainError(w, r, order.ErrEmptyOrder)
		return
	}

	req := order.CreateRequest{
		Buyer:           actor,
		Items:           view.Cart.PricingItems(),
		ShippingAddress: view.Cart.ShippingAddress,
		PaymentMethod:   view.Cart.PaymentMethod,
		Totals:          view.Totals,
	}
	if view.Cart.Coupon != nil {
		req.CouponCode = view.Cart.Coupon.Code
	}

	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// The order is the durable fact; a cart left behind is an annoyance,
	// not a failure of checkout.
	if err := h.carts.Clear(r.Context(), actor.ID); err != nil {
		zctx.From(r.Context()).Warn("clear cart after checkout", zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListOrders returns the orders visible to the actor.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListForActor(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrder returns a single order, restricted to its buyer, a vendor with a
// line item in it, or an admin.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// UpdateOrderStatus moves an order through the status state machine.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Transition(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status), actor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// MarkOrderPaid records a successful payment on the order.
func (h *Handler) MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	o, err := h.orders.MarkPaid(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
