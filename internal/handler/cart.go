package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopsphere/storefront/internal/domain/cart"
	"github.com/shopsphere/storefront/internal/domain/order"
	"github.com/shopsphere/storefront/internal/domain/pricing"
)

type cartItemResponse struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Variant   string  `json:"variant,omitempty"`
}

type totalsResponse struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type cartResponse struct {
	Items           []cartItemResponse `json:"items"`
	ShippingAddress order.Address      `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	CouponCode      string             `json:"couponCode,omitempty"`
	Totals          totalsResponse     `json:"totals"`
}

func toTotalsResponse(t pricing.Totals) totalsResponse {
	return totalsResponse{
		Subtotal: t.Subtotal.InexactFloat64(),
		Discount: t.Discount.InexactFloat64(),
		Shipping: t.Shipping.InexactFloat64(),
		Tax:      t.Tax.InexactFloat64(),
		Total:    t.Total.InexactFloat64(),
	}
}

func toCartResponse(v *cart.View) cartResponse {
	items := make([]cartItemResponse, len(v.Cart.Items))
	for i, item := range v.Cart.Items {
		items[i] = cartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		}
	}

	resp := cartResponse{
		Items:           items,
		ShippingAddress: v.Cart.ShippingAddress,
		PaymentMethod:   v.Cart.PaymentMethod,
		Totals:          toTotalsResponse(v.Totals),
	}
	if v.Cart.Coupon != nil {
		resp.CouponCode = v.Cart.Coupon.Code
	}
	return resp
}

// respondWithCart re-reads the cart view so every cart mutation returns the
// same shape the GET endpoint does, with fresh totals.
func (h *Handler) respondWithCart(w http.ResponseWriter, r *http.Request, buyerID string) {
	view, err := h.carts.View(r.Context(), buyerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

// GetCart returns the actor's cart with derived totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	h.respondWithCart(w, r, actor.ID)
}

// SetCartItem adds or replaces a cart line.
func (h *Handler) SetCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID string `json:"productId"`
		Variant   string `json:"variant"`
		Quantity  int    `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "productId and a positive quantity are required")
		return
	}

	if _, err := h.carts.SetItem(r.Context(), actor.ID, req.ProductID, req.Variant, req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.respondWithCart(w, r, actor.ID)
}

// RemoveCartItem deletes a product from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	if _, err := h.carts.RemoveItem(r.Context(), actor.ID, chi.URLParam(r, "productID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.respondWithCart(w, r, actor.ID)
}

// SetShippingAddress stores the shipping destination on the cart.
func (h *Handler) SetShippingAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var addr order.Address
	if !decodeBody(w, r, &addr) {
		return
	}

	if _, err := h.carts.SetShippingAddress(r.Context(), actor.ID, addr); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.respondWithCart(w, r, actor.ID)
}

// SetPaymentMethod stores the payment method selection on the cart.
func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Method string `json:"method"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required")
		return
	}

	if _, err := h.carts.SetPaymentMethod(r.Context(), actor.ID, req.Method); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.respondWithCart(w, r, actor.ID)
}

// ApplyCoupon validates the code and applies it to the cart. A failing code
// clears any previously applied coupon before the error is returned.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	if _, err := h.carts.ApplyCoupon(r.Context(), actor.ID, req.Code); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.respondWithCart(w, r, actor.ID)
}

// RemoveCoupon clears the applied coupon from the cart.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	if _, err := h.carts.RemoveCoupon(r.Context(), actor.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.respondWithCart(w, r, actor.ID)
}
