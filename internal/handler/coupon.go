package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/domain/coupon"
)

type couponResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Kind      string    `json:"kind"`
	Value     float64   `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
	Active    bool      `json:"active"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{
		ID:        c.ID,
		Code:      c.Code,
		Kind:      string(c.Kind),
		Value:     c.Value.InexactFloat64(),
		ExpiresAt: c.ExpiresAt,
		Active:    c.Active,
	}
}

// CreateCoupon creates a new coupon rule. Admin only.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code      string    `json:"code"`
		Kind      string    `json:"kind"`
		Value     string    `json:"value"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a decimal string")
		return
	}

	c, err := h.coupons.Create(r.Context(), coupon.CreateRequest{
		Code:      req.Code,
		Kind:      coupon.Kind(req.Kind),
		Value:     value,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(*c))
}

// ListCoupons returns all coupon rules. Admin only.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		out[i] = toCouponResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// ToggleCoupon flips a coupon's active flag. Admin only.
func (h *Handler) ToggleCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(*c))
}
