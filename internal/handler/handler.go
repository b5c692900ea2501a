// Package handler exposes the storefront core over HTTP. Routes are wired
// with chi; request and response bodies are plain JSON.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopsphere/storefront/internal/domain/auth"
	"github.com/shopsphere/storefront/internal/domain/cart"
	"github.com/shopsphere/storefront/internal/domain/coupon"
	"github.com/shopsphere/storefront/internal/domain/order"
	"github.com/shopsphere/storefront/internal/domain/product"
)

// Handler holds the domain services behind the HTTP API.
type Handler struct {
	products product.Repository
	carts    *cart.Service
	coupons  *coupon.Service
	orders   *order.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	products product.Repository,
	carts *cart.Service,
	coupons *coupon.Service,
	orders *order.Service,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		coupons:  coupons,
		orders:   orders,
	}
}

// Routes builds the API router. The catalog read path is public; everything
// else requires an authenticated actor, and coupon administration requires
// the admin role.
func (h *Handler) Routes(a *Authenticator) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(a.Authenticate)

			r.Get("/cart", h.GetCart)
			r.Put("/cart/items", h.SetCartItem)
			r.Delete("/cart/items/{productID}", h.RemoveCartItem)
			r.Put("/cart/shipping", h.SetShippingAddress)
			r.Put("/cart/payment", h.SetPaymentMethod)
			r.Post("/cart/coupon", h.ApplyCoupon)
			r.Delete("/cart/coupon", h.RemoveCoupon)

			r.Post("/orders", h.Checkout)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Put("/orders/{id}/status", h.UpdateOrderStatus)
			r.Put("/orders/{id}/pay", h.MarkOrderPaid)

			r.Route("/coupons", func(r chi.Router) {
				r.Use(RequireRole(auth.RoleAdmin))
				r.Post("/", h.CreateCoupon)
				r.Get("/", h.ListCoupons)
				r.Put("/{id}/toggle", h.ToggleCoupon)
			})
		})
	})

	return r
}
