//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestCatalog(t *testing.T) {
	resp := do(t, http.MethodGet, "/api/products", nil, "")
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}

	one := do(t, http.MethodGet, "/api/products/p2", nil, "")
	defer one.Body.Close()
	wantStatus(t, one, http.StatusOK)

	mug := decodeJSON[productResponse](t, one)
	if mug.Name != "Ceramic Mug" || mug.Price != 14.50 {
		t.Errorf("unexpected product: %+v", mug)
	}

	missing := do(t, http.MethodGet, "/api/products/nope", nil, "")
	defer missing.Body.Close()
	wantStatus(t, missing, http.StatusNotFound)
}

func TestCart_RequiresAuth(t *testing.T) {
	resp := do(t, http.MethodGet, "/api/cart", nil, "")
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusUnauthorized)

	bad := do(t, http.MethodGet, "/api/cart", nil, "wrong-key")
	defer bad.Body.Close()
	wantStatus(t, bad, http.StatusUnauthorized)
}

// TestCheckoutLifecycle runs the full buyer journey in order: build a cart,
// apply a coupon, check out, then walk the order through the vendor and
// payment gates to Delivered.
func TestCheckoutLifecycle(t *testing.T) {
	var orderID string

	t.Run("empty cart reads as zeros", func(t *testing.T) {
		resp := do(t, http.MethodGet, "/api/cart", nil, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusOK)

		cart := decodeJSON[cartResponse](t, resp)
		if len(cart.Items) != 0 {
			t.Fatalf("expected empty cart, got %d items", len(cart.Items))
		}
		if cart.Totals.Subtotal != 0 {
			t.Errorf("subtotal: got %v, want 0", cart.Totals.Subtotal)
		}
	})

	t.Run("add items", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/cart/items",
			map[string]any{"productId": "p2", "quantity": 2}, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusOK)

		// 2 x 14.50 = 29.00; shipping 10; tax 15% of 29.00 = 4.35.
		cart := decodeJSON[cartResponse](t, resp)
		if cart.Totals.Subtotal != 29.00 {
			t.Errorf("subtotal: got %v, want 29.00", cart.Totals.Subtotal)
		}
		if cart.Totals.Shipping != 10 {
			t.Errorf("shipping: got %v, want 10", cart.Totals.Shipping)
		}
		if cart.Totals.Tax != 4.35 {
			t.Errorf("tax: got %v, want 4.35", cart.Totals.Tax)
		}
		if cart.Totals.Total != 43.35 {
			t.Errorf("total: got %v, want 43.35", cart.Totals.Total)
		}
	})

	t.Run("unknown product rejected", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/cart/items",
			map[string]any{"productId": "nope", "quantity": 1}, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusNotFound)
	})

	t.Run("apply coupon", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/cart/coupon",
			map[string]any{"code": "welcome10"}, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusOK)

		// Code is canonicalized to uppercase; 10% of 29.00 = 2.90;
		// tax 15% of 26.10 = 3.92; total 29.00 - 2.90 + 10 + 3.92 = 40.02.
		cart := decodeJSON[cartResponse](t, resp)
		if cart.CouponCode != "WELCOME10" {
			t.Errorf("coupon code: got %q, want WELCOME10", cart.CouponCode)
		}
		if cart.Totals.Discount != 2.90 {
			t.Errorf("discount: got %v, want 2.90", cart.Totals.Discount)
		}
		if cart.Totals.Tax != 3.92 {
			t.Errorf("tax: got %v, want 3.92", cart.Totals.Tax)
		}
		if cart.Totals.Total != 40.02 {
			t.Errorf("total: got %v, want 40.02", cart.Totals.Total)
		}
	})

	t.Run("unknown coupon clears the applied one", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/cart/coupon",
			map[string]any{"code": "NOSUCHCODE"}, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusNotFound)

		check := do(t, http.MethodGet, "/api/cart", nil, buyerKey)
		defer check.Body.Close()
		cart := decodeJSON[cartResponse](t, check)
		if cart.CouponCode != "" {
			t.Errorf("coupon should be cleared, got %q", cart.CouponCode)
		}

		// Reapply for the checkout below.
		again := do(t, http.MethodPost, "/api/cart/coupon",
			map[string]any{"code": "WELCOME10"}, buyerKey)
		defer again.Body.Close()
		wantStatus(t, again, http.StatusOK)
	})

	t.Run("shipping address and payment method", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/cart/shipping", map[string]any{
			"line1":      "12 Harbour Lane",
			"city":       "Wellington",
			"postalCode": "6011",
			"country":    "NZ",
			"phone":      "+64 21 000 000",
		}, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusOK)

		pay := do(t, http.MethodPut, "/api/cart/payment",
			map[string]any{"method": "card"}, buyerKey)
		defer pay.Body.Close()
		wantStatus(t, pay, http.StatusOK)
	})

	t.Run("checkout freezes totals and clears cart", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/orders", nil, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusCreated)

		order := decodeJSON[orderResponse](t, resp)
		if !uuidPattern.MatchString(order.ID) {
			t.Errorf("order ID %q is not a valid UUID", order.ID)
		}
		if order.Status != "Processing" {
			t.Errorf("status: got %q, want Processing", order.Status)
		}
		if order.Totals.Total != 40.02 {
			t.Errorf("total: got %v, want 40.02", order.Totals.Total)
		}
		if order.CouponCode != "WELCOME10" {
			t.Errorf("coupon code: got %q, want WELCOME10", order.CouponCode)
		}
		if len(order.Items) != 1 || order.Items[0].VendorID != "seed-vendor" {
			t.Fatalf("unexpected items: %+v", order.Items)
		}
		orderID = order.ID

		cartResp := do(t, http.MethodGet, "/api/cart", nil, buyerKey)
		defer cartResp.Body.Close()
		cart := decodeJSON[cartResponse](t, cartResp)
		if len(cart.Items) != 0 {
			t.Errorf("cart should be empty after checkout, has %d items", len(cart.Items))
		}
	})

	t.Run("empty cart cannot check out", func(t *testing.T) {
		resp := do(t, http.MethodPost, "/api/orders", nil, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("buyer cannot advance status", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/orders/"+orderID+"/status",
			map[string]any{"status": "Shipped"}, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusForbidden)
	})

	t.Run("vendor ships", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/orders/"+orderID+"/status",
			map[string]any{"status": "Shipped"}, vendorKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusOK)

		order := decodeJSON[orderResponse](t, resp)
		if order.Status != "Shipped" {
			t.Errorf("status: got %q, want Shipped", order.Status)
		}
	})

	t.Run("unpaid order cannot be delivered", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/orders/"+orderID+"/status",
			map[string]any{"status": "Delivered"}, vendorKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusConflict)
	})

	t.Run("buyer pays", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/orders/"+orderID+"/pay", nil, buyerKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusOK)

		order := decodeJSON[orderResponse](t, resp)
		if !order.IsPaid {
			t.Error("order should be paid")
		}
	})

	t.Run("vendor delivers", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/orders/"+orderID+"/status",
			map[string]any{"status": "Delivered"}, vendorKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusOK)

		order := decodeJSON[orderResponse](t, resp)
		if order.Status != "Delivered" {
			t.Errorf("status: got %q, want Delivered", order.Status)
		}
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		resp := do(t, http.MethodPut, "/api/orders/"+orderID+"/status",
			map[string]any{"status": "Cancelled"}, adminKey)
		defer resp.Body.Close()
		wantStatus(t, resp, http.StatusConflict)
	})

	t.Run("order visibility", func(t *testing.T) {
		buyerList := do(t, http.MethodGet, "/api/orders", nil, buyerKey)
		defer buyerList.Body.Close()
		wantStatus(t, buyerList, http.StatusOK)
		if orders := decodeJSON[[]orderResponse](t, buyerList); len(orders) == 0 {
			t.Error("buyer should see their order")
		}

		vendorGet := do(t, http.MethodGet, "/api/orders/"+orderID, nil, vendorKey)
		defer vendorGet.Body.Close()
		wantStatus(t, vendorGet, http.StatusOK)
	})
}

func TestFreeShippingThreshold(t *testing.T) {
	resp := do(t, http.MethodPut, "/api/cart/items",
		map[string]any{"productId": "p1", "quantity": 1}, adminKey)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	// 120.00 > 100, so shipping is waived on the undiscounted subtotal.
	cart := decodeJSON[cartResponse](t, resp)
	if cart.Totals.Shipping != 0 {
		t.Errorf("shipping: got %v, want 0", cart.Totals.Shipping)
	}

	clear := do(t, http.MethodDelete, "/api/cart/items/p1", nil, adminKey)
	defer clear.Body.Close()
	wantStatus(t, clear, http.StatusOK)
}
