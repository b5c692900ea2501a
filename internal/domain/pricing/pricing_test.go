package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsphere/storefront/internal/domain/coupon"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func percentCoupon(value string) *coupon.Coupon {
	return &coupon.Coupon{
		Code:      "TEST",
		Kind:      coupon.KindPercentage,
		Value:     dec(value),
		ExpiresAt: time.Now().Add(time.Hour),
		Active:    true,
	}
}

func fixedCoupon(value string) *coupon.Coupon {
	return &coupon.Coupon{
		Code:      "TEST",
		Kind:      coupon.KindFixed,
		Value:     dec(value),
		ExpiresAt: time.Now().Add(time.Hour),
		Active:    true,
	}
}

func assertTotals(t *testing.T, want, got Totals) {
	t.Helper()
	assert.True(t, want.Subtotal.Equal(got.Subtotal), "subtotal: want %s, got %s", want.Subtotal, got.Subtotal)
	assert.True(t, want.Discount.Equal(got.Discount), "discount: want %s, got %s", want.Discount, got.Discount)
	assert.True(t, want.Shipping.Equal(got.Shipping), "shipping: want %s, got %s", want.Shipping, got.Shipping)
	assert.True(t, want.Tax.Equal(got.Tax), "tax: want %s, got %s", want.Tax, got.Tax)
	assert.True(t, want.Total.Equal(got.Total), "total: want %s, got %s", want.Total, got.Total)
}

func TestComputeTotals(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name   string
		items  []Item
		coupon *coupon.Coupon
		want   Totals
	}{
		{
			name:  "empty cart",
			items: nil,
			want: Totals{
				Subtotal: dec("0"),
				Discount: dec("0"),
				Shipping: dec("10"),
				Tax:      dec("0"),
				Total:    dec("10.00"),
			},
		},
		{
			name: "two items no coupon",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("20.00"), Quantity: 1},
				{ProductID: "p2", UnitPrice: dec("15.00"), Quantity: 2},
			},
			want: Totals{
				Subtotal: dec("50.00"),
				Discount: dec("0"),
				Shipping: dec("10"),
				Tax:      dec("7.50"),
				Total:    dec("67.50"),
			},
		},
		{
			// Tax must be computed on the discounted base, and the discount
			// rounded before the tax. Taxing the raw subtotal would give
			// tax 5.00 and total 45.00 here, which is wrong.
			name: "percentage coupon taxes discounted base",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("33.33"), Quantity: 1},
			},
			coupon: percentCoupon("10"),
			want: Totals{
				Subtotal: dec("33.33"),
				Discount: dec("3.33"),
				Shipping: dec("10"),
				Tax:      dec("4.50"),
				Total:    dec("44.50"),
			},
		},
		{
			name: "fixed coupon capped at subtotal",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("50.00"), Quantity: 1},
			},
			coupon: fixedCoupon("500"),
			want: Totals{
				Subtotal: dec("50.00"),
				Discount: dec("50.00"),
				Shipping: dec("10"),
				Tax:      dec("0.00"),
				Total:    dec("10.00"),
			},
		},
		{
			name: "fixed coupon over subtotal on multi item cart",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("20.00"), Quantity: 1},
				{ProductID: "p2", UnitPrice: dec("15.00"), Quantity: 2},
			},
			coupon: fixedCoupon("60"),
			want: Totals{
				Subtotal: dec("50.00"),
				Discount: dec("50.00"),
				Shipping: dec("10"),
				Tax:      dec("0.00"),
				Total:    dec("10.00"),
			},
		},
		{
			name: "free shipping above threshold",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("101.00"), Quantity: 1},
			},
			want: Totals{
				Subtotal: dec("101.00"),
				Discount: dec("0"),
				Shipping: dec("0"),
				Tax:      dec("15.15"),
				Total:    dec("116.15"),
			},
		},
		{
			name: "subtotal exactly at threshold still pays shipping",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("100.00"), Quantity: 1},
			},
			want: Totals{
				Subtotal: dec("100.00"),
				Discount: dec("0"),
				Shipping: dec("10"),
				Tax:      dec("15.00"),
				Total:    dec("125.00"),
			},
		},
		{
			// Shipping is decided on the undiscounted subtotal: a coupon
			// dropping the cart below the threshold does not bring the flat
			// fee back.
			name: "shipping decided before discount",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("120.00"), Quantity: 1},
			},
			coupon: fixedCoupon("50"),
			want: Totals{
				Subtotal: dec("120.00"),
				Discount: dec("50.00"),
				Shipping: dec("0"),
				Tax:      dec("10.50"),
				Total:    dec("80.50"),
			},
		},
		{
			name: "subtotal rounded once over the aggregate",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("0.333"), Quantity: 3},
			},
			want: Totals{
				Subtotal: dec("1.00"),
				Discount: dec("0"),
				Shipping: dec("10"),
				Tax:      dec("0.15"),
				Total:    dec("11.15"),
			},
		},
		{
			name: "negative price and quantity treated as zero",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("-5.00"), Quantity: 2},
				{ProductID: "p2", UnitPrice: dec("10.00"), Quantity: -1},
				{ProductID: "p3", UnitPrice: dec("30.00"), Quantity: 1},
			},
			want: Totals{
				Subtotal: dec("30.00"),
				Discount: dec("0"),
				Shipping: dec("10"),
				Tax:      dec("4.50"),
				Total:    dec("44.50"),
			},
		},
		{
			name: "hundred percent coupon zeroes the taxable base",
			items: []Item{
				{ProductID: "p1", UnitPrice: dec("42.00"), Quantity: 1},
			},
			coupon: percentCoupon("100"),
			want: Totals{
				Subtotal: dec("42.00"),
				Discount: dec("42.00"),
				Shipping: dec("10"),
				Tax:      dec("0.00"),
				Total:    dec("10.00"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, tt.coupon, cfg)
			assertTotals(t, tt.want, got)
		})
	}
}

func TestComputeTotals_Idempotent(t *testing.T) {
	cfg := DefaultConfig()
	items := []Item{
		{ProductID: "p1", UnitPrice: dec("33.33"), Quantity: 1},
		{ProductID: "p2", UnitPrice: dec("12.49"), Quantity: 3},
	}
	c := percentCoupon("10")

	first := ComputeTotals(items, c, cfg)
	second := ComputeTotals(items, c, cfg)

	require.Equal(t, first.Subtotal.String(), second.Subtotal.String())
	require.Equal(t, first.Discount.String(), second.Discount.String())
	require.Equal(t, first.Shipping.String(), second.Shipping.String())
	require.Equal(t, first.Tax.String(), second.Tax.String())
	require.Equal(t, first.Total.String(), second.Total.String())
}

func TestComputeTotals_UnknownKindIgnored(t *testing.T) {
	cfg := DefaultConfig()
	c := &coupon.Coupon{Code: "ODD", Kind: coupon.Kind("BOGO"), Value: dec("10")}

	got := ComputeTotals([]Item{{ProductID: "p1", UnitPrice: dec("50.00"), Quantity: 1}}, c, cfg)
	assert.True(t, got.Discount.IsZero(), "unknown kinds must not discount, got %s", got.Discount)
}
