package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shopsphere/storefront/internal/domain/auth"
	"github.com/shopsphere/storefront/internal/domain/pricing"
	"github.com/shopsphere/storefront/internal/domain/product"
	"github.com/shopsphere/storefront/internal/notify"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID      map[string]*Order
	created   *Order
	createErr error
	updateErr error
	updates   int
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	if m.byID == nil {
		m.byID = map[string]*Order{}
	}
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) ListByBuyer(_ context.Context, buyerID string) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListByVendor(_ context.Context, vendorID string) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.HasVendor(vendorID) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]Order, error) {
	out := make([]Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, nil
}

type mockProductRepo struct {
	byID map[string]product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockNotifier struct {
	sent []notify.Message
	err  error
}

func (m *mockNotifier) Send(_ context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func catalog() *mockProductRepo {
	return &mockProductRepo{byID: map[string]product.Product{
		"p1": {ID: "p1", Name: "Widget", Price: dec("20.00"), VendorID: "vendor-1"},
		"p2": {ID: "p2", Name: "Gadget", Price: dec("15.00"), VendorID: "vendor-2"},
	}}
}

func testTotals() pricing.Totals {
	return pricing.Totals{
		Subtotal: dec("50.00"),
		Discount: dec("0"),
		Shipping: dec("10"),
		Tax:      dec("7.50"),
		Total:    dec("67.50"),
	}
}

func buyer() auth.Actor {
	return auth.Actor{ID: "buyer-1", Role: auth.RoleBuyer, Name: "Asha", Email: "asha@example.com"}
}

func newTestService(t *testing.T, repo *mockOrderRepo, notifier *mockNotifier) *Service {
	t.Helper()
	svc := NewService(repo, catalog(), notifier, zaptest.NewLogger(t))
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func createRequest() CreateRequest {
	return CreateRequest{
		Buyer: buyer(),
		Items: []pricing.Item{
			{ProductID: "p1", UnitPrice: dec("20.00"), Quantity: 1},
			{ProductID: "p2", UnitPrice: dec("15.00"), Quantity: 2},
		},
		ShippingAddress: Address{Line1: "1 Main St", City: "Pune", PostalCode: "411001", Country: "IN", Phone: "+911234567890"},
		PaymentMethod:   "card",
		Totals:          testTotals(),
	}
}

// --- Create ---

func TestCreate_EmptyItems(t *testing.T) {
	svc := newTestService(t, &mockOrderRepo{}, &mockNotifier{})

	_, err := svc.Create(context.Background(), CreateRequest{Buyer: buyer()})
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreate_StampsVendorsAndFreezesTotals(t *testing.T) {
	repo := &mockOrderRepo{}
	notifier := &mockNotifier{}
	svc := newTestService(t, repo, notifier)

	o, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	require.NotNil(t, repo.created)

	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, "vendor-1", o.Items[0].VendorID)
	assert.Equal(t, "vendor-2", o.Items[1].VendorID)
	assert.True(t, dec("67.50").Equal(o.Pricing.Total))
	assert.True(t, dec("50.00").Equal(o.Pricing.Subtotal))
	assert.False(t, o.IsPaid)
	assert.Nil(t, o.DeliveredAt)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "asha@example.com", notifier.sent[0].To)
	assert.Contains(t, notifier.sent[0].Subject, "confirmed")
}

func TestCreate_UnknownProduct(t *testing.T) {
	svc := newTestService(t, &mockOrderRepo{}, &mockNotifier{})

	req := createRequest()
	req.Items = append(req.Items, pricing.Item{ProductID: "missing", UnitPrice: dec("1"), Quantity: 1})

	_, err := svc.Create(context.Background(), req)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestCreate_NotificationFailureDoesNotFailOrder(t *testing.T) {
	repo := &mockOrderRepo{}
	notifier := &mockNotifier{err: errors.New("smtp down")}
	svc := newTestService(t, repo, notifier)

	o, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	assert.NotNil(t, repo.byID[o.ID], "order must persist despite the failed email")
}

// --- Transition ---

func shippedOrderRepo(paid bool) *mockOrderRepo {
	o := &Order{
		ID:      "o1",
		BuyerID: "buyer-1",
		Items: []LineItem{
			{ProductID: "p1", VendorID: "vendor-1", Quantity: 1},
			{ProductID: "p2", VendorID: "vendor-2", Quantity: 2},
		},
		BuyerEmail: "asha@example.com",
		Status:     StatusProcessing,
		IsPaid:     paid,
		Version:    1,
	}
	return &mockOrderRepo{byID: map[string]*Order{"o1": o}}
}

func TestTransition_AuthorizationMatrix(t *testing.T) {
	tests := []struct {
		name    string
		actor   auth.Actor
		wantErr error
	}{
		{"admin allowed", auth.Actor{ID: "root", Role: auth.RoleAdmin}, nil},
		{"owning vendor allowed", auth.Actor{ID: "vendor-1", Role: auth.RoleVendor}, nil},
		{"unrelated vendor denied", auth.Actor{ID: "vendor-9", Role: auth.RoleVendor}, ErrUnauthorized},
		{"owning buyer denied", auth.Actor{ID: "buyer-1", Role: auth.RoleBuyer}, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, shippedOrderRepo(false), &mockNotifier{})

			got, err := svc.Transition(context.Background(), "o1", StatusShipped, tt.actor)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusShipped, got.Status)
		})
	}
}

func TestTransition_UnknownOrder(t *testing.T) {
	svc := newTestService(t, &mockOrderRepo{}, &mockNotifier{})

	_, err := svc.Transition(context.Background(), "nope", StatusShipped, auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_IllegalEdgeRejected(t *testing.T) {
	svc := newTestService(t, shippedOrderRepo(true), &mockNotifier{})
	admin := auth.Actor{ID: "root", Role: auth.RoleAdmin}

	// Processing -> Delivered skips Shipped.
	_, err := svc.Transition(context.Background(), "o1", StatusDelivered, admin)

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusProcessing, itErr.From)
	assert.Equal(t, StatusDelivered, itErr.To)
}

func TestTransition_UnknownStatusRejected(t *testing.T) {
	svc := newTestService(t, shippedOrderRepo(true), &mockNotifier{})

	_, err := svc.Transition(context.Background(), "o1", Status("Refunded"), auth.Actor{ID: "root", Role: auth.RoleAdmin})

	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
}

func TestTransition_ShippedSendsNotification(t *testing.T) {
	notifier := &mockNotifier{}
	svc := newTestService(t, shippedOrderRepo(false), notifier)

	_, err := svc.Transition(context.Background(), "o1", StatusShipped, auth.Actor{ID: "vendor-1", Role: auth.RoleVendor})
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].Subject, "shipped")
}

func TestTransition_ShipmentNotificationFailureIsSwallowed(t *testing.T) {
	repo := shippedOrderRepo(false)
	svc := newTestService(t, repo, &mockNotifier{err: errors.New("smtp down")})

	got, err := svc.Transition(context.Background(), "o1", StatusShipped, auth.Actor{ID: "vendor-1", Role: auth.RoleVendor})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, got.Status)
	assert.Equal(t, StatusShipped, repo.byID["o1"].Status)
}

func TestTransition_DeliveredRequiresPaid(t *testing.T) {
	repo := shippedOrderRepo(false)
	repo.byID["o1"].Status = StatusShipped
	svc := newTestService(t, repo, &mockNotifier{})

	_, err := svc.Transition(context.Background(), "o1", StatusDelivered, auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.ErrorIs(t, err, ErrNotPaid)
}

func TestTransition_DeliveredStampsTimestamp(t *testing.T) {
	repo := shippedOrderRepo(true)
	repo.byID["o1"].Status = StatusShipped
	svc := newTestService(t, repo, &mockNotifier{})

	got, err := svc.Transition(context.Background(), "o1", StatusDelivered, auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, got.Status)
	require.NotNil(t, got.DeliveredAt)
	assert.Equal(t, 2025, got.DeliveredAt.Year())
}

func TestTransition_CancelDoesNotRequirePayment(t *testing.T) {
	svc := newTestService(t, shippedOrderRepo(false), &mockNotifier{})

	got, err := svc.Transition(context.Background(), "o1", StatusCancelled, auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestTransition_ConflictSurfaced(t *testing.T) {
	repo := shippedOrderRepo(false)
	repo.updateErr = ErrConflict
	svc := newTestService(t, repo, &mockNotifier{})

	_, err := svc.Transition(context.Background(), "o1", StatusShipped, auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.ErrorIs(t, err, ErrConflict)
}

// --- MarkPaid ---

func TestMarkPaid(t *testing.T) {
	repo := shippedOrderRepo(false)
	svc := newTestService(t, repo, &mockNotifier{})

	got, err := svc.MarkPaid(context.Background(), "o1", buyer())
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaidAt)

	// Idempotent: a second call changes nothing.
	updates := repo.updates
	_, err = svc.MarkPaid(context.Background(), "o1", buyer())
	require.NoError(t, err)
	assert.Equal(t, updates, repo.updates)
}

func TestMarkPaid_OtherBuyerDenied(t *testing.T) {
	svc := newTestService(t, shippedOrderRepo(false), &mockNotifier{})

	_, err := svc.MarkPaid(context.Background(), "o1", auth.Actor{ID: "buyer-2", Role: auth.RoleBuyer})
	require.ErrorIs(t, err, ErrUnauthorized)
}

// --- Reads ---

func TestGet_Authorization(t *testing.T) {
	svc := newTestService(t, shippedOrderRepo(false), &mockNotifier{})

	_, err := svc.Get(context.Background(), "o1", buyer())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "o1", auth.Actor{ID: "buyer-2", Role: auth.RoleBuyer})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestListForActor(t *testing.T) {
	repo := &mockOrderRepo{byID: map[string]*Order{
		"o1": {ID: "o1", BuyerID: "buyer-1", Items: []LineItem{{VendorID: "vendor-1"}}},
		"o2": {ID: "o2", BuyerID: "buyer-2", Items: []LineItem{{VendorID: "vendor-2"}}},
		"o3": {ID: "o3", BuyerID: "buyer-1", Items: []LineItem{{VendorID: "vendor-2"}}},
	}}
	svc := newTestService(t, repo, &mockNotifier{})

	mine, err := svc.ListForActor(context.Background(), buyer())
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	sales, err := svc.ListForActor(context.Background(), auth.Actor{ID: "vendor-2", Role: auth.RoleVendor})
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	all, err := svc.ListForActor(context.Background(), auth.Actor{ID: "root", Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// --- Freezing ---

func TestCreate_FrozenTotalsSurviveCouponChanges(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(t, repo, &mockNotifier{})

	req := createRequest()
	req.CouponCode = "SAVE10"
	req.Totals = pricing.Totals{
		Subtotal: dec("50.00"),
		Discount: dec("5.00"),
		Shipping: dec("10"),
		Tax:      dec("6.75"),
		Total:    dec("61.75"),
	}

	o, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	// Mutating the request totals afterwards must not reach the stored order.
	req.Totals.Discount = dec("99.00")

	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, dec("5.00").Equal(stored.Pricing.Discount))
	assert.True(t, dec("61.75").Equal(stored.Pricing.Total))
}
