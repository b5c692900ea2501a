package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopsphere/storefront/internal/domain/order"
)

const (
	orderColumns = `id, buyer_id, buyer_name, buyer_email, items, shipping,
		payment_method, coupon_code, subtotal, discount, shipping_fee, tax, total,
		status, is_paid, paid_at, delivered_at, version, created_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	// The version predicate implements the optimistic concurrency check:
	// a concurrent writer bumps version, and the losing update matches no rows.
	updateOrderSQL = `UPDATE orders
		SET status = $2, is_paid = $3, paid_at = $4, delivered_at = $5, version = version + 1
		WHERE id = $1 AND version = $6`

	listOrdersByBuyerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE buyer_id = $1 ORDER BY created_at DESC`

	listOrdersByVendorSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(items) item
			WHERE item->>'vendorId' = $1
		)
		ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items and the shipping address are stored as JSONB; the frozen pricing
// fields live in dedicated NUMERIC columns so reporting queries never parse
// JSON.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	shippingJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.BuyerID, o.BuyerName, o.BuyerEmail, itemsJSON, shippingJSON,
		o.PaymentMethod, o.CouponCode,
		o.Pricing.Subtotal, o.Pricing.Discount, o.Pricing.Shipping, o.Pricing.Tax, o.Pricing.Total,
		string(o.Status), o.IsPaid, o.PaidAt, o.DeliveredAt, o.Version, o.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// Get returns a single order by ID, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

// Update persists the mutable order fields under an optimistic version
// check. When the stored version differs from o.Version the update matches
// no rows and order.ErrConflict is returned; the caller re-reads and
// retries. On success o.Version is advanced to match the store.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, string(o.Status), o.IsPaid, o.PaidAt, o.DeliveredAt, o.Version)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		// Either the order vanished or a concurrent transition won the race.
		if _, getErr := r.Get(ctx, o.ID); getErr != nil {
			return getErr
		}
		return order.ErrConflict
	}
	o.Version++
	return nil
}

// ListByBuyer returns the buyer's order history, newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByBuyerSQL, buyerID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by buyer")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByVendor returns orders containing at least one line item owned by
// the vendor, newest first. The vendor reference is denormalized onto each
// line item at creation, so no catalog join is needed.
func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByVendorSQL, vendorID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by vendor")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list all orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o            order.Order
		itemsJSON    []byte
		shippingJSON []byte
		status       string
	)
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.BuyerName, &o.BuyerEmail, &itemsJSON, &shippingJSON,
		&o.PaymentMethod, &o.CouponCode,
		&o.Pricing.Subtotal, &o.Pricing.Discount, &o.Pricing.Shipping, &o.Pricing.Tax, &o.Pricing.Total,
		&status, &o.IsPaid, &o.PaidAt, &o.DeliveredAt, &o.Version, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	o.Status = order.Status(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, errors.Wrap(err, "unmarshal order items")
	}
	if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
		return o, errors.Wrap(err, "unmarshal shipping address")
	}
	return o, nil
}
