package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopsphere/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, kind, value, expires_at, active, created_at
		FROM coupons WHERE code = UPPER($1)`

	getCouponByIDSQL = `SELECT id, code, kind, value, expires_at, active, created_at
		FROM coupons WHERE id = $1`

	createCouponSQL = `INSERT INTO coupons (id, code, kind, value, expires_at, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listCouponsSQL = `SELECT id, code, kind, value, expires_at, active, created_at
		FROM coupons ORDER BY created_at DESC`

	setCouponActiveSQL = `UPDATE coupons SET active = $2 WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitively. Returns
// coupon.ErrNotFound when no coupon exists for the code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon by code %q", code)
	}
	return collectCoupon(rows)
}

// FindByID looks up a coupon by its identifier.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", id)
	}
	return collectCoupon(rows)
}

// Create persists a new coupon rule. A unique violation on the code column
// is translated to coupon.ErrDuplicateCode.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.ID, c.Code, string(c.Kind), c.Value, c.ExpiresAt, c.Active, c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return coupon.ErrDuplicateCode
		}
		return errors.Wrapf(err, "create coupon %q", c.Code)
	}
	return nil
}

// List returns all coupon rules, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// SetActive updates the active flag of a coupon.
func (r *CouponRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, setCouponActiveSQL, id, active)
	if err != nil {
		return errors.Wrapf(err, "set coupon %q active", id)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func collectCoupon(rows pgx.Rows) (*coupon.Coupon, error) {
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrap(err, "scan coupon")
	}
	return &c, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c    coupon.Coupon
		kind string
	)
	err := row.Scan(&c.ID, &c.Code, &kind, &c.Value, &c.ExpiresAt, &c.Active, &c.CreatedAt)
	c.Kind = coupon.Kind(kind)
	return c, err
}
