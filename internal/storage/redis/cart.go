// Package redis implements the cart repository on Redis. Carts are
// session-scoped, TTL-bound state: storing them out of Postgres keeps the
// hot cart-render path off the relational store.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shopsphere/storefront/internal/domain/cart"
)

// DefaultTTL is how long an untouched cart survives. Every save refreshes it.
const DefaultTTL = 30 * 24 * time.Hour

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository stores carts as JSON values keyed by buyer ID.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a CartRepository on the given client. A zero
// ttl falls back to DefaultTTL.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CartRepository{client: client, ttl: ttl}
}

func cartKey(buyerID string) string {
	return "cart:" + buyerID
}

// Get loads the buyer's cart, or cart.ErrNotFound when none is stored.
func (r *CartRepository) Get(ctx context.Context, buyerID string) (*cart.Cart, error) {
	raw, err := r.client.Get(ctx, cartKey(buyerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrap(err, "get cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart")
	}
	return &c, nil
}

// Save stores the cart and refreshes its TTL.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	if err := r.client.Set(ctx, cartKey(c.BuyerID), raw, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// Delete removes the buyer's cart. Deleting an absent cart is not an error.
func (r *CartRepository) Delete(ctx context.Context, buyerID string) error {
	if err := r.client.Del(ctx, cartKey(buyerID)).Err(); err != nil {
		return errors.Wrap(err, "delete cart")
	}
	return nil
}
