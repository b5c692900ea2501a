// Command seed-db loads a development dataset: catalog products, a few
// coupon rules, and API keys for one actor per role. Every statement is an
// upsert, so reseeding is safe.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/storage/postgres"
)

const (
	upsertProductSQL = `INSERT INTO products (id, name, price, category, vendor_id, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price,
			category = EXCLUDED.category, vendor_id = EXCLUDED.vendor_id,
			image = EXCLUDED.image`

	upsertCouponSQL = `INSERT INTO coupons (id, code, kind, value, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, true)
		ON CONFLICT (code) DO UPDATE SET
			kind = EXCLUDED.kind, value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at, active = true`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, actor_id, role, name, email, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash, actor_id = EXCLUDED.actor_id,
			role = EXCLUDED.role, name = EXCLUDED.name,
			email = EXCLUDED.email, active = true`
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	VendorID string          `json:"vendorId"`
	Image    string          `json:"image"`
}

type seedKey struct {
	id, envVar, role, name, email string
}

var seedKeys = []seedKey{
	{id: "seed-buyer", envVar: "SPHERE_SEED_BUYER_KEY", role: "buyer", name: "Dev Buyer", email: "buyer@shopsphere.local"},
	{id: "seed-vendor", envVar: "SPHERE_SEED_VENDOR_KEY", role: "vendor", name: "Dev Vendor", email: "vendor@shopsphere.local"},
	{id: "seed-admin", envVar: "SPHERE_SEED_ADMIN_KEY", role: "admin", name: "Dev Admin", email: "admin@shopsphere.local"},
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SPHERE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SPHERE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKeys(ctx, pool, pepper); err != nil {
		return errors.Wrap(err, "seed api keys")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Price, p.Category, p.VendorID, p.Image); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding coupons")

	expiry := time.Now().AddDate(1, 0, 0)
	coupons := []struct {
		code  string
		kind  string
		value int64
	}{
		{code: "WELCOME10", kind: "Percentage", value: 10},
		{code: "SAVE20", kind: "Percentage", value: 20},
		{code: "TENOFF", kind: "Fixed", value: 10},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL,
			uuid.New().String(), c.code, c.kind, decimal.NewFromInt(c.value), expiry); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("kind", c.kind))
	}

	return nil
}

func seedAPIKeys(ctx context.Context, pool *pgxpool.Pool, pepper string) error {
	slog.Info("seeding API keys")

	for _, k := range seedKeys {
		key := os.Getenv(k.envVar)
		if key == "" {
			slog.Info("skipping key, env var not set", slog.String("env", k.envVar))
			continue
		}

		mac := hmac.New(sha256.New, []byte(pepper))
		mac.Write([]byte(key))
		keyHash := hex.EncodeToString(mac.Sum(nil))

		if _, err := pool.Exec(ctx, upsertAPIKeySQL,
			k.id, keyHash, k.id, k.role, k.name, k.email); err != nil {
			return errors.Wrapf(err, "upsert API key %s", k.id)
		}
		slog.Info("upserted API key", slog.String("id", k.id), slog.String("role", k.role))
	}

	return nil
}
