// Command coupon-import ingests bulk promo code dumps. Marketing drops
// arrive as gzip files of one code per line; a code is considered genuine
// only when it appears in at least two dumps. The files are far too large
// for an in-memory set, so membership is tested through per-file bloom
// filters built in a first streaming pass.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shopsphere/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000_000
	minCodeLen    = 8
	maxCodeLen    = 10

	upsertCouponSQL = `INSERT INTO coupons (id, code, kind, value, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, true)
		ON CONFLICT (code) DO UPDATE SET
			kind = EXCLUDED.kind, value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at, active = true`
)

// rule is the discount attached to an imported code.
type rule struct {
	kind  string
	value int64
}

// Known campaign codes get their advertised discount; everything else from
// the dumps becomes a generic 10% code.
var campaignRules = map[string]rule{
	"FIFTYOFF": {kind: "Percentage", value: 50},
	"HAPPYHRS": {kind: "Percentage", value: 18},
	"OVER9000": {kind: "Fixed", value: 9},
}

var defaultRule = rule{kind: "Percentage", value: 10}

func main() {
	var (
		dataDir     string
		databaseURL string
		expiryDays  int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing promo code .gz dumps")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&expiryDays, "expiry-days", 365, "days until imported codes expire")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, expiryDays); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, expiryDays int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list dump files")
	}
	if len(files) < 2 {
		return errors.Errorf("need at least 2 dump files in %s, found %d", dataDir, len(files))
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: cross-checking codes")

	codes, err := crossCheck(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "cross-check codes")
	}

	slog.Info("genuine codes found", slog.Int("count", len(codes)))
	if len(codes) == 0 {
		return nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	expiry := time.Now().AddDate(0, 0, expiryDays)
	return writeCoupons(ctx, pool, codes, expiry)
}

// buildFilters streams every dump concurrently, producing one bloom filter
// per file.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			var count uint64

			err := streamGz(ctx, path, func(code string) {
				if len(code) < minCodeLen || len(code) > maxCodeLen {
					return
				}
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("file", i+1), slog.Uint64("codes", count))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "build filter for %s", path)
			}

			slog.Info("pass 1 complete", slog.Int("file", i+1), slog.Uint64("total_codes", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// crossCheck re-streams each dump and tests its codes against the other
// files' filters. Each candidate accumulates a bitmask of the files it was
// seen in; codes present in two or more survive.
func crossCheck(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	perFile := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			candidates := make(map[string]uint)
			fileBit := uint(1) << uint(i)
			var count uint64

			err := streamGz(ctx, path, func(code string) {
				if len(code) < minCodeLen || len(code) > maxCodeLen {
					return
				}
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 2 progress", slog.Int("file", i+1), slog.Uint64("codes", count))
				}
				for j, f := range filters {
					if j == i {
						continue
					}
					if f.TestString(code) {
						candidates[code] |= fileBit
						break
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "cross-check %s", path)
			}

			slog.Info("pass 2 complete",
				slog.Int("file", i+1),
				slog.Uint64("total_codes", count),
				slog.Int("candidates", len(candidates)),
			)
			perFile[i] = candidates
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, candidates := range perFile {
		for code, mask := range candidates {
			merged[code] |= mask
		}
	}

	var genuine []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			genuine = append(genuine, code)
		}
	}
	return genuine, nil
}

// streamGz calls fn for each line of a gzip-compressed file.
func streamGz(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

func writeCoupons(ctx context.Context, pool *pgxpool.Pool, codes []string, expiry time.Time) error {
	slog.Info("writing coupons", slog.Int("count", len(codes)))

	for i, code := range codes {
		r, ok := campaignRules[code]
		if !ok {
			r = defaultRule
		}

		if _, err := pool.Exec(ctx, upsertCouponSQL,
			uuid.New().String(), code, r.kind, decimal.NewFromInt(r.value), expiry); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}
	return nil
}
