package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (SPHERE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SPHERE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr    string `default:"localhost:6379" usage:"Redis address for cart storage" flag:"redis-addr"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (SPHERE_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Pricing      PricingConfig
	SMTP         SMTPConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PricingConfig carries the checkout pricing knobs as decimal strings.
type PricingConfig struct {
	TaxRate         string `default:"0.15" usage:"Tax rate applied to the discounted subtotal" flag:"tax-rate"`
	FlatShipping    string `default:"10"   usage:"Flat shipping charge" flag:"flat-shipping"`
	FreeShippingMin string `default:"100"  usage:"Subtotal above which shipping is free" flag:"free-shipping-min"`
}

// Engine parses the pricing knobs into a pricing.Config.
func (p PricingConfig) Engine() (pricing.Config, error) {
	taxRate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse tax rate")
	}
	flatShipping, err := decimal.NewFromString(p.FlatShipping)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse flat shipping")
	}
	freeShippingMin, err := decimal.NewFromString(p.FreeShippingMin)
	if err != nil {
		return pricing.Config{}, errors.Wrap(err, "parse free shipping min")
	}
	return pricing.Config{
		TaxRate:         taxRate,
		FlatShipping:    flatShipping,
		FreeShippingMin: freeShippingMin,
	}, nil
}

// SMTPConfig controls outgoing order emails. With an empty Addr the server
// logs notifications instead of sending them.
type SMTPConfig struct {
	Addr string `default:"" usage:"SMTP server address (host:port); empty logs emails instead" flag:"smtp-addr"`
	From string `default:"orders@shopsphere.local" usage:"From address for order emails" flag:"smtp-from"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SPHERE",
		Files:     []string{"config.yaml", "/etc/shopsphere/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SPHERE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the SPHERE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" && c.RedisAddr == "localhost:6379" {
		c.RedisAddr = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
