package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (KART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (KART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	AuthSecret  string `usage:"HS256 secret for bearer tokens (KART_AUTH_SECRET)" flag:"auth-secret"`
	Gateway     GatewayConfig
	Pricing     PricingConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// GatewayConfig holds the payment gateway credentials.
type GatewayConfig struct {
	KeyID    string `usage:"Gateway key id shown to the checkout widget" flag:"gateway-key-id"`
	Secret   string `usage:"Gateway secret used to verify payment signatures" flag:"gateway-secret"`
	Currency string `default:"INR" usage:"Settlement currency" flag:"gateway-currency"`
}

// PricingConfig holds the totals thresholds as decimal strings.
type PricingConfig struct {
	FreeShippingThreshold string `default:"1000" usage:"Subtotal from which shipping is free" flag:"free-shipping-threshold"`
	ShippingFee           string `default:"99" usage:"Shipping fee below the threshold" flag:"shipping-fee"`
	TaxRate               string `default:"0.05" usage:"Tax rate as a fraction" flag:"tax-rate"`
}

// Thresholds parses the pricing configuration.
func (c PricingConfig) Thresholds() (pricing.Thresholds, error) {
	return pricing.ParseThresholds(c.FreeShippingThreshold, c.ShippingFee, c.TaxRate)
}

// RateLimitConfig bounds requests per client IP; the cart and checkout
// surfaces share one bucket per client.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Requests allowed per client within one window" flag:"rate-limit-max"`
	Window time.Duration `default:"1m"  usage:"Length of the rate limit window" flag:"rate-limit-window"`
}

// CORSConfig lists the storefront origins allowed to call the API.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Storefront origins allowed by CORS" flag:"cors-origins"`
	AllowCredentials bool     `default:"false" usage:"Let browsers send credentials cross-origin" flag:"cors-credentials"`
}

// GracefulConfig times the drain on shutdown: readiness flips first, then
// in-flight checkouts get ShutdownTimeout to finish.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Wait after reporting not-ready before closing the listener" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Upper bound for draining in-flight requests" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KART",
		Files:     []string{"config.yaml", "/etc/kart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first missing or malformed setting.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set KART_DATABASE_URL or DATABASE_URL")
	case c.AuthSecret == "":
		return errors.New("auth secret is required: set KART_AUTH_SECRET")
	case c.Gateway.KeyID == "" || c.Gateway.Secret == "":
		return errors.New("gateway credentials are required: set KART_GATEWAY_KEY_ID and KART_GATEWAY_SECRET")
	case c.RateLimit.Max < 1 || c.RateLimit.Window <= 0:
		return errors.New("rate limit max and window must be positive")
	}
	if _, err := c.Pricing.Thresholds(); err != nil {
		return errors.Wrap(err, "pricing")
	}
	return nil
}

// unprefixedEnv lists the conventional variable names honored when the
// KART_ ones are unset.
var unprefixedEnv = []struct {
	name  string
	field func(*Config) *string
}{
	{"DATABASE_URL", func(c *Config) *string { return &c.DatabaseURL }},
	{"AUTH_SECRET", func(c *Config) *string { return &c.AuthSecret }},
	{"GATEWAY_KEY_ID", func(c *Config) *string { return &c.Gateway.KeyID }},
	{"GATEWAY_SECRET", func(c *Config) *string { return &c.Gateway.Secret }},
}

// applyPlatformDefaults fills settings from the unprefixed names hosting
// platforms inject, and binds to $PORT when the address was left default.
func (c *Config) applyPlatformDefaults() {
	for _, e := range unprefixedEnv {
		if dst := e.field(c); *dst == "" {
			*dst = os.Getenv(e.name)
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
