package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	CartStoreFile     = "file"
	CartStorePostgres = "postgres"
)

type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string

	HTTPPort int

	// DeployTarget is "local" for a developer machine. Any other value makes
	// the catalog start in local fallback mode.
	DeployTarget string
	BackendURL   string

	CatalogTimeout          time.Duration
	CatalogFailureThreshold int

	// OrderTimeout bounds each order, payment and registration call.
	OrderTimeout time.Duration

	PaymentPollAttempts int
	PaymentPollInterval time.Duration

	DeliveryFee      decimal.Decimal
	FreeDeliveryOver decimal.Decimal

	StateDir    string
	CartKey     string
	CartStore   string
	PostgresDSN string
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("http_port", 8080)
	v.SetDefault("deploy_target", "local")
	v.SetDefault("backend_url", "http://localhost:5000/api")
	v.SetDefault("catalog_timeout", 5*time.Second)
	v.SetDefault("catalog_failure_threshold", 2)
	v.SetDefault("order_timeout", 30*time.Second)
	v.SetDefault("payment_poll_attempts", 30)
	v.SetDefault("payment_poll_interval", 2*time.Second)
	v.SetDefault("delivery_fee", 300)
	v.SetDefault("free_delivery_over", 2000)
	v.SetDefault("state_dir", ".farmgate")
	v.SetDefault("cart_key", "cart")
	v.SetDefault("cart_store", CartStoreFile)
	v.SetDefault("postgres_dsn", "")
}

// Load resolves configuration from defaults, an optional config file, the
// environment and, when flags is non-nil, the "port" and "backend" flags.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	defaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		if f := flags.Lookup("port"); f != nil {
			if err := v.BindPFlag("http_port", f); err != nil {
				return Config{}, err
			}
		}
		if f := flags.Lookup("backend"); f != nil {
			if err := v.BindPFlag("backend_url", f); err != nil {
				return Config{}, err
			}
		}
	}

	fee, err := decimal.NewFromString(v.GetString("delivery_fee"))
	if err != nil {
		return Config{}, fmt.Errorf("delivery_fee: %w", err)
	}
	over, err := decimal.NewFromString(v.GetString("free_delivery_over"))
	if err != nil {
		return Config{}, fmt.Errorf("free_delivery_over: %w", err)
	}

	cfg := Config{
		AppEnv:                  v.GetString("app_env"),
		LogLevel:                v.GetString("log_level"),
		LogFormat:               v.GetString("log_format"),
		HTTPPort:                v.GetInt("http_port"),
		DeployTarget:            strings.ToLower(strings.TrimSpace(v.GetString("deploy_target"))),
		BackendURL:              strings.TrimRight(v.GetString("backend_url"), "/"),
		CatalogTimeout:          v.GetDuration("catalog_timeout"),
		CatalogFailureThreshold: v.GetInt("catalog_failure_threshold"),
		OrderTimeout:            v.GetDuration("order_timeout"),
		PaymentPollAttempts:     v.GetInt("payment_poll_attempts"),
		PaymentPollInterval:     v.GetDuration("payment_poll_interval"),
		DeliveryFee:             fee,
		FreeDeliveryOver:        over,
		StateDir:                v.GetString("state_dir"),
		CartKey:                 v.GetString("cart_key"),
		CartStore:               strings.ToLower(v.GetString("cart_store")),
		PostgresDSN:             v.GetString("postgres_dsn"),
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.HTTPPort <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_PORT must be positive, got %d", c.HTTPPort))
	}
	if c.CatalogFailureThreshold <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_FAILURE_THRESHOLD must be positive, got %d", c.CatalogFailureThreshold))
	}
	if c.OrderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ORDER_TIMEOUT must be positive, got %s", c.OrderTimeout))
	}
	if c.PaymentPollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("PAYMENT_POLL_ATTEMPTS must be positive, got %d", c.PaymentPollAttempts))
	}
	if c.DeliveryFee.IsNegative() {
		errs = append(errs, errors.New("DELIVERY_FEE cannot be negative"))
	}
	switch c.CartStore {
	case CartStoreFile:
	case CartStorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when CART_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CART_STORE %q", c.CartStore))
	}
	return errors.Join(errs...)
}

// StartInFallback reports whether the catalog should skip the remote source
// from the first request. Non-local deployments see frequent backend outages.
func (c Config) StartInFallback() bool {
	return c.DeployTarget != "" && c.DeployTarget != "local"
}

// StatePath joins name onto the state directory.
func (c Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}
