package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/dispatch-recon/internal/dispatch"
	"github.com/odyssey-erp/dispatch-recon/internal/platform/remote"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"60s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RemoteBaseURL        string        `envconfig:"REMOTE_BASE_URL" required:"true"`
	RemoteToken          string        `envconfig:"REMOTE_TOKEN"`
	RemotePageSize       int           `envconfig:"REMOTE_PAGE_SIZE" default:"1000"`
	RemoteMaxPages       int           `envconfig:"REMOTE_MAX_PAGES" default:"200"`
	RemotePaging         string        `envconfig:"REMOTE_PAGING" default:"page"`
	RemoteTimeout        time.Duration `envconfig:"REMOTE_TIMEOUT" default:"30s"`
	RemoteRateLimit      float64       `envconfig:"REMOTE_RATE_LIMIT" default:"0"`
	RemoteRetryAttempts  int           `envconfig:"REMOTE_RETRY_ATTEMPTS" default:"4"`
	RemoteRetryBaseDelay time.Duration `envconfig:"REMOTE_RETRY_BASE_DELAY" default:"200ms"`
	RemoteRetryMaxDelay  time.Duration `envconfig:"REMOTE_RETRY_MAX_DELAY" default:"5s"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	DispatchCacheTTL       time.Duration `envconfig:"DISPATCH_CACHE_TTL" default:"0s"`
	DispatchVATRate        float64       `envconfig:"DISPATCH_VAT_RATE" default:"0.12"`
	DispatchRequestTimeout time.Duration `envconfig:"DISPATCH_REQUEST_TIMEOUT" default:"45s"`
	WarmupCron             string        `envconfig:"WARMUP_CRON" default:"*/15 * * * *"`
	WorkerMetricsAddr      string        `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	CollectionInvoices   string `envconfig:"DISPATCH_COLLECTION_INVOICES" default:"sales_invoices"`
	CollectionCustomers  string `envconfig:"DISPATCH_COLLECTION_CUSTOMERS" default:"customers"`
	CollectionSalesmen   string `envconfig:"DISPATCH_COLLECTION_SALESMEN" default:"salesmen"`
	CollectionOperations string `envconfig:"DISPATCH_COLLECTION_OPERATIONS" default:"operations"`
	CollectionLinks      string `envconfig:"DISPATCH_COLLECTION_LINKS" default:"dispatch_plan_invoices"`
	CollectionPlans      string `envconfig:"DISPATCH_COLLECTION_PLANS" default:"dispatch_plans"`
	CollectionLines      string `envconfig:"DISPATCH_COLLECTION_LINES" default:"sales_invoice_details"`
	CollectionProducts   string `envconfig:"DISPATCH_COLLECTION_PRODUCTS" default:"products"`
	CollectionUnits      string `envconfig:"DISPATCH_COLLECTION_UNITS" default:"units"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RemoteBaseURL == "" {
		return errors.New("remote base url must be provided")
	}
	switch c.RemotePaging {
	case remote.PagingPage, remote.PagingOffset:
	default:
		return fmt.Errorf("REMOTE_PAGING must be %q or %q", remote.PagingPage, remote.PagingOffset)
	}
	if c.DispatchVATRate < 0 || c.DispatchVATRate >= 1 {
		return fmt.Errorf("DISPATCH_VAT_RATE out of range: %v", c.DispatchVATRate)
	}
	if c.DispatchCacheTTL < 0 {
		return errors.New("DISPATCH_CACHE_TTL must not be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// RemoteConfig builds the record store client configuration.
func (c *Config) RemoteConfig() remote.Config {
	return remote.Config{
		BaseURL:   c.RemoteBaseURL,
		Token:     c.RemoteToken,
		PageSize:  c.RemotePageSize,
		MaxPages:  c.RemoteMaxPages,
		Paging:    c.RemotePaging,
		Timeout:   c.RemoteTimeout,
		RateLimit: c.RemoteRateLimit,
		Retry: remote.RetryConfig{
			MaxAttempts: c.RemoteRetryAttempts,
			BaseDelay:   c.RemoteRetryBaseDelay,
			MaxDelay:    c.RemoteRetryMaxDelay,
		},
	}
}

// DispatchConfig builds the reconciliation service configuration.
func (c *Config) DispatchConfig() dispatch.Config {
	return dispatch.Config{
		VATRate: c.DispatchVATRate,
		Collections: dispatch.Collections{
			Invoices:   c.CollectionInvoices,
			Customers:  c.CollectionCustomers,
			Salesmen:   c.CollectionSalesmen,
			Operations: c.CollectionOperations,
			Links:      c.CollectionLinks,
			Plans:      c.CollectionPlans,
			Lines:      c.CollectionLines,
			Products:   c.CollectionProducts,
			Units:      c.CollectionUnits,
		},
	}
}
