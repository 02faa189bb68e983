package config

import (
	"time"
)

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment" validate:"omitempty,oneof=development staging production test"`
	Version     string `yaml:"version"`
	// ClientURL is the frontend origin used for checkout success/cancel redirects.
	ClientURL string `yaml:"client_url" validate:"required,url"`
}

type SupabaseConfig struct {
	JWTSecret  string `yaml:"jwt_secret" validate:"required"`
	ProjectURL string `yaml:"project_url" validate:"omitempty,url"`
	APIKey     string `yaml:"api_key"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" validate:"required"`
	WebhookSecret string `yaml:"webhook_secret" validate:"required"`
	// APIBaseURL overrides the Stripe API endpoint (stripe-mock in local runs).
	APIBaseURL        string `yaml:"api_base_url" validate:"omitempty,url"`
	MaxNetworkRetries int64  `yaml:"max_network_retries"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" validate:"required_if=Enabled true"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// GeneratorConfig points at the external cover-letter text generator.
type GeneratorConfig struct {
	URL     string        `yaml:"url" validate:"omitempty,url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type ReconciliationConfig struct {
	// ProviderTimeout bounds every call to the payment provider.
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	// StorageRetries is how many times a conflicting settle is retried.
	StorageRetries int           `yaml:"storage_retries" validate:"min=0,max=10"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	// WebhookRetryBatch caps one retry sweep of failed webhook log entries.
	WebhookRetryBatch int `yaml:"webhook_retry_batch"`
}

func (c *ReconciliationConfig) applyDefaults() {
	if c.ProviderTimeout == 0 {
		c.ProviderTimeout = 10 * time.Second
	}
	if c.StorageRetries == 0 {
		c.StorageRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 50 * time.Millisecond
	}
	if c.WebhookRetryBatch == 0 {
		c.WebhookRetryBatch = 50
	}
}

type AdminConfig struct {
	// Role is the JWT role claim allowed on the admin routes.
	Role string `yaml:"role"`
}
