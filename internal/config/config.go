package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cvtoletter/backend/pkg/logger"
)

const defaultConfigPath = "./configs/server.yaml"

type Config struct {
	Service        ServiceConfig        `yaml:"service"`
	Database       DatabaseConfig       `yaml:"database"`
	Server         ServerConfig         `yaml:"server"`
	Log            logger.Config        `yaml:"log"`
	Supabase       SupabaseConfig       `yaml:"supabase"`
	Stripe         StripeConfig         `yaml:"stripe"`
	Redis          RedisConfig          `yaml:"redis"`
	Generator      GeneratorConfig      `yaml:"generator"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Catalog        CatalogConfig        `yaml:"catalog"`
	Admin          AdminConfig          `yaml:"admin"`
}

// LoadConfig reads CONFIG_PATH (or ./configs/server.yaml) after loading .env.
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return Load(configPath)
}

// Load parses the YAML file at path, expands ${VAR} references from the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules of the catalog.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Catalog.validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "cvtoletter-backend"
	}
	if c.Service.Environment == "" {
		c.Service.Environment = "development"
	}
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 8080
	}
	if c.Server.HTTP.ReadTimeout == 0 {
		c.Server.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.Server.HTTP.WriteTimeout == 0 {
		c.Server.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.Server.HTTP.BodyLimit == "" {
		c.Server.HTTP.BodyLimit = "1M"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.SlowThreshold == 0 {
		c.Database.SlowThreshold = 200 * time.Millisecond
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	c.Log.Service = c.Service.Name
	if c.Redis.Channel == "" {
		c.Redis.Channel = "ledger:credits"
	}
	if c.Generator.Timeout == 0 {
		c.Generator.Timeout = 60 * time.Second
	}
	c.Reconciliation.applyDefaults()
	if c.Admin.Role == "" {
		c.Admin.Role = "service_role"
	}
	if c.Catalog.Currency == "" {
		c.Catalog.Currency = "usd"
	}
}
