package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/infra/validate"
)

// Environments accepted in APP_ENV.
const (
	EnvProduction  = "production"
	EnvStaging     = "staging"
	EnvDevelopment = "development"
)

// ErrMissingMasterKey is returned by Load when ENCRYPTION_MASTER_KEY is unset.
var ErrMissingMasterKey = errors.New("config: ENCRYPTION_MASTER_KEY is required")

type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port        string `validate:"required"`
	Environment string `validate:"oneof=production staging development"`
	MasterKey   string `validate:"required"`
	APIKey      string

	RateLimitPerMinute int `validate:"gt=0"`

	AllowUnsignedWebhooks   bool
	RequireWebhookTimestamp bool
	WebhookSkew             time.Duration `validate:"gt=0"`
	WebhookSecrets          map[string]string

	StorageDriver string `validate:"oneof=sqlite postgres memory"`
	SQLitePath    string
	DatabaseURL   string `validate:"required_if=StorageDriver postgres"`

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OpenSearchURL  string
	OpenSearchUser string
	OpenSearchPass string
	EnableLogging  bool
	LoggingLevel   string `validate:"oneof=debug info warn error"`

	ProviderTimeout time.Duration `validate:"gt=0"`
	PaymentExpiry   time.Duration `validate:"gt=0"`
	NodeID          int64         `validate:"gte=0,lte=1023"`
	FeeOverrides    string
}

// webhookSecretEnv maps provider ids to the variables holding their secrets.
var webhookSecretEnv = map[string]string{
	"kbank":      "KBANK_WEBHOOK_SECRET",
	"scb_easy":   "SCB_WEBHOOK_SECRET",
	"truemoney":  "TRUEMONEY_WEBHOOK_SECRET",
	"gbprimepay": "GBPRIMEPAY_WEBHOOK_SECRET",
	"omise":      "OMISE_WEBHOOK_SECRET",
	"2c2p":       "C2C2P_WEBHOOK_SECRET",
	"stripe":     "STRIPE_WEBHOOK_SECRET",
	"promptpay":  "PROMPTPAY_WEBHOOK_SECRET",
}

var (
	instance          *Config
	appConfigInstance *AppConfig
)

func App() *Config {
	if instance == nil {
		instance = &Config{
			Validator: validate.New(),
		}
	}
	return instance
}

// Load reads the configuration from the environment and validates it.
func Load() (*AppConfig, error) {
	secrets := make(map[string]string, len(webhookSecretEnv))
	for provider, key := range webhookSecretEnv {
		if v := GetEnv(key, ""); v != "" {
			secrets[provider] = v
		}
	}

	cfg := &AppConfig{
		Port:        GetEnv("APP_PORT", "9999"),
		Environment: strings.ToLower(GetEnv("APP_ENV", EnvProduction)),
		MasterKey:   GetEnv("ENCRYPTION_MASTER_KEY", ""),
		APIKey:      GetEnv("API_KEY", ""),

		RateLimitPerMinute: GetIntEnv("RATE_LIMIT_PER_MINUTE", 100),

		AllowUnsignedWebhooks:   GetBoolEnv("WEBHOOK_ALLOW_UNSIGNED", false),
		RequireWebhookTimestamp: GetBoolEnv("WEBHOOK_REQUIRE_TIMESTAMP", false),
		WebhookSkew:             GetDurationEnv("WEBHOOK_TIMESTAMP_SKEW", 5*time.Minute),
		WebhookSecrets:          secrets,

		StorageDriver: strings.ToLower(GetEnv("STORAGE_DRIVER", "sqlite")),
		SQLitePath:    GetEnv("SQLITE_PATH", "./data/thaipay.db"),
		DatabaseURL:   GetEnv("DATABASE_URL", ""),

		RedisAddr:     GetEnv("REDIS_ADDR", ""),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetIntEnv("REDIS_DB", 0),

		OpenSearchURL:  GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
		OpenSearchUser: GetEnv("OPENSEARCH_USER", ""),
		OpenSearchPass: GetEnv("OPENSEARCH_PASSWORD", ""),
		EnableLogging:  GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
		LoggingLevel:   strings.ToLower(GetEnv("LOGGING_LEVEL", "info")),

		ProviderTimeout: GetDurationEnv("PROVIDER_TIMEOUT", 10*time.Second),
		PaymentExpiry:   GetDurationEnv("PAYMENT_EXPIRY", 15*time.Minute),
		NodeID:          int64(GetIntEnv("NODE_ID", 1)),
		FeeOverrides:    GetEnv("FEE_OVERRIDES", ""),
	}

	if cfg.MasterKey == "" {
		return nil, ErrMissingMasterKey
	}
	if err := App().Validator.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetAppConfig returns the process wide configuration, loading it once.
func GetAppConfig() (*AppConfig, error) {
	if appConfigInstance == nil {
		cfg, err := Load()
		if err != nil {
			return nil, err
		}
		appConfigInstance = cfg
	}
	return appConfigInstance, nil
}

// IsDevelopment reports whether the unsigned webhook bypass may apply.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// IsProduction reports whether the service runs against live providers.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetDurationEnv parses values like "10s" or "15m".
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
