package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings shared by the storefront processes.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	StdoutTraces bool   `mapstructure:"OTEL_TRACES_STDOUT"`

	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	TemporalAddress   string `mapstructure:"TEMPORAL_ADDRESS"`
	TemporalNamespace string `mapstructure:"TEMPORAL_NAMESPACE"`
	TemporalDisabled  bool   `mapstructure:"TEMPORAL_DISABLED"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeSuccessURL    string `mapstructure:"STRIPE_SUCCESS_URL"`
	StripeCancelURL     string `mapstructure:"STRIPE_CANCEL_URL"`
	StripeCurrency      string `mapstructure:"STRIPE_CURRENCY"`
	StripeAmountScale   int64  `mapstructure:"STRIPE_AMOUNT_SCALE"`
	StripeBackendURL    string `mapstructure:"STRIPE_BACKEND_URL"`

	KafkaBrokers       string        `mapstructure:"KAFKA_BROKERS"`
	OutboxTopic        string        `mapstructure:"OUTBOX_TOPIC"`
	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	OutboxRelayInline  bool          `mapstructure:"OUTBOX_RELAY_INLINE"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	ReceiptTTL         time.Duration `mapstructure:"WEBHOOK_RECEIPT_TTL"`
	PendingOrderTTL    time.Duration `mapstructure:"PENDING_ORDER_TTL"`
	ReaperBatchSize    int           `mapstructure:"REAPER_BATCH_SIZE"`
	ReaperInterval     time.Duration `mapstructure:"REAPER_INTERVAL"`
	DevWebhookSecret   string        `mapstructure:"DEV_WEBHOOK_SECRET"`
	DevPaymentPageURL  string        `mapstructure:"DEV_PAYMENT_PAGE_URL"`
}

var defaults = map[string]any{
	"PORT":                        "8080",
	"ENVIRONMENT":                 "local",
	"LOG_LEVEL":                   "info",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_INSECURE": true,
	"OTEL_TRACES_STDOUT":          false,
	"POSTGRES_DSN":                "",
	"AUTO_MIGRATE":                true,
	"TEMPORAL_ADDRESS":            client.DefaultHostPort,
	"TEMPORAL_NAMESPACE":          client.DefaultNamespace,
	"TEMPORAL_DISABLED":           false,
	"STRIPE_SECRET_KEY":           "",
	"STRIPE_WEBHOOK_SECRET":       "",
	"STRIPE_SUCCESS_URL":          "http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}",
	"STRIPE_CANCEL_URL":           "http://localhost:3000/cart",
	"STRIPE_CURRENCY":             "usd",
	"STRIPE_AMOUNT_SCALE":         100,
	"STRIPE_BACKEND_URL":          "",
	"KAFKA_BROKERS":               "",
	"OUTBOX_TOPIC":                "storefront.orders",
	"OUTBOX_POLL_INTERVAL":        "2s",
	"OUTBOX_RELAY_INLINE":         false,
	"REDIS_ADDR":                  "",
	"WEBHOOK_RECEIPT_TTL":         "72h",
	"PENDING_ORDER_TTL":           "24h",
	"REAPER_BATCH_SIZE":           500,
	"REAPER_INTERVAL":             "0s",
	"DEV_WEBHOOK_SECRET":          "whsec_dev",
	"DEV_PAYMENT_PAGE_URL":        "",
}

// LoadConfig reads the environment (and CONFIG_FILE when set), applies defaults, and validates.
func LoadConfig() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.trim()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.StripeAmountScale <= 0 {
		errs = append(errs, errors.New("STRIPE_AMOUNT_SCALE must be a positive integer"))
	}
	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set"))
	}
	if c.ReceiptTTL <= 0 {
		errs = append(errs, errors.New("WEBHOOK_RECEIPT_TTL must be positive"))
	}
	if c.PendingOrderTTL <= 0 {
		errs = append(errs, errors.New("PENDING_ORDER_TTL must be positive"))
	}
	if c.ReaperBatchSize <= 0 {
		errs = append(errs, errors.New("REAPER_BATCH_SIZE must be a positive integer"))
	}
	if c.ReaperInterval < 0 {
		errs = append(errs, errors.New("REAPER_INTERVAL must not be negative"))
	}
	if c.OutboxPollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

// UsesStripe reports whether the real payment provider is configured.
func (c Config) UsesStripe() bool {
	return c.StripeSecretKey != ""
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) trim() {
	for _, field := range []*string{
		&c.Port, &c.PostgresDSN, &c.TemporalAddress, &c.TemporalNamespace,
		&c.StripeSecretKey, &c.StripeWebhookSecret, &c.KafkaBrokers, &c.RedisAddr,
	} {
		*field = strings.TrimSpace(*field)
	}
}
