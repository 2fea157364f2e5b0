package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	storememory "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/memory"
	storeobs "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/observability"
	storestripe "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/payment/stripe"
	storepostgres "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/persistence/postgres"
	storeredis "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/redis"
	storeworkflows "github.com/Apurer/go-gin-storefront/internal/domains/store/adapters/workflows"
	storeapp "github.com/Apurer/go-gin-storefront/internal/domains/store/application"
	storeports "github.com/Apurer/go-gin-storefront/internal/domains/store/ports"
	platformkafka "github.com/Apurer/go-gin-storefront/internal/platform/kafka"
	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

// CheckoutStore is a persistence adapter that also feeds the outbox relay.
type CheckoutStore interface {
	storeports.Store
	outbox.Source
}

// Components is the checkout stack shared by the API, worker, reaper and relay processes.
type Components struct {
	Config      Config
	Instruments *platformobservability.Instruments
	// DB is nil when running on the in-memory store.
	DB       *gorm.DB
	Store    CheckoutStore
	Payments storeports.PaymentProvider
	Service  storeports.Service

	closers []func()
}

// Bootstrap builds the store, payment provider and instrumented checkout service.
// A configured but unreachable database is an error; only an empty DSN selects memory.
func Bootstrap(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Components, error) {
	c := &Components{Config: cfg, Instruments: instruments}
	logger := instruments.EffectiveLogger()

	if err := c.openStore(ctx, logger); err != nil {
		c.Close()
		return nil, err
	}
	payments, err := newPaymentProvider(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Payments = payments

	core := storeapp.NewService(c.Store, c.Payments)
	c.Service = storeobs.New(
		core,
		storeobs.WithLogger(logger),
		storeobs.WithTracer(instruments.Tracer("internal.store.application")),
		storeobs.WithMeter(instruments.Meter("internal.store.application")),
	)
	return c, nil
}

// Close releases everything Bootstrap and later helpers opened, newest first.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Components) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

func (c *Components) openStore(ctx context.Context, logger *slog.Logger) error {
	cfg := c.Config
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, using the in-memory checkout store")
		store := storememory.NewStore()
		store.WithOutboxTopic(cfg.OutboxTopic)
		c.Store = store
		return nil
	}
	db, closeDB, err := platformpostgres.Connect(ctx, cfg.PostgresDSN, platformpostgres.DefaultPool)
	if err != nil {
		return err
	}
	c.onClose(closeDB)
	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("migrate checkout schema: %w", err)
		}
	}
	c.DB = db
	c.Store = storepostgres.NewStore(db, storepostgres.WithOutboxTopic(cfg.OutboxTopic))
	logger.Info("checkout store configured with postgres")
	return nil
}

func newPaymentProvider(cfg Config, logger *slog.Logger) (storeports.PaymentProvider, error) {
	if !cfg.UsesStripe() {
		logger.Warn("STRIPE_SECRET_KEY not set, using the simulated payment provider")
		return storememory.NewPaymentProvider(cfg.DevWebhookSecret, cfg.DevPaymentPageURL), nil
	}
	provider, err := storestripe.NewProvider(storestripe.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		SuccessURL:    cfg.StripeSuccessURL,
		CancelURL:     cfg.StripeCancelURL,
		Currency:      cfg.StripeCurrency,
		AmountScale:   cfg.StripeAmountScale,
		BackendURL:    cfg.StripeBackendURL,
	})
	if err != nil {
		return nil, fmt.Errorf("configure stripe: %w", err)
	}
	return provider, nil
}

// ReceiptStore picks where processed webhook ids are remembered:
// Redis when configured, else the database, else process memory.
func (c *Components) ReceiptStore(ctx context.Context) (storeports.ReceiptStore, error) {
	logger := c.Instruments.EffectiveLogger()
	if c.Config.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: c.Config.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", c.Config.RedisAddr, err)
		}
		c.onClose(func() { _ = rdb.Close() })
		logger.Info("webhook receipts stored in redis", slog.String("addr", c.Config.RedisAddr))
		return storeredis.NewReceiptStore(rdb, c.Config.ReceiptTTL), nil
	}
	if c.DB != nil {
		return storepostgres.NewReceiptStore(c.DB, c.Config.ReceiptTTL), nil
	}
	return storememory.NewReceiptStore(c.Config.ReceiptTTL), nil
}

// DialTemporal connects a traced Temporal client.
func (c *Components) DialTemporal() (client.Client, error) {
	if c.Config.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: c.Instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  c.Config.TemporalAddress,
		Namespace: c.Config.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(c.Instruments.EffectiveLogger()),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(options)
	if err != nil {
		return nil, err
	}
	c.onClose(temporalClient.Close)
	return temporalClient, nil
}

// Settlement prefers the durable Temporal workflow and falls back to settling inline.
func (c *Components) Settlement() storeports.SettlementOrchestrator {
	logger := c.Instruments.EffectiveLogger()
	temporalClient, err := c.DialTemporal()
	if err != nil {
		logger.Warn("Temporal unavailable, settling payments inline", slog.String("error", err.Error()))
		return storeworkflows.NewInlineSettlement(c.Service)
	}
	logger.Info("Temporal settlement enabled", slog.String("namespace", c.Config.TemporalNamespace))
	return storeworkflows.NewTemporalSettlement(temporalClient)
}

// OutboxRelay publishes recorded checkout events to Kafka.
// It returns platformkafka.ErrDisabled when no brokers are configured.
func (c *Components) OutboxRelay() (*outbox.Relay, error) {
	publisher, err := platformkafka.NewPublisher(platformkafka.NewClient(c.Config.KafkaBrokers))
	if err != nil {
		return nil, err
	}
	c.onClose(func() { _ = publisher.Close() })
	return outbox.NewRelay(
		c.Store,
		publisher,
		outbox.WithPollInterval(c.Config.OutboxPollInterval),
		outbox.WithLogger(c.Instruments.EffectiveLogger()),
	), nil
}
