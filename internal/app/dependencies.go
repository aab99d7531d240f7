// Package app assembles the long-lived collaborators shared by the API and
// worker binaries.
package app

import (
	"context"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/festbook-cart/internal/cart"
	"github.com/noah-isme/festbook-cart/internal/config"
	"github.com/noah-isme/festbook-cart/internal/events"
	"github.com/noah-isme/festbook-cart/internal/fx"
	"github.com/noah-isme/festbook-cart/internal/obs"
	"github.com/noah-isme/festbook-cart/internal/resilience"
	"github.com/noah-isme/festbook-cart/internal/store"
)

// Dependencies are the connections and services built from one Config.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger

	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Queries   *store.Queries
	Validator *validator.Validate

	Policy fx.Policy
	Rates  *fx.RateCache
	Router fx.Router
	Bus    *events.Bus

	closers []func()
}

// Open connects to Postgres and Redis and builds the pricing stack. Callers
// must Close the result.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, appName string) (*Dependencies, error) {
	d := &Dependencies{Config: cfg, Logger: logger, Validator: validator.New()}

	policy, err := fx.NewPolicy(cfg.NationalCurrency, cfg.InternationalCurrency)
	if err != nil {
		return nil, err
	}
	d.Policy = policy

	if err := d.openPostgres(ctx, appName); err != nil {
		d.Close()
		return nil, err
	}
	if err := d.openRedis(ctx); err != nil {
		d.Close()
		return nil, err
	}

	d.Rates = fx.NewRateCache(d.rateProvider(),
		fx.WithSharedStore(fx.NewRedisTableStore(d.Redis, cfg.FX.SharedCacheTTL)),
		fx.WithLogger(logger),
	)
	d.Router = fx.Router{
		Policy:    policy,
		Converter: fx.Converter{Rates: d.Rates},
		Ops:       obs.OpsChannel(logger),
	}

	d.Bus = &events.Bus{Store: d.Queries}
	if cfg.Events.RabbitMQURL != "" {
		notifier, err := events.DialAMQP(cfg.Events.RabbitMQURL, cfg.Events.Queue, logger)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Bus.Notifiers = append(d.Bus.Notifiers, notifier)
		d.closers = append(d.closers, func() { _ = notifier.Close() })
	}
	return d, nil
}

func (d *Dependencies) openPostgres(ctx context.Context, appName string) error {
	poolCfg, err := pgxpool.ParseConfig(d.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.ConnConfig.Tracer = obs.PGXTracer{}
	if poolCfg.ConnConfig.RuntimeParams == nil {
		poolCfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	d.closers = append(d.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	d.Pool = pool
	d.Queries = store.New(pool)
	return nil
}

func (d *Dependencies) openRedis(ctx context.Context) error {
	opts, err := redis.ParseURL(d.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	d.closers = append(d.closers, func() { _ = client.Close() })
	if err := redisotel.InstrumentTracing(client); err != nil {
		d.Logger.Warn().Err(err).Msg("instrument redis tracing")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	d.Redis = client
	return nil
}

func (d *Dependencies) rateProvider() fx.HTTPProvider {
	fc := d.Config.FX
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "fx_provider",
		MinRequests:  fc.BreakerMinRequests,
		FailureRatio: fc.BreakerFailureRatio,
		OpenFor:      fc.BreakerOpenFor,
	}, obs.OpsChannel(d.Logger))
	return fx.HTTPProvider{
		BaseURL:   fc.BaseURL,
		AccessKey: fc.AccessKey,
		Client: resilience.HTTPClient{
			Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker: breaker,
			Retry:   resilience.RetryPolicy{MaxAttempts: fc.RetryMaxAttempts, Base: fc.RetryBase, Jitter: 0.2},
			Timeout: fc.Timeout,
			Target:  "fx_provider",
		},
	}
}

// CartService wires the reconciliation engine and cart operations.
func (d *Dependencies) CartService() *cart.Service {
	return &cart.Service{
		Q:  d.Queries,
		Tx: cart.PoolTx{Pool: d.Pool},
		Engine: cart.Engine{
			Quoter: d.Router,
			Logger: d.Logger,
		},
		Events:     d.Bus,
		Policy:     d.Policy,
		ServiceFee: d.Config.ServiceFee,
		Logger:     d.Logger,
	}
}

// Close releases connections in reverse order of opening.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
