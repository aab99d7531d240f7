package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/app"
	"github.com/noah-isme/festbook-cart/internal/auth"
	"github.com/noah-isme/festbook-cart/internal/cart"
	"github.com/noah-isme/festbook-cart/internal/config"
	"github.com/noah-isme/festbook-cart/internal/health"
	"github.com/noah-isme/festbook-cart/internal/membership"
	"github.com/noah-isme/festbook-cart/internal/obs"
	"github.com/noah-isme/festbook-cart/internal/ratelimit"
	"github.com/noah-isme/festbook-cart/internal/security"
)

const serviceName = "festbook-api"

func main() {
	cfg := config.MustLoad()
	decimal.MarshalJSONWithoutQuotes = true

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	httpMetrics := obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   serviceName,
		Environment:   cfg.AppEnv,
		Exporter:      cfg.Obs.TraceExporter,
		Endpoint:      cfg.Obs.TraceEndpoint,
		SamplingRatio: cfg.Obs.TraceSampling,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise tracing")
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	deps, err := app.Open(ctx, cfg, logger, serviceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure token verifier")
	}
	limiter, err := ratelimit.NewRedisLimiter(deps.Redis, "festbook:rl", cfg.RateLimitPerMinute)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure rate limiter")
	}

	healthHandler := &health.Handler{
		Probe:   health.Probe{DB: deps.Pool, Redis: deps.Redis},
		Timeout: 2 * time.Second,
	}
	cartHandler := cart.Handler{Svc: deps.CartService(), Validate: deps.Validator, Logger: logger}
	plansHandler := &membership.Handler{Users: deps.Queries, Quoter: deps.Router, Logger: logger}
	authn := auth.Middleware{Verifier: verifier}
	throttle := ratelimit.Handler{Limiter: limiter, Key: ratelimit.ByUser}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(obs.Tracing(serviceName))
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(httpMetrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{HSTSMaxAge: hstsMaxAge(cfg)}.Middleware)
	r.Use(security.BodyLimit{Max: security.DefaultMaxBody}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(authn.RequireAuth)
		r.Use(throttle.Middleware)
		r.Route("/cart", cartHandler.Routes)
		r.Get("/membership/plans", plansHandler.Plans)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	logger.Info().Msg("shutdown requested")
	healthHandler.Drain()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func hstsMaxAge(cfg *config.Config) int {
	if cfg.AppEnv == "production" {
		return 31536000
	}
	return 0
}
