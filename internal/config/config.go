package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	CORSAllowedOrigins []string

	NationalCurrency      string
	InternationalCurrency string
	ServiceFee            decimal.Decimal

	FX     FXConfig
	Events EventsConfig
	Obs    ObsConfig

	RateLimitPerMinute int64
	ReconcileLockTTL   time.Duration
}

// FXConfig configures the exchange rate provider client and caches.
type FXConfig struct {
	BaseURL             string
	AccessKey           string
	Timeout             time.Duration
	RetryMaxAttempts    int
	RetryBase           time.Duration
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration
	SharedCacheTTL      time.Duration
}

// EventsConfig configures domain event fan-out. An empty RabbitMQURL
// disables the broker notifier.
type EventsConfig struct {
	RabbitMQURL string
	Queue       string
}

// ObsConfig configures logging, metrics and tracing.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	TraceExporter    string
	TraceEndpoint    string
	TraceSampling    float64
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(k.String(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	duration := func(key, fallback string) time.Duration {
		d, err := time.ParseDuration(get(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	integer := func(key string, fallback int64) int64 {
		raw := get(key, strconv.FormatInt(fallback, 10))
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}
	float := func(key string, fallback float64) float64 {
		raw := get(key, strconv.FormatFloat(fallback, 'f', -1, 64))
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return f
	}

	cfg := &Config{
		AppEnv:             get("APP_ENV", "development"),
		Port:               get("PORT", "8080"),
		DatabaseURL:        get("DATABASE_URL", ""),
		RedisURL:           get("REDIS_URL", ""),
		JWTSecret:          get("JWT_SECRET", ""),
		JWTIssuer:          get("JWT_ISSUER", "festbook"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		NationalCurrency:      strings.ToUpper(get("NATIONAL_CURRENCY", "INR")),
		InternationalCurrency: strings.ToUpper(get("INTERNATIONAL_CURRENCY", "USD")),

		FX: FXConfig{
			BaseURL:             get("FX_BASE_URL", "http://api.exchangerate.host"),
			AccessKey:           get("FX_ACCESS_KEY", ""),
			Timeout:             duration("FX_TIMEOUT", "5s"),
			RetryMaxAttempts:    int(integer("FX_RETRY_MAX_ATTEMPTS", 3)),
			RetryBase:           duration("FX_RETRY_BASE", "200ms"),
			BreakerMinRequests:  int(integer("FX_BREAKER_MIN_REQUESTS", 5)),
			BreakerFailureRatio: float("FX_BREAKER_FAILURE_RATIO", 0.5),
			BreakerOpenFor:      duration("FX_BREAKER_OPEN_FOR", "30s"),
			SharedCacheTTL:      duration("FX_SHARED_CACHE_TTL", "36h"),
		},
		Events: EventsConfig{
			RabbitMQURL: get("RABBITMQ_URL", ""),
			Queue:       get("EVENTS_QUEUE", "festbook.cart.events"),
		},
		Obs: ObsConfig{
			LogFormat:        get("OBS_LOG_FORMAT", "json"),
			LogLevel:         get("OBS_LOG_LEVEL", "info"),
			MetricsNamespace: get("OBS_METRICS_NAMESPACE", "festbook"),
			TraceExporter:    get("OBS_TRACE_EXPORTER", "none"),
			TraceEndpoint:    get("OBS_TRACE_ENDPOINT", ""),
			TraceSampling:    float("OBS_TRACE_SAMPLING", 1),
		},

		RateLimitPerMinute: integer("RATE_LIMIT_PER_MINUTE", 120),
		ReconcileLockTTL:   duration("RECONCILE_LOCK_TTL", "2m"),
	}

	fee, err := decimal.NewFromString(get("SERVICE_FEE", "0"))
	if err != nil {
		errs = append(errs, fmt.Errorf("SERVICE_FEE: %w", err))
	} else if fee.IsNegative() {
		errs = append(errs, errors.New("SERVICE_FEE must not be negative"))
	}
	cfg.ServiceFee = fee

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if cfg.NationalCurrency == cfg.InternationalCurrency {
		errs = append(errs, errors.New("NATIONAL_CURRENCY and INTERNATIONAL_CURRENCY must differ"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MustLoad is Load for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests sets env for the duration of one Load call and restores the
// previous values afterwards. An empty value unsets the variable.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key, value := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := setEnv(key, value); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	var restoreErrs []error
	for key, prev := range original {
		value := ""
		if prev != nil {
			value = *prev
		}
		if rerr := setEnv(key, value); rerr != nil {
			restoreErrs = append(restoreErrs, fmt.Errorf("%s: %w", key, rerr))
		}
	}
	if err != nil {
		return nil, err
	}
	return cfg, errors.Join(restoreErrs...)
}

func setEnv(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}
