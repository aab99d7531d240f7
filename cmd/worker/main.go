package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/festbook-cart/internal/app"
	"github.com/noah-isme/festbook-cart/internal/config"
	"github.com/noah-isme/festbook-cart/internal/jobs"
	"github.com/noah-isme/festbook-cart/internal/lock"
	"github.com/noah-isme/festbook-cart/internal/obs"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Open(ctx, cfg, logger, "festbook-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Logger:      jobs.Logger(logger),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})
	mux := asynq.NewServeMux()
	jobs.Register(mux, jobs.WarmRates{
		Rates:   deps.Rates,
		Lock:    lock.Locker{R: deps.Redis},
		LockTTL: cfg.ReconcileLockTTL,
		Logger:  logger,
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: jobs.Logger(logger)})
	entryID, err := jobs.Schedule(scheduler, jobs.DefaultWarmSchedule)
	if err != nil {
		logger.Fatal().Err(err).Msg("schedule fx warmup")
	}
	logger.Info().Str("entry", entryID).Str("cron", jobs.DefaultWarmSchedule).Msg("fx warmup scheduled")

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}

	// Warm once at boot so the first carts of the day skip the provider.
	client := asynq.NewClient(redisOpt)
	if _, err := client.Enqueue(jobs.NewWarmRatesTask(), asynq.Unique(jobs.DefaultWarmUniqueness)); err != nil {
		logger.Warn().Err(err).Msg("enqueue boot warmup")
	}
	_ = client.Close()

	logger.Info().Msg("worker started")
	<-ctx.Done()
	logger.Info().Msg("worker shutting down")
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
