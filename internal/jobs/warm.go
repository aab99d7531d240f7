// Package jobs holds the background tasks run by the worker.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/festbook-cart/internal/lock"
)

// TypeWarmRates pre-populates today's exchange rate table.
const TypeWarmRates = "fx:warm"

// DefaultWarmSchedule runs shortly after the UTC day rolls over.
const DefaultWarmSchedule = "5 0 * * *"

const warmLockKey = "lock:fx:warm"

// Warmer loads today's rate table into the shared cache.
type Warmer interface {
	Warm(ctx context.Context) (string, error)
}

// Locker runs a callback under a single-holder lock.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// WarmRates is the asynq handler for TypeWarmRates. Only one worker warms at
// a time; the others skip.
type WarmRates struct {
	Rates   Warmer
	Lock    Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// NewWarmRatesTask builds the task enqueued by the scheduler.
func NewWarmRatesTask() *asynq.Task {
	return asynq.NewTask(TypeWarmRates, nil, asynq.MaxRetry(5), asynq.Timeout(2*time.Minute))
}

// ProcessTask implements asynq.Handler.
func (w WarmRates) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	err := w.Lock.TryWithLock(ctx, warmLockKey, w.LockTTL, func(ctx context.Context) error {
		date, err := w.Rates.Warm(ctx)
		if err != nil {
			return err
		}
		w.Logger.Info().Str("date", date).Msg("fx rate table warmed")
		return nil
	})
	switch {
	case errors.Is(err, lock.ErrHeld):
		w.Logger.Debug().Msg("fx warm already running elsewhere")
		return nil
	case err != nil:
		return fmt.Errorf("warm rates: %w", err)
	}
	return nil
}

// Register mounts the handlers on mux.
func Register(mux *asynq.ServeMux, warm WarmRates) {
	mux.Handle(TypeWarmRates, warm)
}

// Schedule registers the periodic warmup with scheduler.
func Schedule(scheduler *asynq.Scheduler, cronspec string) (string, error) {
	if cronspec == "" {
		cronspec = DefaultWarmSchedule
	}
	return scheduler.Register(cronspec, NewWarmRatesTask())
}

// DefaultWarmUniqueness keeps several booting workers from queueing
// duplicate warmups.
const DefaultWarmUniqueness = 10 * time.Minute
