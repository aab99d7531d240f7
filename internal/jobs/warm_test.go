package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festbook-cart/internal/lock"
)

type stubWarmer struct {
	calls int
	err   error
}

func (s *stubWarmer) Warm(context.Context) (string, error) {
	s.calls++
	return "2026-01-05", s.err
}

func newLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client}, mr
}

func TestWarmRatesRunsUnderLock(t *testing.T) {
	locker, mr := newLocker(t)
	warmer := &stubWarmer{}
	h := WarmRates{Rates: warmer, Lock: locker, LockTTL: time.Minute, Logger: zerolog.Nop()}

	require.NoError(t, h.ProcessTask(context.Background(), NewWarmRatesTask()))
	require.Equal(t, 1, warmer.calls)
	require.False(t, mr.Exists(warmLockKey))
}

func TestWarmRatesSkipsWhenLockHeld(t *testing.T) {
	locker, mr := newLocker(t)
	require.NoError(t, mr.Set(warmLockKey, "other-worker"))
	warmer := &stubWarmer{}
	h := WarmRates{Rates: warmer, Lock: locker, LockTTL: time.Minute, Logger: zerolog.Nop()}

	require.NoError(t, h.ProcessTask(context.Background(), NewWarmRatesTask()))
	require.Zero(t, warmer.calls)
}

func TestWarmRatesPropagatesFailureForRetry(t *testing.T) {
	locker, _ := newLocker(t)
	boom := errors.New("provider down")
	h := WarmRates{Rates: &stubWarmer{err: boom}, Lock: locker, Logger: zerolog.Nop()}

	err := h.ProcessTask(context.Background(), NewWarmRatesTask())
	require.ErrorIs(t, err, boom)
}

func TestNewWarmRatesTask(t *testing.T) {
	task := NewWarmRatesTask()
	require.Equal(t, TypeWarmRates, task.Type())
}

func TestLoggerTagsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	Logger(zerolog.New(&buf)).Warn("queue ", "paused")
	require.Contains(t, buf.String(), `"subsystem":"asynq"`)
	require.Contains(t, buf.String(), `"message":"queue paused"`)
}
