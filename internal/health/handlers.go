// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/festbook-cart/internal/common"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe checks the cart's stateful dependencies.
type Probe struct {
	DB    Pinger
	Redis redis.Cmdable
}

// Check pings each configured dependency with its own timeout and reports
// "ok" or the failure text per dependency.
func (p Probe) Check(ctx context.Context, timeout time.Duration) (map[string]string, bool) {
	status := make(map[string]string, 2)
	healthy := true
	record := func(name string, ping func(context.Context) error) {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := ping(cctx); err != nil {
			status[name] = err.Error()
			healthy = false
			return
		}
		status[name] = "ok"
	}
	if p.DB != nil {
		record("db", p.DB.Ping)
	}
	if p.Redis != nil {
		record("redis", func(ctx context.Context) error { return p.Redis.Ping(ctx).Err() })
	}
	return status, healthy
}

// Handler exposes the probes over HTTP. Once draining is set, readiness
// fails so load balancers stop routing before shutdown.
type Handler struct {
	Probe    Probe
	Timeout  time.Duration
	draining atomic.Bool
}

// Drain marks the process as shutting down.
func (h *Handler) Drain() { h.draining.Store(true) }

// Live reports that the process is up.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether dependencies answer and the process is not draining.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	status, ok := h.Probe.Check(r.Context(), timeout)
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}
