package resilience

import "github.com/prometheus/client_golang/prometheus"

// Outbound collectors are labelled by target, e.g. "fx_provider".
var (
	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "festbook",
		Subsystem: "outbound",
		Name:      "breaker_state",
		Help:      "Breaker state per target (0 closed, 1 open, 2 half-open).",
	}, []string{"target"})
	breakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festbook",
		Subsystem: "outbound",
		Name:      "breaker_transitions_total",
		Help:      "Breaker state changes per target.",
	}, []string{"target", "from", "to"})
	breakerOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festbook",
		Subsystem: "outbound",
		Name:      "breaker_opened_total",
		Help:      "Times the breaker tripped open per target.",
	}, []string{"target"})
	outboundAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festbook",
		Subsystem: "outbound",
		Name:      "attempts_total",
		Help:      "Outbound HTTP attempts per target and outcome (success, failure, rejected).",
	}, []string{"target", "outcome"})
)

func init() {
	prometheus.MustRegister(breakerState, breakerTransitions, breakerOpened, outboundAttempts)
}
