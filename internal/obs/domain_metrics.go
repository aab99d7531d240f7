package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ReconcileTotal counts reconciliation passes by result.
	ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_total",
		Help: "Cart reconciliation passes by result.",
	}, []string{"result"})
	// ReconcileEventsTotal counts line events produced by reconciliation.
	ReconcileEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_events_total",
		Help: "Cart line events produced during reconciliation by kind.",
	}, []string{"kind"})
	// FXRateFetchTotal counts rate provider fetches by result.
	FXRateFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_rate_fetch_total",
		Help: "Exchange rate table fetches by result.",
	}, []string{"result"})
	// FXCacheLookupsTotal counts rate table lookups by the tier that answered.
	FXCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_cache_lookups_total",
		Help: "Exchange rate table lookups by result.",
	}, []string{"result"})
)

// MustRegisterDomainMetrics registers the domain collectors under namespace.
// Until it is called the collectors still count but are not exported.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Cart reconciliation passes by result.",
		}, []string{"result"})
		ReconcileEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_events_total",
			Help:      "Cart line events produced during reconciliation by kind.",
		}, []string{"kind"})
		FXRateFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_rate_fetch_total",
			Help:      "Exchange rate table fetches by result.",
		}, []string{"result"})
		FXCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_cache_lookups_total",
			Help:      "Exchange rate table lookups by result.",
		}, []string{"result"})

		ReconcileTotal = register(reg, ReconcileTotal)
		ReconcileEventsTotal = register(reg, ReconcileEventsTotal)
		FXRateFetchTotal = register(reg, FXRateFetchTotal)
		FXCacheLookupsTotal = register(reg, FXCacheLookupsTotal)
	})
}
