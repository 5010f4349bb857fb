package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the back-office.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	capChecks       *prometheus.CounterVec
	bonusAwards     *prometheus.CounterVec
	refIDCollisions prometheus.Counter
	flagTransitions *prometheus.CounterVec
	slaBreaches     prometheus.Counter
	storeErrors     *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "remit_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		capChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_cap_checks_total",
				Help: "Total monthly cap checks by result.",
			},
			[]string{"result"},
		),
		bonusAwards: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_bonus_awards_total",
				Help: "Total milestone bonuses awarded by tier.",
			},
			[]string{"tier"},
		),
		refIDCollisions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "remit_refid_collisions_total",
				Help: "Total reference id candidates rejected by the pre-check.",
			},
		),
		flagTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_flag_transitions_total",
				Help: "Total compliance flag transitions by action.",
			},
			[]string{"action"},
		),
		slaBreaches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "remit_sla_breaches_observed_total",
				Help: "Total SLA breaches observed on flag reads.",
			},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_store_errors_total",
				Help: "Total errors from the persistence layer.",
			},
			[]string{"store"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remit_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrCapCheck increments the cap check counter ("allowed" / "denied").
func (m *Metrics) IncrCapCheck(result string) {
	m.capChecks.WithLabelValues(result).Inc()
}

// IncrBonusAward increments the bonus award counter for a tier.
func (m *Metrics) IncrBonusAward(tier string) {
	m.bonusAwards.WithLabelValues(tier).Inc()
}

// IncrRefIDCollision increments the ref id collision counter.
func (m *Metrics) IncrRefIDCollision() {
	m.refIDCollisions.Inc()
}

// IncrFlagTransition increments the flag transition counter.
func (m *Metrics) IncrFlagTransition(action string) {
	m.flagTransitions.WithLabelValues(action).Inc()
}

// IncrSLABreach increments the observed SLA breach counter.
func (m *Metrics) IncrSLABreach() {
	m.slaBreaches.Inc()
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(store string) {
	m.storeErrors.WithLabelValues(store).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetComplianceSnapshot returns a snapshot of engine counters suitable
// for the GET /v1/metrics/compliance endpoint.
func (m *Metrics) GetComplianceSnapshot() *domain.ComplianceMetrics {
	allowed := getCounterValue(m.capChecks, "allowed")
	denied := getCounterValue(m.capChecks, "denied")
	total := allowed + denied

	denialRate := float64(0)
	if total > 0 {
		denialRate = denied / total
	}

	awarded := sumCounterVec(m.bonusAwards)
	transitions := sumCounterVec(m.flagTransitions)

	return &domain.ComplianceMetrics{
		CapChecksTotal:      int64(total),
		CapDenialRate:       denialRate,
		BonusesAwarded:      int64(awarded),
		RefIDCollisions:     int64(readCounter(m.refIDCollisions)),
		FlagTransitions:     int64(transitions),
		SLABreachesObserved: int64(readCounter(m.slaBreaches)),
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

// sumCounterVec totals every child of a CounterVec, whatever labels have
// been observed. Keeps the snapshot correct under a reconfigured
// milestone table.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	total := float64(0)
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if m.Counter != nil && m.Counter.Value != nil {
			total += *m.Counter.Value
		}
	}
	return total
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
