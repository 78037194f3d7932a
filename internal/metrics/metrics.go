package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// UpstreamRequests counts Samsara API requests by endpoint and status
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "samsara_requests_total", Help: "Upstream API requests by endpoint and status."},
		[]string{"endpoint", "status"},
	)
	// UpstreamDuration records upstream request durations in seconds
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "samsara_request_duration_seconds", Help: "Upstream API request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"endpoint", "status"},
	)

	// CacheLookups counts fetch-cache lookups by endpoint and outcome
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fetch_cache_lookups_total", Help: "Fetch cache lookups by endpoint and hit/miss."},
		[]string{"endpoint", "outcome"},
	)

	// RefreshCycles counts completed aggregation cycles by result
	RefreshCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "refresh_cycles_total", Help: "Aggregation refresh cycles by result."},
		[]string{"result"},
	)
	// RefreshDuration records full-cycle durations in seconds
	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "refresh_cycle_duration_seconds", Help: "Aggregation cycle duration in seconds.", Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}},
	)

	// TwinCount tracks twins in the latest snapshot
	TwinCount = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "digital_twins", Help: "Twins in the latest snapshot."},
	)
	// TwinAlerts tracks twins currently in the alert state
	TwinAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "digital_twin_alerts", Help: "Twins in alert state in the latest snapshot."},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(UpstreamRequests)
		Registry.MustRegister(UpstreamDuration)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(RefreshCycles)
		Registry.MustRegister(RefreshDuration)
		Registry.MustRegister(TwinCount)
		Registry.MustRegister(TwinAlerts)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
