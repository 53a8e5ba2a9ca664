package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for wave scans.
type Metrics struct {
	ScansTotal          *prometheus.CounterVec   // labels: interval, outcome
	ScanErrors          *prometheus.CounterVec   // labels: interval
	ScanDuration        *prometheus.HistogramVec // labels: interval
	CandidatesEvaluated *prometheus.CounterVec   // labels: interval
	AlertsSent          prometheus.Counter
	LastCurrentPrice    *prometheus.GaugeVec // labels: interval

	gatherer prometheus.Gatherer
}

// New creates and registers all collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wave_scans_total",
			Help: "Completed wave scans by outcome",
		}, []string{"interval", "outcome"}),
		ScanErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wave_scan_errors_total",
			Help: "Scans that failed before detection (data source errors)",
		}, []string{"interval"}),
		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wave_scan_duration_seconds",
			Help:    "Time to fetch and scan one timeframe",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"interval"}),
		CandidatesEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wave_candidates_evaluated_total",
			Help: "Wave triples written to the audit log",
		}, []string{"interval"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wave_alerts_sent_total",
			Help: "Telegram alerts sent for newly confirmed waves",
		}),
		LastCurrentPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wave_last_price",
			Help: "Most recent close seen per timeframe",
		}, []string{"interval"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.ScansTotal,
		m.ScanErrors,
		m.ScanDuration,
		m.CandidatesEvaluated,
		m.AlertsSent,
		m.LastCurrentPrice,
	)
	return m
}

// ObserveScan records one finished scan.
func (m *Metrics) ObserveScan(interval, outcome string, candidates int, price float64, d time.Duration) {
	m.ScansTotal.WithLabelValues(interval, outcome).Inc()
	m.ScanDuration.WithLabelValues(interval).Observe(d.Seconds())
	m.CandidatesEvaluated.WithLabelValues(interval).Add(float64(candidates))
	m.LastCurrentPrice.WithLabelValues(interval).Set(price)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
