// Package metrics holds the Prometheus collectors shared by the server, the
// bill service and the backup worker. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bills"

// Backup targets and results used as label values.
const (
	TargetLocal = "local"
	TargetDrive = "drive"
	TargetQueue = "queue"

	ResultSuccess = "success"
	ResultError   = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	BillsCreated prometheus.Counter
	BillsDeleted prometheus.Counter
	FilesStored  prometheus.Counter
	Backups      *prometheus.CounterVec
	Restores     *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	RateLimited  prometheus.Counter
	Suspicious   prometheus.Counter
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		BillsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Bills created, including duplicates.",
		}),
		BillsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_deleted_total",
			Help:      "Bills deleted.",
		}),
		FilesStored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_stored_total",
			Help:      "Attachments written to the blob store.",
		}),
		Backups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backups by target and result.",
		}, []string{"target", "result"}),
		Restores: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restores_total",
			Help:      "Restores by source and result.",
		}, []string{"target", "result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		Suspicious: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "suspicious_requests_total",
			Help:      "Requests matching a known probe or attack pattern.",
		}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) BillCreated() {
	if m != nil {
		m.BillsCreated.Inc()
	}
}

func (m *Metrics) BillDeleted() {
	if m != nil {
		m.BillsDeleted.Inc()
	}
}

func (m *Metrics) FileStored() {
	if m != nil {
		m.FilesStored.Inc()
	}
}

// Backup records one backup attempt against target.
func (m *Metrics) Backup(target string, err error) {
	if m != nil {
		m.Backups.WithLabelValues(target, result(err)).Inc()
	}
}

// Restore records one restore attempt from target.
func (m *Metrics) Restore(target string, err error) {
	if m != nil {
		m.Restores.WithLabelValues(target, result(err)).Inc()
	}
}

func (m *Metrics) RateLimitHit() {
	if m != nil {
		m.RateLimited.Inc()
	}
}

func (m *Metrics) SuspiciousRequest() {
	if m != nil {
		m.Suspicious.Inc()
	}
}

// ObserveHTTP records a finished request. route is the mux pattern, never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
