// Package metrics holds the prometheus collectors of the invitation service.
// All methods are safe on a nil *Metrics so tests and the CLI can skip them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/magicontap/tapdash/internal/invites/domain"
	"github.com/magicontap/tapdash/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invites"

type Metrics struct {
	registry *prometheus.Registry

	issued       *prometheus.CounterVec
	failed       *prometheus.CounterVec
	dispatches   *prometheus.CounterVec
	outbox       *prometheus.GaugeVec
	expired      prometheus.Counter
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issued_total",
			Help:      "Invitations issued, by role.",
		}, []string{"role"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issue_failures_total",
			Help:      "Issue attempts that did not produce an invitation, by reason.",
		}, []string{"reason"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_attempts_total",
			Help:      "Invite emails handed to the auth provider, by source and result.",
		}, []string{"source", "result"}),
		outbox: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_dispatches",
			Help:      "Outbox rows by status as of the last dispatcher pass.",
		}, []string{"status"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_total",
			Help:      "Pending invitations moved to expired by housekeeping.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	reg.MustRegister(m.issued, m.failed, m.dispatches, m.outbox, m.expired, m.httpDuration)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Issued(role domain.Role) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(string(role)).Inc()
}

// IssueFailed reasons: invalid, forbidden, duplicate, dispatch, internal.
func (m *Metrics) IssueFailed(reason string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(reason).Inc()
}

// DispatchAttempt source is "sync" for the request path and "outbox" for
// the retry worker.
func (m *Metrics) DispatchAttempt(source string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.dispatches.WithLabelValues(source, result).Inc()
}

func (m *Metrics) SetOutbox(s domain.DispatchSummary) {
	if m == nil {
		return
	}
	m.outbox.WithLabelValues(string(domain.DispatchPending)).Set(float64(s.Pending))
	m.outbox.WithLabelValues(string(domain.DispatchProcessing)).Set(float64(s.Processing))
	m.outbox.WithLabelValues(string(domain.DispatchDead)).Set(float64(s.Dead))
}

func (m *Metrics) Expired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}

// Instrument times requests to route.
func (m *Metrics) Instrument(route string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			m.httpDuration.
				WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
