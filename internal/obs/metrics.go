package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics shared by every endpoint.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the service reports ready, 0 otherwise.",
	})
)

// Ledger domain metrics.
var (
	journalEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_journal_entries_total",
			Help: "Journal entries written, labelled by source kind.",
		},
		[]string{"source"},
	)

	unbalancedRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_unbalanced_entries_rejected_total",
		Help: "Journal entries rejected because debits did not equal credits.",
	})

	reportBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_report_builds_total",
			Help: "Derived report builds, labelled by report kind.",
		},
		[]string{"report"},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration, ready,
		journalEntriesTotal, unbalancedRejectedTotal, reportBuildsTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady flips the readiness gauge.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
		return
	}
	ready.Set(0)
}

// CountJournalEntry records a persisted journal entry by source kind.
func CountJournalEntry(source string) {
	journalEntriesTotal.WithLabelValues(source).Inc()
}

// CountUnbalancedRejection records a rejected unbalanced entry.
func CountUnbalancedRejection() {
	unbalancedRejectedTotal.Inc()
}

// CountReportBuild records one derived report computation.
func CountReportBuild(report string) {
	reportBuildsTotal.WithLabelValues(report).Inc()
}

// Instrument wraps next with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses resource identifiers so metric label cardinality
// stays bounded: /v1/accounts/01H... -> /v1/accounts/:id.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	parts := strings.Split(p, "/")
	// part layout: "" / "v1" / resource / id / subresource...
	if len(parts) >= 4 && parts[1] == "v1" {
		switch parts[2] {
		case "accounts", "customers", "suppliers", "products",
			"journal-entries", "invoices", "purchase-invoices",
			"receive-payments", "pay-bills", "expenses",
			"ledger", "customer-ledger", "supplier-ledger", "product-ledger":
			if parts[3] != "" && !isStaticSegment(parts[2], parts[3]) {
				parts[3] = ":id"
			}
			if len(parts) <= 5 {
				return strings.Join(parts, "/")
			}
		}
	}
	return p
}

func isStaticSegment(resource, seg string) bool {
	switch resource {
	case "accounts":
		return seg == "cash-summary" || seg == "bank-summary"
	case "products":
		return seg == "low-stock"
	case "invoices":
		return seg == "last-bill-no" || seg == "by-bill-no"
	}
	return false
}

// statusWriter is a local copy so we can observe the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
