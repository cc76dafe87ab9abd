package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	accessDenied    *prometheus.CounterVec
	mailDeliveries  *prometheus.CounterVec
	newsFetches     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cloudnotes_http_requests_total", Help: "HTTP requests by route and status"},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudnotes_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cloudnotes_logins_total", Help: "Login attempts"},
			[]string{"result"},
		),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cloudnotes_registrations_total", Help: "Registration attempts"},
			[]string{"result"},
		),
		accessDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cloudnotes_access_denied_total", Help: "Requests denied by access control"},
			[]string{"principal"},
		),
		mailDeliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cloudnotes_mail_deliveries_total", Help: "Contact mail deliveries"},
			[]string{"result"},
		),
		newsFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "cloudnotes_news_fetches_total", Help: "Headline fetches"},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.logins,
		m.registrations,
		m.accessDenied,
		m.mailDeliveries,
		m.newsFetches,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}

// AccessDenied counts a denial; authenticated distinguishes 403 from 401 outcomes.
func (m *Metrics) AccessDenied(authenticated bool) {
	if m == nil {
		return
	}
	label := "anonymous"
	if authenticated {
		label = "user"
	}
	m.accessDenied.WithLabelValues(label).Inc()
}

func (m *Metrics) MailDelivery(result string) {
	if m == nil {
		return
	}
	m.mailDeliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) NewsFetch(result string) {
	if m == nil {
		return
	}
	m.newsFetches.WithLabelValues(result).Inc()
}
