// Package metrics exposes Prometheus counters for the portfolio.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	Testimonials   *prometheus.CounterVec
	ContactEmails  *prometheus.CounterVec
	ProfileUpdates *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		Testimonials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_testimonials_total",
			Help: "Testimonial submissions by result.",
		}, []string{"result"}),
		ContactEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_contact_messages_total",
			Help: "Contact form submissions by delivery result.",
		}, []string{"result"}),
		ProfileUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_profile_updates_total",
			Help: "Profile saves by edited field group.",
		}, []string{"field"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.Testimonials,
		m.ContactEmails,
		m.ProfileUpdates,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
