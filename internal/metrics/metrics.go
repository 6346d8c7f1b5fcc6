// Package metrics owns the service's Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider groups every collector behind a private registry, so tests can create
// as many as they like without duplicate-registration panics.
type Provider struct {
	registry *prometheus.Registry

	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	upstream       *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	requests       *prometheus.HistogramVec
	previews       prometheus.Gauge
}

func New() *Provider {
	p := &Provider{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "widget_renders_total",
			Help: "Widget renders by type and outcome.",
		}, []string{"type", "outcome"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "widget_render_duration_seconds",
			Help:    "Time to produce a widget, upstream fetches included.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"type"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "github_requests_total",
			Help: "GitHub REST calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "A histogram of duration for requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"code", "handler", "method"}),
		previews: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "widget_previews_active",
			Help: "Server-held preview controllers.",
		}),
	}
	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.renders,
		p.renderDuration,
		p.upstream,
		p.cacheLookups,
		p.requests,
		p.previews,
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (p *Provider) Registry() *prometheus.Registry { return p.registry }

func (p *Provider) ObserveRender(widgetType, outcome string, d time.Duration) {
	p.renders.WithLabelValues(widgetType, outcome).Inc()
	p.renderDuration.WithLabelValues(widgetType).Observe(d.Seconds())
}

func (p *Provider) ObserveUpstream(endpoint, outcome string) {
	p.upstream.WithLabelValues(endpoint, outcome).Inc()
}

// CacheLookup returns a hit/miss observer for the named cache.
func (p *Provider) CacheLookup(cache string) func(hit bool) {
	hits := p.cacheLookups.WithLabelValues(cache, "hit")
	misses := p.cacheLookups.WithLabelValues(cache, "miss")
	return func(hit bool) {
		if hit {
			hits.Inc()
		} else {
			misses.Inc()
		}
	}
}

func (p *Provider) SetPreviews(n int) { p.previews.Set(float64(n)) }

// ObserveRequest records one HTTP request. handler should be a route pattern,
// never a raw path.
func (p *Provider) ObserveRequest(handler, method string, status int, d time.Duration) {
	p.requests.WithLabelValues(strconv.Itoa(status), handler, method).Observe(d.Seconds())
}
