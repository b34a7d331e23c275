package promobs

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modelmux/modelmux/providers/observability"
)

// Observer implements observability.Provider by exporting metrics to a
// Prometheus registry while delegating tracing and logging to a base provider.
// Counter and histogram updates are forwarded to the base provider as well, so
// attribute-rich debug logs are preserved alongside the exported series.
//
// Per-call attributes are not mapped to Prometheus labels: label sets must be
// declared up front and unbounded attribute values (model names, URLs) would
// create unbounded cardinality.
type Observer struct {
	base     observability.Provider
	registry *prometheus.Registry

	mu         sync.RWMutex
	counters   map[string]*promCounter
	histograms map[string]*promHistogram
}

// Option configures the Observer.
type Option func(*Observer)

// WithRegistry uses the given Prometheus registry instead of creating a
// private one. Useful when the process already exposes a registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *Observer) {
		o.registry = registry
	}
}

// New creates a Prometheus-backed observer wrapping the base provider.
// The base provider handles StartSpan and all log levels; metric updates are
// recorded in the Prometheus registry and mirrored to the base provider.
func New(base observability.Provider, opts ...Option) *Observer {
	observer := &Observer{
		base:       base,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*promCounter),
		histograms: make(map[string]*promHistogram),
	}
	for _, opt := range opts {
		opt(observer)
	}
	return observer
}

// Ensure Observer implements observability.Provider
var _ observability.Provider = (*Observer)(nil)

// Handler returns an http.Handler serving the registry in the Prometheus
// exposition format. Mount it on a mux, typically at /metrics.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// --- TRACING (delegated) ---

// StartSpan delegates to the base provider.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	return o.base.StartSpan(ctx, name, attrs...)
}

// --- METRICS ---

// Counter returns a named counter exported to the Prometheus registry.
// Repeated calls with the same name return the same counter instance.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.RLock()
	counter, exists := o.counters[name]
	o.mu.RUnlock()
	if exists {
		return counter
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if counter, exists := o.counters[name]; exists {
		return counter
	}

	promCtr := prometheus.NewCounter(prometheus.CounterOpts{
		Name: sanitizeMetricName(name),
		Help: "Bridged counter " + name,
	})
	if err := o.registry.Register(promCtr); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			promCtr = already.ExistingCollector.(prometheus.Counter)
		}
	}

	counter = &promCounter{prom: promCtr, base: o.base.Counter(name)}
	o.counters[name] = counter
	return counter
}

// Histogram returns a named histogram exported to the Prometheus registry.
// Repeated calls with the same name return the same histogram instance.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.RLock()
	histogram, exists := o.histograms[name]
	o.mu.RUnlock()
	if exists {
		return histogram
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if histogram, exists := o.histograms[name]; exists {
		return histogram
	}

	promHist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    sanitizeMetricName(name),
		Help:    "Bridged histogram " + name,
		Buckets: prometheus.DefBuckets,
	})
	if err := o.registry.Register(promHist); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			promHist = already.ExistingCollector.(prometheus.Histogram)
		}
	}

	histogram = &promHistogram{prom: promHist, base: o.base.Histogram(name)}
	o.histograms[name] = histogram
	return histogram
}

type promCounter struct {
	prom prometheus.Counter
	base observability.Counter
}

// Add increments the exported counter and mirrors the update to the base provider.
func (c *promCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.prom.Add(float64(value))
	if c.base != nil {
		c.base.Add(ctx, value, attrs...)
	}
}

type promHistogram struct {
	prom prometheus.Histogram
	base observability.Histogram
}

// Record observes the value on the exported histogram and mirrors it to the base provider.
func (h *promHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.prom.Observe(value)
	if h.base != nil {
		h.base.Record(ctx, value, attrs...)
	}
}

// --- LOGGING (delegated) ---

// Trace delegates to the base provider.
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.base.Trace(ctx, msg, attrs...)
}

// Debug delegates to the base provider.
func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.base.Debug(ctx, msg, attrs...)
}

// Info delegates to the base provider.
func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.base.Info(ctx, msg, attrs...)
}

// Warn delegates to the base provider.
func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.base.Warn(ctx, msg, attrs...)
}

// Error delegates to the base provider.
func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.base.Error(ctx, msg, attrs...)
}

// sanitizeMetricName converts a dotted metric name to the Prometheus naming
// scheme: [a-zA-Z_:][a-zA-Z0-9_:]*. Dots and other invalid runes become '_'.
func sanitizeMetricName(name string) string {
	var builder strings.Builder
	builder.Grow(len(name))
	for i, r := range name {
		valid := r == '_' || r == ':' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if valid {
			builder.WriteRune(r)
		} else {
			builder.WriteByte('_')
		}
	}
	return builder.String()
}
