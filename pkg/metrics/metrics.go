// Package metrics exposes Prometheus counters for transfers, merges and
// the device protocol server.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sdejongh/devsync/pkg/models"
)

const namespace = "devsync"

// Collector bundles the devsync metrics. A nil *Collector ignores every
// observation, so callers never need to check whether metrics are on.
type Collector struct {
	gatherer prometheus.Gatherer

	Transfers        *prometheus.CounterVec
	TransferBytes    *prometheus.CounterVec
	TransferDuration *prometheus.HistogramVec
	TransferErrors   *prometheus.CounterVec
	Merges           *prometheus.CounterVec
	MergeDuration    prometheus.Histogram
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on one registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Transfers, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfers_total",
		Help:      "Files processed by merges, labeled by direction and outcome.",
	}, []string{"direction", "outcome"})); err != nil {
		return nil, err
	}

	if c.TransferBytes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfer_bytes_total",
		Help:      "Bytes moved by successful transfers, labeled by direction.",
	}, []string{"direction"})); err != nil {
		return nil, err
	}

	if c.TransferDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transfer_duration_seconds",
		Help:      "Time spent on one file including retries.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"direction"})); err != nil {
		return nil, err
	}

	if c.TransferErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transfer_errors_total",
		Help:      "Failed transfer attempts, labeled by error category.",
	}, []string{"category"})); err != nil {
		return nil, err
	}

	if c.Merges, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "merges_total",
		Help:      "Finished merges, labeled by final status.",
	}, []string{"status"})); err != nil {
		return nil, err
	}

	if c.MergeDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "merge_duration_seconds",
		Help:      "Wall time of a merge.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})); err != nil {
		return nil, err
	}

	if c.Requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "server_requests_total",
		Help:      "Device protocol requests served, labeled by method and status code.",
	}, []string{"code", "method"})); err != nil {
		return nil, err
	}

	if c.RequestDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "server_request_duration_seconds",
		Help:      "Device protocol request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})); err != nil {
		return nil, err
	}

	return c, nil
}

// ObserveTransfer records the final outcome of one file
func (c *Collector) ObserveTransfer(o models.FileOutcome, elapsed time.Duration) {
	if c == nil {
		return
	}
	dir := string(o.Direction)
	c.Transfers.WithLabelValues(dir, string(o.Outcome)).Inc()
	if o.Transferred() {
		c.TransferBytes.WithLabelValues(dir).Add(float64(o.Bytes))
		c.TransferDuration.WithLabelValues(dir).Observe(elapsed.Seconds())
	}
}

// ObserveError records one failed attempt
func (c *Collector) ObserveError(category models.ErrorCategory) {
	if c == nil {
		return
	}
	c.TransferErrors.WithLabelValues(string(category)).Inc()
}

// ObserveMerge records a finished merge
func (c *Collector) ObserveMerge(report *models.MergeReport) {
	if c == nil || report == nil {
		return
	}
	c.Merges.WithLabelValues(string(report.Status)).Inc()
	c.MergeDuration.Observe(report.Duration.Seconds())
}

// InstrumentHandler counts and times requests served by h
func (c *Collector) InstrumentHandler(h http.Handler) http.Handler {
	if c == nil {
		return h
	}
	return promhttp.InstrumentHandlerCounter(c.Requests,
		promhttp.InstrumentHandlerDuration(c.RequestDuration, h))
}

// Handler exposes a /metrics handler for the collector's registry
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
