// Package metrics exposes faucet counters in the prometheus format.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TEENet-io/faucet-go/admission"
	"github.com/TEENet-io/faucet-go/agreement"
)

const namespace = "faucet"

// Metrics is both an admission.StatsRecorder and an agreement.MintReporter.
// It owns its registry, so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	admissions    *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	attempts      prometheus.Histogram
}

var _ admission.StatsRecorder = (*Metrics)(nil)
var _ agreement.MintReporter = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Admission decisions by asset and decision.",
		}, []string{"asset", "decision"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Capability invocations by asset and result.",
		}, []string{"asset", "result"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Confirmation polling outcomes by asset and result.",
		}, []string{"asset", "result"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_attempts",
			Help:      "Ledger queries spent per confirmation.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
	}
	m.registry.MustRegister(
		m.admissions,
		m.submissions,
		m.confirmations,
		m.attempts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Record(_ context.Context, asset string, d admission.Decision, _ time.Time) error {
	m.admissions.WithLabelValues(asset, d.String()).Inc()
	return nil
}

func (m *Metrics) Report(ev *agreement.MintEvent) {
	if ev == nil || ev.Request == nil {
		return
	}
	asset := ev.Request.Asset

	switch ev.Status {
	case agreement.Submitted:
		m.submissions.WithLabelValues(asset, "ok").Inc()
	case agreement.SubmitFailed:
		m.submissions.WithLabelValues(asset, "failed").Inc()
	case agreement.Confirmed:
		m.confirmations.WithLabelValues(asset, "confirmed").Inc()
		m.attempts.Observe(float64(ev.Attempts))
	case agreement.TimedOut:
		m.confirmations.WithLabelValues(asset, "timeout").Inc()
		m.attempts.Observe(float64(ev.Attempts))
	}
}
