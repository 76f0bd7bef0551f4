// Package metrics exposes engine counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fellowmatch/service"
)

const namespace = "fellowmatch"

// Metrics implements service.RunObserver and broadcaster.DeliveryObserver.
type Metrics struct {
	reg *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	matched     prometheus.Gauge
	students    prometheus.Gauge
	proposals   prometheus.Counter
	rejections  prometheus.Counter
	evictions   prometheus.Counter
	deliveries  *prometheus.CounterVec
	backlog     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Matching run requests by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed matching runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		matched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matched_students",
			Help:      "Students matched by the last run.",
		}),
		students: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eligible_students",
			Help:      "Students with at least one application in the last run.",
		}),
		proposals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_total",
			Help:      "Proposals considered across runs.",
		}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Proposals rejected across runs.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Tentative holders displaced across runs.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_deliveries_total",
			Help:      "Outbox delivery attempts by outcome.",
		}, []string{"outcome"}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_backlog",
			Help:      "Outbox events not yet acknowledged after the last flush.",
		}),
	}

	m.reg.MustRegister(
		m.runs, m.runDuration, m.matched, m.students,
		m.proposals, m.rejections, m.evictions, m.deliveries, m.backlog,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RunCompleted(r service.Run) {
	m.runs.WithLabelValues("ok").Inc()
	m.runDuration.Observe(r.Duration.Seconds())
	m.matched.Set(float64(r.Result.Matched()))
	m.students.Set(float64(r.Students))
	m.proposals.Add(float64(r.Result.Stats.Proposals))
	m.rejections.Add(float64(r.Result.Stats.Rejections))
	m.evictions.Add(float64(r.Result.Stats.Evictions))
}

func (m *Metrics) RunFailed(err error) {
	if errors.Is(err, service.ErrRunInProgress) {
		m.runs.WithLabelValues("busy").Inc()
		return
	}
	m.runs.WithLabelValues("error").Inc()
}

func (m *Metrics) Delivered(ok bool) {
	if ok {
		m.deliveries.WithLabelValues("acked").Inc()
		return
	}
	m.deliveries.WithLabelValues("failed").Inc()
}

func (m *Metrics) Backlog(n int) {
	m.backlog.Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
