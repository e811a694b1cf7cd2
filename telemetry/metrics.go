package telemetry

import (
	"context"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "featureprep"

// Metrics describes a single run. It owns its registry so that a push only
// carries the run's own series.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	rows          *prometheus.GaugeVec
	features      prometheus.Gauge
}

func NewMetrics() *Metrics {
	obj := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows",
			Help:      "Rows in each dataset subset.",
		}, []string{"subset"}),
		features: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      "Columns produced by the fitted transformer, target excluded.",
		}),
	}
	obj.registry.MustRegister(obj.stageDuration, obj.stageFailures, obj.rows, obj.features)
	return obj
}

func (obj *Metrics) Registry() *prometheus.Registry {
	return obj.registry
}

// ObserveStage records how long a stage took and whether it failed.
func (obj *Metrics) ObserveStage(stage string, started time.Time, err error) {
	obj.stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	if err != nil {
		obj.stageFailures.WithLabelValues(stage).Inc()
	}
}

func (obj *Metrics) SetRows(subset string, rows int64) {
	obj.rows.WithLabelValues(subset).Set(float64(rows))
}

func (obj *Metrics) SetFeatures(count int) {
	obj.features.Set(float64(count))
}

// Push sends the registry to a Pushgateway, grouped by run id.
func (obj *Metrics) Push(ctx context.Context, url, job, runID string) error {
	pusher := push.New(url, job).Gatherer(obj.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return errs.Wrap(err)
	}
	return nil
}
