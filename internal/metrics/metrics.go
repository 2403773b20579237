package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the knotwatch collectors on a private registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	cacheLookups  *prometheus.CounterVec
	upstreamCalls *prometheus.CounterVec
	pipelineRuns  *prometheus.CounterVec
	seriesPoints  prometheus.Gauge
	markerShare   prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "knotwatch_cache_lookups_total",
				Help: "Cache reads by key and result (hit, miss, stale)",
			},
			[]string{"key", "result"},
		),
		upstreamCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "knotwatch_upstream_requests_total",
				Help: "Requests to the crawler API by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		pipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "knotwatch_pipeline_runs_total",
				Help: "Completed pipeline cycles by pipeline and outcome",
			},
			[]string{"pipeline", "outcome"},
		),
		seriesPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "knotwatch_history_points",
			Help: "Points in the last historical series",
		}),
		markerShare: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "knotwatch_marker_share_percent",
			Help: "Share of nodes matching the marker in the latest snapshot",
		}),
	}

	r.registry.MustRegister(r.cacheLookups, r.upstreamCalls, r.pipelineRuns, r.seriesPoints, r.markerShare)
	return r
}

func (r *Recorder) CacheLookup(key, result string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(key, result).Inc()
}

func (r *Recorder) Upstream(kind string, err error) {
	if r == nil {
		return
	}
	r.upstreamCalls.WithLabelValues(kind, outcome(err)).Inc()
}

func (r *Recorder) Pipeline(name string, err error) {
	if r == nil {
		return
	}
	r.pipelineRuns.WithLabelValues(name, outcome(err)).Inc()
}

func (r *Recorder) SetSeriesPoints(n int) {
	if r == nil {
		return
	}
	r.seriesPoints.Set(float64(n))
}

func (r *Recorder) SetMarkerShare(pct float64) {
	if r == nil {
		return
	}
	r.markerShare.Set(pct)
}

// Handler exposes the private registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
