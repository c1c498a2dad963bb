package observability

import (
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	upstreamLatencySeconds     *prometheus.HistogramVec
	trailBuilds                *prometheus.CounterVec
	trailBuildSeconds          prometheus.Histogram
	trailHops                  prometheus.Histogram
	trailPoints                prometheus.Histogram
	geometryReuses             prometheus.Counter
	stageErrors                *prometheus.CounterVec
	cacheOps                   *prometheus.CounterVec
	cacheOpSeconds             *prometheus.HistogramVec
	cacheResults               *prometheus.CounterVec
}

func newCollectors() *collectors {
	return &collectors{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
			},
			[]string{"method", "route", "status"},
		),
		upstreamLatencySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_latency_seconds",
				Help:    "Latency of upstream calls in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"upstream"},
		),
		trailBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trail_builds_total",
				Help: "Trail reconstructions by outcome.",
			},
			[]string{"outcome"},
		),
		trailBuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trail_build_duration_seconds",
			Help:    "Time spent walking a hop sequence.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		trailHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trail_hops",
			Help:    "Number of hops per trail.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		trailPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trail_points",
			Help:    "Number of coordinates per trail.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 12),
		}),
		geometryReuses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trail_geometry_reuses_total",
			Help: "Traversals that repeated an already used edge geometry.",
		}),
		stageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_stage_errors_total",
				Help: "Pipeline failures by stage.",
			},
			[]string{"stage"},
		),
		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_op_total",
				Help: "Cache operations by op and result.",
			},
			[]string{"op", "result"},
		),
		cacheOpSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redis_operation_duration_seconds",
				Help:    "Duration of redis operations in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"op"},
		),
		cacheResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_results_total",
				Help: "Cache results by outcome.",
			},
			[]string{"outcome", "cache"},
		),
	}
}

func (c *collectors) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.httpRequestsTotal, c.httpRequestDurationSeconds, c.upstreamLatencySeconds,
		c.trailBuilds, c.trailBuildSeconds, c.trailHops, c.trailPoints,
		c.geometryReuses, c.stageErrors, c.cacheOps, c.cacheOpSeconds, c.cacheResults,
	}
}

var current atomic.Pointer[collectors]

func init() {
	c := newCollectors()
	register(prometheus.DefaultRegisterer, c)
	current.Store(c)
}

func register(reg prometheus.Registerer, c *collectors) {
	for _, col := range c.all() {
		if err := reg.Register(col); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}

// Init points all metrics at reg. With enabled=false metrics are still
// recorded but never exported.
func Init(reg prometheus.Registerer, enabled bool) {
	c := newCollectors()
	if enabled && reg != nil {
		register(reg, c)
	}
	current.Store(c)
}

func m() *collectors { return current.Load() }

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	m().httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	m().httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	m().upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func ObserveTrailBuild(outcome string, hops, points int, durationSeconds float64) {
	c := m()
	c.trailBuilds.WithLabelValues(outcome).Inc()
	c.trailBuildSeconds.Observe(durationSeconds)
	if outcome == "ok" {
		c.trailHops.Observe(float64(hops))
		c.trailPoints.Observe(float64(points))
	}
}

func AddGeometryReuses(n int) {
	if n > 0 {
		m().geometryReuses.Add(float64(n))
	}
}

func IncStageError(stage string) {
	m().stageErrors.WithLabelValues(stage).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m().cacheOps.WithLabelValues(op, result).Inc()
	m().cacheOpSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncCacheHit(cache string) {
	m().cacheResults.WithLabelValues("hit", cache).Inc()
}

func IncCacheMiss(cache string) {
	m().cacheResults.WithLabelValues("miss", cache).Inc()
}
