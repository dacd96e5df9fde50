package metricserver

import (
	"strconv"
	"time"

	"github.com/andyle182810/dogview/middleware"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dogview"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics owns a private registry so tests and multiple servers never
// collide on the default one.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	expired       prometheus.Counter
	factory       promauto.Factory
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by handler, method and status code.",
		}, []string{"handler", "method", "code"}),
		fetches: factory.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Name:      "image_fetches_total",
			Help:      "Settled image API requests, by outcome.",
		}, []string{"outcome"}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Name:      "image_fetch_duration_seconds",
			Help:      "Latency of settled image API requests.",
			Buckets:   prometheus.DefBuckets,
		}),
		expired: factory.NewCounter(prometheus.CounterOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions unmounted by the idle sweep.",
		}),
		factory: factory,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware counts requests once the handler and its error, if any, are
// resolved to a status.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			err := next(ctx)

			handler := middleware.GetHandler(ctx)
			if handler == "" {
				handler = "unknown"
			}

			status := middleware.ResponseStatus(ctx, err)

			m.requests.WithLabelValues(handler, ctx.Request().Method, strconv.Itoa(status)).Inc()

			return err
		}
	}
}

// ObserveFetch has the shape of fetch.Observer.
func (m *Metrics) ObserveFetch(_ string, err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}

	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

// ObserveSweep has the shape of the session janitor's sweep hook.
func (m *Metrics) ObserveSweep(removed, _ int) {
	m.expired.Add(float64(removed))
}

// TrackSessions exports the live session count, read from count at every
// scrape. It must be called at most once.
func (m *Metrics) TrackSessions(count func() int) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{ //nolint:exhaustruct
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Mounted page sessions.",
	}, func() float64 {
		return float64(count())
	})
}
