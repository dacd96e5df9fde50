package main

import (
	"fmt"
	"os"
	"time"

	"github.com/andyle182810/dogview/httpserver"
	"github.com/andyle182810/dogview/internal/config"
	"github.com/andyle182810/dogview/internal/dogapi"
	"github.com/andyle182810/dogview/internal/fetch"
	"github.com/andyle182810/dogview/internal/service"
	"github.com/andyle182810/dogview/internal/session"
	"github.com/andyle182810/dogview/logutil"
	"github.com/andyle182810/dogview/metricserver"
	"github.com/andyle182810/dogview/middleware"
	"github.com/andyle182810/dogview/runner"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application exited with an error")
	}

	log.Info().Msg("Application shutdown complete")
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logutil.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	metrics := metricserver.NewMetrics()

	client := dogapi.New(
		cfg.DogAPIBaseURL,
		dogapi.WithTimeout(cfg.DogAPITimeout),
		dogapi.WithMaxResponseSize(cfg.DogAPIMaxResponseSize),
		dogapi.WithRateLimit(cfg.DogAPIRateLimit, cfg.DogAPIRateBurst),
		dogapi.WithRequestIDKey(middleware.RequestIDContextKey),
	)

	sessions := session.NewRegistry(
		func() *fetch.Hook[dogapi.Image] {
			return fetch.New(client.Fetch, fetch.WithObserver(observeFetch(metrics)))
		},
		session.WithTTL(cfg.SessionTTL),
		session.WithMaxSessions(cfg.SessionMax),
	)
	defer sessions.Close()

	metrics.TrackSessions(sessions.Len)

	svc, err := service.New(client, sessions, service.Config{
		DefaultBreed: cfg.DefaultBreed,
		RenderWait:   cfg.PageRenderWait,
		Refresh:      cfg.PageRefreshRate,
		CookieMaxAge: cfg.SessionTTL,
		CookieSecure: cfg.SessionCookieSecure,
	})
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	app := &application{
		cfg:     cfg,
		metrics: metrics,
		svc:     svc,
	}

	janitor := session.NewJanitor(
		sessions,
		session.WithSweepInterval(cfg.SessionSweepInterval),
		session.WithSweepHook(metrics.ObserveSweep),
	)

	appRunner := runner.New(
		runner.WithInfrastructureService(app.newMetricServer()),
		runner.WithCoreService(app.newHTTPServer()),
		runner.WithCoreService(janitor),
		runner.WithShutdownTimeout(cfg.GracefulShutdownPeriod),
	)

	if err := appRunner.Run(); err != nil {
		return fmt.Errorf("runner failed: %w", err)
	}

	return nil
}

type application struct {
	cfg     *config.Config
	svc     *service.Service
	metrics *metricserver.Metrics
}

func (app *application) newHTTPServer() *httpserver.Server {
	httpCfg := &httpserver.Config{
		Host:         app.cfg.HTTPServerHost,
		Port:         app.cfg.HTTPServerPort,
		EnableCors:   app.cfg.HTTPEnableCORS,
		AllowOrigins: app.cfg.HTTPAllowOrigins,
		BodyLimit:    app.cfg.HTTPBodyLimit,
		ReadTimeout:  app.cfg.HTTPServerReadTimeout,
		WriteTimeout: app.cfg.HTTPServerWriteTimeout,
		GracePeriod:  app.cfg.GracefulShutdownPeriod,
	}

	svr := httpserver.New(httpCfg)
	app.registerRoutes(svr.Echo, svr.Root)

	return svr
}

func (app *application) newMetricServer() *metricserver.Server {
	metricCfg := &metricserver.Config{
		Host:         app.cfg.MetricServerHost,
		Port:         app.cfg.MetricServerPort,
		ReadTimeout:  app.cfg.MetricServerReadTimeout,
		WriteTimeout: app.cfg.MetricServerWriteTimeout,
		GracePeriod:  app.cfg.GracefulShutdownPeriod,
	}

	return metricserver.New(metricCfg, app.metrics)
}

func (app *application) registerRoutes(e *echo.Echo, root *echo.Group) {
	e.Use(app.metrics.Middleware())
	app.svc.RegisterRoutes(root)
}

func observeFetch(metrics *metricserver.Metrics) fetch.Observer {
	return func(url string, err error, elapsed time.Duration) {
		metrics.ObserveFetch(url, err, elapsed)

		if err != nil {
			log.Warn().Err(err).Str("url", url).Dur("elapsed", elapsed).Msg("Dog image request failed")

			return
		}

		log.Debug().Str("url", url).Dur("elapsed", elapsed).Msg("Dog image request completed")
	}
}
