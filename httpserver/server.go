package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/andyle182810/dogview/middleware"
	"github.com/labstack/echo/v5"
	echomiddleware "github.com/labstack/echo/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	kilobyte         = 1 << 10
	megabyte         = 1 << 20
	gigabyte         = 1 << 30
	defaultBodyLimit = 1 * megabyte
)

var ErrNotRunning = errors.New("httpserver: server is not running")

type Config struct {
	Host         string
	Port         int
	EnableCors   bool
	AllowOrigins []string
	BodyLimit    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	GracePeriod  time.Duration
}

type Server struct {
	address      string
	gracePeriod  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	Echo         *echo.Echo
	Root         *echo.Group

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

func New(cfg *Config, extraLogFields ...middleware.LogFieldExtractor) *Server {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(
		echo.DefaultHTTPErrorHandler(false),
		&middleware.ErrorHandlerConfig{ //nolint:exhaustruct
			Logger:    &log.Logger,
			LogErrors: true,
		},
	)

	e.Pre(middleware.RequestID(echomiddleware.DefaultSkipper))
	e.Pre(middleware.RequestLogger(log.Logger, extraLogFields...))
	e.Pre(echomiddleware.BodyLimit(parseBodyLimit(cfg.BodyLimit)))

	if cfg.EnableCors {
		e.Use(echomiddleware.CORS(cfg.AllowOrigins...))
	}

	root := e.Group("")
	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	return &Server{ //nolint:exhaustruct
		gracePeriod:  cfg.GracePeriod,
		address:      address,
		Echo:         e,
		Root:         root,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
}

func parseBodyLimit(limit string) int64 {
	if limit == "" {
		return defaultBodyLimit
	}

	multiplier := int64(1)
	unit := limit[len(limit)-1:]

	switch unit {
	case "K", "k":
		multiplier = kilobyte
		limit = limit[:len(limit)-1]
	case "M", "m":
		multiplier = megabyte
		limit = limit[:len(limit)-1]
	case "G", "g":
		multiplier = gigabyte
		limit = limit[:len(limit)-1]
	}

	size, err := strconv.ParseInt(limit, 10, 64)
	if err != nil || size <= 0 {
		return defaultBodyLimit
	}

	return size * multiplier
}

// Start binds the listen address before returning, so a port conflict fails
// startup instead of only being logged.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{ //nolint:exhaustruct
		Handler:      s.Echo,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	log.Info().
		Str("address", listener.Addr().String()).
		Msg("The HTTP server is being started")

	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}(s.httpServer)

	return nil
}

// Addr is the bound address, useful when the configured port is 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return s.address
	}

	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	log.Info().
		Msg("The graceful shutdown of HTTP server is being initiated")

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return ErrNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracePeriod)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to gracefully stop HTTP server")

		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	log.Info().
		Msg("The HTTP server shutdown has been completed successfully")

	return nil
}

func (s *Server) Name() string {
	return "http"
}
