package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Application
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP Server
	HTTPServerHost         string        `env:"HTTP_SERVER_HOST"          envDefault:"0.0.0.0"`
	HTTPServerPort         int           `env:"HTTP_SERVER_PORT"          envDefault:"8080"`
	HTTPEnableCORS         bool          `env:"HTTP_ENABLE_CORS"          envDefault:"false"`
	HTTPAllowOrigins       []string      `env:"HTTP_ALLOW_ORIGINS"        envSeparator:","`
	HTTPBodyLimit          string        `env:"HTTP_BODY_LIMIT"           envDefault:"1M"`
	HTTPServerReadTimeout  time.Duration `env:"HTTP_SERVER_READ_TIMEOUT"  envDefault:"30s"`
	HTTPServerWriteTimeout time.Duration `env:"HTTP_SERVER_WRITE_TIMEOUT" envDefault:"30s"`

	// Metric Server
	MetricServerHost         string        `env:"METRIC_SERVER_HOST"          envDefault:"0.0.0.0"`
	MetricServerPort         int           `env:"METRIC_SERVER_PORT"          envDefault:"9090"`
	MetricServerReadTimeout  time.Duration `env:"METRIC_SERVER_READ_TIMEOUT"  envDefault:"10s"`
	MetricServerWriteTimeout time.Duration `env:"METRIC_SERVER_WRITE_TIMEOUT" envDefault:"10s"`

	// Graceful Shutdown
	GracefulShutdownPeriod time.Duration `env:"GRACEFUL_SHUTDOWN_PERIOD" envDefault:"10s"`

	// Image API
	DogAPIBaseURL         string        `env:"DOG_API_BASE_URL"          envDefault:"https://dog.ceo/api"`
	DogAPITimeout         time.Duration `env:"DOG_API_TIMEOUT"           envDefault:"10s"`
	DogAPIMaxResponseSize int64         `env:"DOG_API_MAX_RESPONSE_SIZE" envDefault:"65536"`
	DogAPIRateLimit       float64       `env:"DOG_API_RATE_LIMIT"        envDefault:"10"`
	DogAPIRateBurst       int           `env:"DOG_API_RATE_BURST"        envDefault:"5"`

	// Page
	DefaultBreed    string        `env:"DEFAULT_BREED"`
	PageRenderWait  time.Duration `env:"PAGE_RENDER_WAIT"      envDefault:"1s"`
	PageRefreshRate time.Duration `env:"PAGE_REFRESH_INTERVAL" envDefault:"2s"`

	// Sessions
	SessionTTL           time.Duration `env:"SESSION_TTL"            envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	SessionCookieSecure  bool          `env:"SESSION_COOKIE_SECURE"  envDefault:"false"`
	SessionMax           int           `env:"SESSION_MAX"            envDefault:"10000"`
}

func New() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
