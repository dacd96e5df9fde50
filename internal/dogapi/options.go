package dogapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://dog.ceo/api"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "dogview/1.0"

	HeaderXRequestID = "X-Request-ID"
	HeaderAccept     = "Accept"
	ContentTypeJSON  = "application/json"
)

type Option func(*options)

type options struct {
	httpClient      *http.Client
	timeout         time.Duration
	userAgent       string
	maxResponseSize int64 // 0 means no limit
	requestIDKey    any
	limiter         *rate.Limiter
}

func defaultOptions() *options {
	return &options{
		httpClient:      nil,
		timeout:         DefaultTimeout,
		userAgent:       DefaultUserAgent,
		maxResponseSize: 0,
		requestIDKey:    nil,
		limiter:         nil,
	}
}

// WithTimeout bounds every request. Zero disables the client-side timeout,
// leaving only the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

func WithMaxResponseSize(size int64) Option {
	return func(o *options) {
		o.maxResponseSize = size
	}
}

// WithRequestIDKey makes the client forward the request ID stored under key
// in the request context instead of generating a new one.
func WithRequestIDKey(key any) Option {
	return func(o *options) {
		o.requestIDKey = key
	}
}

// WithRateLimit spaces outbound requests to at most perSecond, with bursts of
// burst. A non-positive rate leaves requests unlimited.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, burst))
		}
	}
}
