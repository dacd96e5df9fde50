package fetch

import "time"

// Observer is told about every request that settles. It is not called for
// requests that were cancelled or superseded.
type Observer func(url string, err error, elapsed time.Duration)

type Option func(*config)

type config struct {
	timeout  time.Duration
	observer Observer
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(cfg *config) {
		cfg.observer = observer
	}
}
