package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultSweepInterval = time.Minute

var ErrAlreadyRunning = errors.New("session: janitor is already running")

type Sweeper interface {
	Sweep(now time.Time) int
	Len() int
}

// Janitor periodically sweeps idle sessions. It satisfies runner.Service.
type Janitor struct {
	sweeper  Sweeper
	interval time.Duration
	onSweep  func(removed, remaining int)

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

type JanitorOption func(*Janitor)

func WithSweepInterval(interval time.Duration) JanitorOption {
	return func(j *Janitor) {
		if interval > 0 {
			j.interval = interval
		}
	}
}

// WithSweepHook is called after every sweep with the number of removed and
// remaining sessions.
func WithSweepHook(fn func(removed, remaining int)) JanitorOption {
	return func(j *Janitor) {
		j.onSweep = fn
	}
}

func NewJanitor(sweeper Sweeper, opts ...JanitorOption) *Janitor {
	janitor := &Janitor{ //nolint:exhaustruct
		sweeper:  sweeper,
		interval: DefaultSweepInterval,
	}

	for _, opt := range opts {
		opt(janitor)
	}

	return janitor
}

func (j *Janitor) Name() string {
	return "session-janitor"
}

func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return ErrAlreadyRunning
	}

	j.running = true

	loopCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	log.Info().
		Dur("sweep_interval", j.interval).
		Msg("Session janitor is starting")

	j.wg.Add(1)

	go j.loop(loopCtx)

	return nil
}

func (j *Janitor) Stop() error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()

		return nil
	}

	j.running = false
	j.cancel()
	j.mu.Unlock()

	j.wg.Wait()

	log.Info().Msg("Session janitor has stopped")

	return nil
}

func (j *Janitor) loop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			j.sweep(now)
		}
	}
}

func (j *Janitor) sweep(now time.Time) {
	removed := j.sweeper.Sweep(now)
	remaining := j.sweeper.Len()

	if removed > 0 {
		log.Debug().
			Int("removed", removed).
			Int("remaining", remaining).
			Msg("Expired sessions unmounted")
	}

	if j.onSweep != nil {
		j.onSweep(removed, remaining)
	}
}
