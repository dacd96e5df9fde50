// Package session keeps one mounted hook per browser session.
package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/andyle182810/dogview/internal/fetch"
	"github.com/google/uuid"
)

const DefaultTTL = 30 * time.Minute

type entry[T any] struct {
	id       string
	hook     *fetch.Hook[T]
	lastSeen time.Time
	elem     *list.Element
}

type Registry[T any] struct {
	mount       func() *fetch.Hook[T]
	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*entry[T]
	// recency holds entries from most to least recently seen.
	recency *list.List
}

type Option func(*registryConfig)

type registryConfig struct {
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

func WithTTL(ttl time.Duration) Option {
	return func(cfg *registryConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithMaxSessions caps the number of mounted sessions. Mounting beyond the
// cap unmounts the least recently seen session. Zero leaves it unbounded.
func WithMaxSessions(n int) Option {
	return func(cfg *registryConfig) {
		if n > 0 {
			cfg.maxSessions = n
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(cfg *registryConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

func NewRegistry[T any](mount func() *fetch.Hook[T], opts ...Option) *Registry[T] {
	cfg := registryConfig{ttl: DefaultTTL, maxSessions: 0, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Registry[T]{
		mount:       mount,
		ttl:         cfg.ttl,
		maxSessions: cfg.maxSessions,
		now:         cfg.now,
		mu:          sync.Mutex{},
		entries:     make(map[string]*entry[T]),
		recency:     list.New(),
	}
}

// Acquire returns the hook mounted for id. Unknown or empty ids get a freshly
// mounted hook under a new id, which is returned alongside it.
func (r *Registry[T]) Acquire(id string) (string, *fetch.Hook[T]) {
	r.mu.Lock()

	now := r.now()

	if e, ok := r.entries[id]; ok && id != "" {
		e.lastSeen = now
		r.recency.MoveToFront(e.elem)
		r.mu.Unlock()

		return id, e.hook
	}

	var evicted []*fetch.Hook[T]

	for r.maxSessions > 0 && len(r.entries) >= r.maxSessions {
		oldest, _ := r.recency.Back().Value.(*entry[T])
		r.removeLocked(oldest)
		evicted = append(evicted, oldest.hook)
	}

	e := &entry[T]{id: uuid.NewString(), hook: r.mount(), lastSeen: now, elem: nil}
	e.elem = r.recency.PushFront(e)
	r.entries[e.id] = e

	r.mu.Unlock()

	for _, hook := range evicted {
		hook.Unmount()
	}

	return e.id, e.hook
}

func (r *Registry[T]) removeLocked(e *entry[T]) {
	delete(r.entries, e.id)
	r.recency.Remove(e.elem)
}

// Lookup returns the hook for id without mounting or touching it.
func (r *Registry[T]) Lookup(id string) (*fetch.Hook[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}

	return e.hook, true
}

// Release unmounts and forgets the hook for id.
func (r *Registry[T]) Release(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		r.removeLocked(e)
	}
	r.mu.Unlock()

	if ok {
		e.hook.Unmount()
	}

	return ok
}

// Sweep unmounts every hook idle for longer than the TTL and returns how many
// were removed.
func (r *Registry[T]) Sweep(now time.Time) int {
	r.mu.Lock()

	expired := make([]*fetch.Hook[T], 0)

	for _, e := range r.entries {
		if now.Sub(e.lastSeen) > r.ttl {
			expired = append(expired, e.hook)
			r.removeLocked(e)
		}
	}

	r.mu.Unlock()

	for _, hook := range expired {
		hook.Unmount()
	}

	return len(expired)
}

// Close unmounts everything.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry[T])
	r.recency.Init()
	r.mu.Unlock()

	for _, e := range entries {
		e.hook.Unmount()
	}
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
