// Package fetch holds the state container that drives a single outbound
// request per URL and exposes its result to a renderer.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrUnmounted = errors.New("fetch: hook is unmounted")

type FetchFunc[T any] func(ctx context.Context, url string) (T, error)

type Hook[T any] struct {
	fetch FetchFunc[T]
	cfg   config

	mu         sync.Mutex
	url        string
	state      State
	response   *T
	err        string
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	unmounted  bool
}

func New[T any](fetch FetchFunc[T], opts ...Option) *Hook[T] {
	cfg := config{timeout: 0, observer: nil}
	for _, opt := range opts {
		opt(&cfg)
	}

	done := make(chan struct{})
	close(done)

	return &Hook[T]{ //nolint:exhaustruct
		fetch: fetch,
		cfg:   cfg,
		state: StateIdle,
		done:  done,
	}
}

// Use activates the hook for url. The first call, and any call with a
// different url, issues one asynchronous request; a repeated url is a no-op.
func (h *Hook[T]) Use(url string) Snapshot[T] {
	return h.UseContext(context.Background(), url)
}

// UseContext is Use with the request inheriting the values of parent, such
// as a request ID. Cancelling parent does not cancel the request.
func (h *Hook[T]) UseContext(parent context.Context, url string) Snapshot[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unmounted || (h.state != StateIdle && h.url == url) {
		return h.snapshotLocked()
	}

	if h.cancel != nil {
		h.cancel()
	}

	h.generation++
	h.url = url
	h.state = StateLoading
	h.err = ""

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	parent = context.WithoutCancel(parent)

	if h.cfg.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, h.cfg.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	h.cancel = cancel
	h.done = make(chan struct{})

	go h.run(ctx, cancel, h.generation, url, h.done)

	return h.snapshotLocked()
}

func (h *Hook[T]) run(ctx context.Context, cancel context.CancelFunc, generation uint64, url string, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := time.Now()
	result, err := h.fetch(ctx, url)
	elapsed := time.Since(start)

	h.mu.Lock()

	if generation != h.generation || h.unmounted {
		h.mu.Unlock()

		return
	}

	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		h.mu.Unlock()

		return
	}

	if err != nil {
		h.state = StateError
		h.err = err.Error()
	} else {
		h.state = StateSuccess
		h.response = &result
	}

	h.cancel = nil
	observer := h.cfg.observer
	h.mu.Unlock()

	if observer != nil {
		observer(url, err, elapsed)
	}
}

func (h *Hook[T]) Snapshot() Snapshot[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.snapshotLocked()
}

// Wait blocks until the request issued by the latest Use settles or ctx is
// done, then returns the snapshot at that point. It reports ErrUnmounted if
// the hook was unmounted before the request settled.
func (h *Hook[T]) Wait(ctx context.Context) (Snapshot[T], error) {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return h.Snapshot(), ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	snap := h.snapshotLocked()
	if h.unmounted && !snap.Settled() {
		return snap, ErrUnmounted
	}

	return snap, nil
}

// WaitSettled is Wait that keeps waiting when the request it was waiting on
// is superseded by a newer Use, until a request settles or ctx is done.
func (h *Hook[T]) WaitSettled(ctx context.Context) (Snapshot[T], error) {
	for {
		snap, err := h.Wait(ctx)
		if err != nil || snap.Settled() {
			return snap, err
		}
	}
}

// Unmount cancels any in-flight request. Results arriving afterwards are
// dropped and later calls to Use do nothing.
func (h *Hook[T]) Unmount() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unmounted {
		return
	}

	h.unmounted = true

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

func (h *Hook[T]) Unmounted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.unmounted
}

func (h *Hook[T]) snapshotLocked() Snapshot[T] {
	snap := Snapshot[T]{
		URL:      h.url,
		State:    h.state,
		Response: nil,
		Error:    h.err,
	}

	if h.response != nil {
		response := *h.response
		snap.Response = &response
	}

	return snap
}
