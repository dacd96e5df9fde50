package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andyle182810/dogview/internal/fetch"
	"github.com/andyle182810/dogview/internal/session"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newRegistry(t *testing.T, clock *fakeClock, mounts *atomic.Int32) *session.Registry[string] {
	t.Helper()

	mount := func() *fetch.Hook[string] {
		mounts.Add(1)

		return fetch.New(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()

			return "", ctx.Err()
		})
	}

	return session.NewRegistry(mount,
		session.WithTTL(time.Minute),
		session.WithClock(clock.Now),
	)
}

func TestRegistry_AcquireMountsNewSession(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := newRegistry(t, clock, &mounts)

	id, hook := registry.Acquire("")
	require.NotEmpty(t, id)
	require.NotNil(t, hook)
	require.Equal(t, 1, registry.Len())
	require.Equal(t, int32(1), mounts.Load())
}

func TestRegistry_AcquireReturnsExistingSession(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := newRegistry(t, clock, &mounts)

	id, hook := registry.Acquire("")
	sameID, sameHook := registry.Acquire(id)

	require.Equal(t, id, sameID)
	require.Same(t, hook, sameHook)
	require.Equal(t, int32(1), mounts.Load())
}

func TestRegistry_AcquireUnknownIDMountsFresh(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := newRegistry(t, clock, &mounts)

	id, _ := registry.Acquire("forged-id")
	require.NotEqual(t, "forged-id", id)

	_, ok := registry.Lookup("forged-id")
	require.False(t, ok)
}

func TestRegistry_ReleaseUnmounts(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := newRegistry(t, clock, &mounts)

	id, hook := registry.Acquire("")
	hook.Use("http://api/a")

	require.True(t, registry.Release(id))
	require.True(t, hook.Unmounted())
	require.False(t, registry.Release(id))
	require.Equal(t, 0, registry.Len())
}

func TestRegistry_SweepRemovesIdleSessions(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := newRegistry(t, clock, &mounts)

	staleID, staleHook := registry.Acquire("")

	clock.Advance(45 * time.Second)
	freshID, freshHook := registry.Acquire("")

	clock.Advance(30 * time.Second)

	removed := registry.Sweep(clock.Now())
	require.Equal(t, 1, removed)
	require.True(t, staleHook.Unmounted())
	require.False(t, freshHook.Unmounted())

	_, ok := registry.Lookup(staleID)
	require.False(t, ok)

	_, ok = registry.Lookup(freshID)
	require.True(t, ok)
}

func TestRegistry_AcquireTouchesSession(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := newRegistry(t, clock, &mounts)

	id, _ := registry.Acquire("")

	clock.Advance(50 * time.Second)
	registry.Acquire(id)

	clock.Advance(50 * time.Second)
	require.Equal(t, 0, registry.Sweep(clock.Now()))
}

func TestRegistry_CloseUnmountsEverything(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := newRegistry(t, clock, &mounts)

	_, first := registry.Acquire("")
	_, second := registry.Acquire("")

	registry.Close()

	require.True(t, first.Unmounted())
	require.True(t, second.Unmounted())
	require.Equal(t, 0, registry.Len())
}

type countingSweeper struct {
	sweeps atomic.Int32
}

func (s *countingSweeper) Sweep(time.Time) int {
	s.sweeps.Add(1)

	return 1
}

func (s *countingSweeper) Len() int {
	return 0
}

func TestJanitor_SweepsOnInterval(t *testing.T) {
	t.Parallel()

	sweeper := &countingSweeper{} //nolint:exhaustruct

	var removedTotal atomic.Int32

	janitor := session.NewJanitor(sweeper,
		session.WithSweepInterval(10*time.Millisecond),
		session.WithSweepHook(func(removed, _ int) {
			removedTotal.Add(int32(removed)) //nolint:gosec
		}),
	)

	require.Equal(t, "session-janitor", janitor.Name())
	require.NoError(t, janitor.Start(t.Context()))
	require.ErrorIs(t, janitor.Start(t.Context()), session.ErrAlreadyRunning)

	require.Eventually(t, func() bool {
		return sweeper.sweeps.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, janitor.Stop())
	require.NoError(t, janitor.Stop())

	stoppedAt := sweeper.sweeps.Load()

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, stoppedAt, sweeper.sweeps.Load())
	require.GreaterOrEqual(t, removedTotal.Load(), stoppedAt)
}

func TestRegistry_MaxSessionsEvictsLeastRecentlySeen(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := session.NewRegistry(func() *fetch.Hook[string] {
		mounts.Add(1)

		return fetch.New(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()

			return "", ctx.Err()
		})
	}, session.WithClock(clock.Now), session.WithMaxSessions(2))
	t.Cleanup(registry.Close)

	first, firstHook := registry.Acquire("")
	clock.Advance(time.Second)

	second, secondHook := registry.Acquire("")
	clock.Advance(time.Second)

	// Seeing the first session again makes the second the oldest.
	_, _ = registry.Acquire(first)
	clock.Advance(time.Second)

	third, _ := registry.Acquire("")

	require.Equal(t, 2, registry.Len())
	require.Equal(t, int32(3), mounts.Load())

	_, ok := registry.Lookup(second)
	require.False(t, ok)
	require.True(t, secondHook.Unmounted())

	_, ok = registry.Lookup(first)
	require.True(t, ok)
	require.False(t, firstHook.Unmounted())

	_, ok = registry.Lookup(third)
	require.True(t, ok)
}

func TestRegistry_ManyCookielessRequestsStayWithinCap(t *testing.T) {
	t.Parallel()

	var mounts atomic.Int32

	clock := &fakeClock{now: time.Unix(0, 0)} //nolint:exhaustruct
	registry := session.NewRegistry(func() *fetch.Hook[string] {
		mounts.Add(1)

		return fetch.New(func(context.Context, string) (string, error) { return "", nil })
	}, session.WithClock(clock.Now), session.WithMaxSessions(10))
	t.Cleanup(registry.Close)

	for range 200 {
		registry.Acquire("")
	}

	require.Equal(t, 10, registry.Len())
	require.Equal(t, int32(200), mounts.Load())
}
