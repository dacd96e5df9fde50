package runner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andyle182810/dogview/runner"
	"github.com/stretchr/testify/require"
)

var (
	errStart = errors.New("start error")
	errStop  = errors.New("stop error")
)

type mockService struct {
	name         string
	startErr     error
	stopErr      error
	stopDelay    time.Duration
	panicOnStart bool
	started      atomic.Bool
	stopped      atomic.Bool
	order        *stopOrder
}

type stopOrder struct {
	mu    sync.Mutex
	names []string
}

func (o *stopOrder) add(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.names = append(o.names, name)
}

func (o *stopOrder) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.names...)
}

func newMockService(name string) *mockService {
	return &mockService{ //nolint:exhaustruct
		name: name,
	}
}

func (m *mockService) Start(context.Context) error {
	if m.panicOnStart {
		panic("mock panic on start")
	}

	if m.startErr != nil {
		return m.startErr
	}

	m.started.Store(true)

	return nil
}

func (m *mockService) Stop() error {
	if m.stopDelay > 0 {
		time.Sleep(m.stopDelay)
	}

	if m.order != nil {
		m.order.add(m.name)
	}

	if m.stopErr != nil {
		return m.stopErr
	}

	m.stopped.Store(true)

	return nil
}

func (m *mockService) Name() string {
	return m.name
}

func cancelWhenStarted(svc *mockService, cancel context.CancelFunc) {
	for !svc.started.Load() {
		time.Sleep(time.Millisecond)
	}

	cancel()
}

func TestRunner_ServiceInterfaceImplementation(t *testing.T) {
	t.Parallel()

	var _ runner.Service = newMockService("test")
}

func TestRunContext_StartsAndStopsAllServices(t *testing.T) {
	t.Parallel()

	order := &stopOrder{} //nolint:exhaustruct

	core := newMockService("core")
	core.order = order

	infra := newMockService("infra")
	infra.order = order

	r := runner.New(
		runner.WithCoreService(core),
		runner.WithInfrastructureService(infra),
	)

	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)

	go func() {
		done <- r.RunContext(ctx)
	}()

	require.Eventually(t, func() bool {
		return core.started.Load() && infra.started.Load()
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not return after cancellation")
	}

	require.True(t, core.stopped.Load())
	require.True(t, infra.stopped.Load())
	require.Equal(t, []string{"core", "infra"}, order.list())
}

func TestRunContext_CoreStartFailureStopsInfrastructure(t *testing.T) {
	t.Parallel()

	core := newMockService("core")
	core.startErr = errStart

	infra := newMockService("infra")

	r := runner.New(
		runner.WithCoreService(core),
		runner.WithInfrastructureService(infra),
	)

	err := r.RunContext(t.Context())
	require.ErrorIs(t, err, runner.ErrServiceFailed)
	require.ErrorIs(t, err, errStart)
	require.True(t, infra.stopped.Load())
}

func TestRunContext_InfrastructurePanicIsReported(t *testing.T) {
	t.Parallel()

	infra := newMockService("infra")
	infra.panicOnStart = true

	core := newMockService("core")

	r := runner.New(
		runner.WithCoreService(core),
		runner.WithInfrastructureService(infra),
	)

	err := r.RunContext(t.Context())
	require.ErrorIs(t, err, runner.ErrServicePanic)
	require.False(t, core.started.Load())
}

func TestRunContext_StopErrorsAreJoined(t *testing.T) {
	t.Parallel()

	core := newMockService("core")
	core.stopErr = errStop

	r := runner.New(runner.WithCoreService(core))

	ctx, cancel := context.WithCancel(t.Context())

	go cancelWhenStarted(core, cancel)

	err := r.RunContext(ctx)
	require.ErrorIs(t, err, errStop)
}

func TestRunContext_ShutdownTimeout(t *testing.T) {
	t.Parallel()

	core := newMockService("slow")
	core.stopDelay = 200 * time.Millisecond

	r := runner.New(
		runner.WithCoreService(core),
		runner.WithShutdownTimeout(20*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(t.Context())

	go cancelWhenStarted(core, cancel)

	err := r.RunContext(ctx)
	require.ErrorIs(t, err, runner.ErrShutdownTimeout)
}
