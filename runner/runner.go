package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultShutdownTimeout = 30 * time.Second

var (
	ErrServicePanic    = errors.New("runner: service panicked")
	ErrServiceFailed   = errors.New("runner: service failed to start")
	ErrShutdownTimeout = errors.New("runner: shutdown timeout exceeded")
)

type Service interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

type Runner struct {
	coreServices           []Service
	infrastructureServices []Service
	shutdownTimeout        time.Duration
}

type Option func(*Runner)

func New(opts ...Option) *Runner {
	runner := &Runner{
		coreServices:           make([]Service, 0),
		infrastructureServices: make([]Service, 0),
		shutdownTimeout:        defaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

func WithCoreService(svc Service) Option {
	return func(r *Runner) {
		r.coreServices = append(r.coreServices, svc)
		log.Info().
			Str("service_type", "core").
			Str("service_name", svc.Name()).
			Msg("Core service registered")
	}
}

func WithInfrastructureService(svc Service) Option {
	return func(r *Runner) {
		r.infrastructureServices = append(r.infrastructureServices, svc)
		log.Info().
			Str("service_type", "infrastructure").
			Str("service_name", svc.Name()).
			Msg("Infrastructure service registered")
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.shutdownTimeout = d
		}
	}
}

// Run blocks until SIGINT or SIGTERM, then stops every service.
func (r *Runner) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return r.RunContext(ctx)
}

// RunContext starts infrastructure services, then core services, and blocks
// until ctx is done. Services are stopped core first.
func (r *Runner) RunContext(ctx context.Context) error {
	log.Info().Msg("Starting infrastructure services")

	if err := r.startServices(ctx, r.infrastructureServices); err != nil {
		log.Error().Err(err).Msg("Infrastructure services failed to start")

		return errors.Join(err, r.shutdownWithTimeout(r.infrastructureServices))
	}

	log.Info().Msg("Starting core services")

	if err := r.startServices(ctx, r.coreServices); err != nil {
		log.Error().Err(err).Msg("Core services failed to start")

		return errors.Join(err, r.shutdown())
	}

	log.Info().
		Int("pid", os.Getpid()).
		Int("core_services", len(r.coreServices)).
		Int("infra_services", len(r.infrastructureServices)).
		Msg("All services started, waiting for shutdown signal")

	<-ctx.Done()
	log.Warn().Msg("Shutdown signal received")

	err := r.shutdown()

	log.Info().Msg("Graceful shutdown completed")

	return err
}

func (r *Runner) shutdown() error {
	return errors.Join(
		r.shutdownWithTimeout(r.coreServices),
		r.shutdownWithTimeout(r.infrastructureServices),
	)
}

// startServices starts every service concurrently and waits for all Start
// calls to return. Start must return once the service is up.
func (r *Runner) startServices(ctx context.Context, services []Service) error {
	if len(services) == 0 {
		return nil
	}

	var wg sync.WaitGroup

	startErrs := make(chan error, len(services))

	for _, svc := range services {
		wg.Add(1)

		go func(service Service) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					startErrs <- fmt.Errorf("%w: %s: %v", ErrServicePanic, service.Name(), rec)
				}
			}()

			log.Info().Str("service_name", service.Name()).Msg("Starting service")

			if err := service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				startErrs <- fmt.Errorf("%w: %s: %w", ErrServiceFailed, service.Name(), err)
			}
		}(svc)
	}

	allStarted := make(chan struct{})

	go func() {
		wg.Wait()
		close(allStarted)
	}()

	select {
	case <-allStarted:
		select {
		case err := <-startErrs:
			return err
		default:
			return nil
		}
	case err := <-startErrs:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) shutdownWithTimeout(services []Service) error {
	if len(services) == 0 {
		return nil
	}

	done := make(chan error, 1)

	go func() {
		done <- r.concurrentStop(services)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.shutdownTimeout):
		log.Error().
			Dur("timeout", r.shutdownTimeout).
			Msg("Shutdown timeout exceeded, some services may not have stopped cleanly")

		return ErrShutdownTimeout
	}
}

func (r *Runner) concurrentStop(services []Service) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, svc := range services {
		wg.Add(1)

		go func(service Service) {
			defer wg.Done()

			log.Info().Str("service_name", service.Name()).Msg("Stopping service")

			if err := service.Stop(); err != nil {
				log.Error().
					Err(err).
					Str("service_name", service.Name()).
					Msg("Service failed to stop")

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", service.Name(), err))
				mu.Unlock()

				return
			}

			log.Info().
				Str("service_name", service.Name()).
				Msg("Service stopped")
		}(svc)
	}

	wg.Wait()

	return errors.Join(errs...)
}
