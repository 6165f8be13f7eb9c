package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

const defaultInterval = time.Hour

type jobMetrics interface {
	ObserveDuration(job string, duration time.Duration)
	IncSuccess(job string)
	IncFailure(job string)
}

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  jobMetrics
	Interval time.Duration
}

// Service runs the registered jobs on a fixed cadence, one instance at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  jobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	s.logCycle(ctx, s.RunOnce(ctx))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.logCycle(ctx, s.RunOnce(ctx))
		}
	}
}

func (s *Service) logCycle(ctx context.Context, err error) {
	if err != nil {
		s.logg.Error(ctx, "scheduled run finished with errors", err)
	}
}

// RunOnce runs every job once under the lock. Job failures do not stop later
// jobs; they are combined into the returned error.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance holds the lock; skipping")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	var errs error
	for _, job := range s.registry.Jobs() {
		if err := s.runJob(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if s.metrics != nil {
		s.metrics.ObserveDuration(job.Name(), duration)
	}
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		if s.metrics != nil {
			s.metrics.IncFailure(job.Name())
		}
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	if s.metrics != nil {
		s.metrics.IncSuccess(job.Name())
	}
	return nil
}
