package usecase

import (
	"context"
	"time"

	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// Scheduler wires the cron driver with the sweep use case.
type Scheduler struct {
	driver       ports.Scheduler
	orchestrator *Orchestrator
}

// NewScheduler returns a helper to start/stop recurring sweeps.
func NewScheduler(driver ports.Scheduler, orchestrator *Orchestrator) *Scheduler {
	return &Scheduler{driver: driver, orchestrator: orchestrator}
}

// Start registers the sweep with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	job := func(time.Time) {
		_ = s.orchestrator.Sweep(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
