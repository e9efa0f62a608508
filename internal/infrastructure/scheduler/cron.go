package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// CronScheduler drives sweep runs on a cron expression, with one immediate
// run at startup.
type CronScheduler struct {
	spec     string
	location *time.Location
	cron     *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler from a cron expression and timezone.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location}
}

// Start registers the job and begins the cron loop. The job runs once
// immediately so an operator never waits a full period for the first sweep.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.location))
	if _, err := runner.AddFunc(c.spec, func() {
		job(time.Now().In(c.location))
	}); err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}

	job(time.Now().In(c.location))
	runner.Start()
	c.cron = runner

	return nil
}

// Stop halts the cron loop, waiting for a running job to finish unless the
// context gives up first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	done := c.cron.Stop()
	c.cron = nil

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
