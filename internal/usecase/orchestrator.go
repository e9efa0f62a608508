package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// Orchestrator runs the three stages in sequence for one request and owns
// the externally visible end state: COMPLETED, FAILED or IDLE. Any stage
// error is durably written as FAILED before it propagates to the caller.
type Orchestrator struct {
	ingest   *Ingestion
	refine   *Refinement
	populate *FactPopulation
	requests ports.RequestStore
	logger   *slog.Logger
}

// OrchestratorDeps wires the stages into the per-request run.
type OrchestratorDeps struct {
	Ingestion      *Ingestion
	Refinement     *Refinement
	FactPopulation *FactPopulation
	Requests       ports.RequestStore
	Logger         *slog.Logger
}

// NewOrchestrator constructs the orchestration component.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		ingest:   deps.Ingestion,
		refine:   deps.Refinement,
		populate: deps.FactPopulation,
		requests: deps.Requests,
		logger:   deps.Logger,
	}
}

// Run executes one full pipeline pass. The per-request advisory lock keeps
// concurrent runs for the same id from racing on status and ownership
// writes; contention surfaces as domain.ErrRunLocked without any status
// write having happened.
func (o *Orchestrator) Run(ctx context.Context, keyword string, requestID int64) error {
	lock, err := o.requests.AcquireRunLock(ctx, requestID)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			o.log().Warn("release run lock", "request_id", requestID, "error", err)
		}
	}()

	o.log().Info("pipeline started", "keyword", keyword, "request_id", requestID)

	ingested, err := o.ingest.Run(ctx, keyword, requestID)
	if err != nil {
		o.fail(ctx, requestID)
		return fmt.Errorf("ingestion stage: %w", err)
	}

	// An empty result set is not an error: the request rests at IDLE and
	// stays retryable. There is nothing for the later stages to do.
	if ingested.Status == domain.StatusIdle {
		o.log().Info("pipeline idle, no new documents", "keyword", keyword, "request_id", requestID)
		return nil
	}

	if _, err := o.refine.Run(ctx, requestID); err != nil {
		o.fail(ctx, requestID)
		return fmt.Errorf("refinement stage: %w", err)
	}

	if _, err := o.populate.Run(ctx, requestID); err != nil {
		o.fail(ctx, requestID)
		return fmt.Errorf("fact population stage: %w", err)
	}

	if err := o.requests.SetStatus(ctx, requestID, domain.StatusCompleted); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	o.log().Info("pipeline completed", "keyword", keyword, "request_id", requestID)
	return nil
}

// Sweep runs the full pipeline for every pending request. One request
// failing is logged and does not stop the others.
func (o *Orchestrator) Sweep(ctx context.Context) error {
	pending, err := o.requests.PendingRequests(ctx)
	if err != nil {
		return fmt.Errorf("list pending requests: %w", err)
	}

	if len(pending) == 0 {
		o.log().Info("sweep found no pending requests")
		return nil
	}

	for _, req := range pending {
		if err := o.Run(ctx, req.Keyword, req.ID); err != nil {
			o.log().Error("sweep run failed", "keyword", req.Keyword, "request_id", req.ID, "error", err)
		}
	}

	return nil
}

// fail writes FAILED before the error leaves the orchestrator, so the
// supervising process always observes the terminal state.
func (o *Orchestrator) fail(ctx context.Context, requestID int64) {
	if err := o.requests.SetStatus(ctx, requestID, domain.StatusFailed); err != nil {
		o.log().Error("mark failed", "request_id", requestID, "error", err)
	}
}

func (o *Orchestrator) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}
