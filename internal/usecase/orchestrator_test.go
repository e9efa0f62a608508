package usecase

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
	"github.com/Sibtain012/BrandPulse-2.0/internal/sentiment"
)

func newTestOrchestrator(source *fakeSource, docs *fakeDocStore, requests *fakeRequestStore, warehouse *fakeWarehouse, classifier *stubClassifier) *Orchestrator {
	ingest := NewIngestion(IngestionDeps{
		Source:    source,
		Documents: docs,
		Requests:  requests,
		Language:  englishPredicate(),
	})
	refine := NewRefinement(RefinementDeps{
		Documents: docs,
		Warehouse: warehouse,
		Scorer:    sentiment.NewScorer(classifier, 0),
	})
	return NewOrchestrator(OrchestratorDeps{
		Ingestion:      ingest,
		Refinement:     refine,
		FactPopulation: NewFactPopulation(warehouse, nil),
		Requests:       requests,
	})
}

func TestOrchestratorRunsAllStages(t *testing.T) {
	t.Parallel()

	docID := primitive.NewObjectID()
	source := &fakeSource{result: ports.SearchResult{
		Items: []domain.SourceItem{
			{ExternalID: "abc", Post: domain.RawPost{Name: "t3_abc", Title: "A post with enough words to score"}},
		},
	}}
	docs := &fakeDocStore{
		bulkResult: ports.BulkUpsertResult{Upserted: 1},
		unrefined: []domain.RawDocument{
			{ID: docID, Post: domain.RawPost{Name: "t3_abc", Title: "A post with enough words to score"}},
		},
	}
	requests := &fakeRequestStore{}
	warehouse := &fakeWarehouse{
		saveResult:    ports.RefinedBatchResult{PostsInserted: 1, Committed: []primitive.ObjectID{docID}},
		promoteResult: ports.PromotionResult{PostFacts: 1},
	}

	orch := newTestOrchestrator(source, docs, requests, warehouse, &stubClassifier{})

	if err := orch.Run(context.Background(), "golang", 42); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// PROCESSING, COMPLETED from ingestion, then COMPLETED from the final
	// orchestrator write.
	want := []domain.RequestStatus{domain.StatusProcessing, domain.StatusCompleted, domain.StatusCompleted}
	if len(requests.statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", requests.statuses, want)
	}
	for i, s := range want {
		if requests.statuses[i] != s {
			t.Fatalf("statuses = %v, want %v", requests.statuses, want)
		}
	}

	if len(warehouse.promoted) != 1 || warehouse.promoted[0] != 42 {
		t.Fatalf("promoted = %v, want [42]", warehouse.promoted)
	}
	if requests.locked != 1 || requests.released != 1 {
		t.Fatalf("lock acquired %d released %d, want 1/1", requests.locked, requests.released)
	}
}

func TestOrchestratorIdleSkipsLaterStages(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	docs := &fakeDocStore{}
	requests := &fakeRequestStore{}
	warehouse := &fakeWarehouse{}

	orch := newTestOrchestrator(source, docs, requests, warehouse, &stubClassifier{})

	if err := orch.Run(context.Background(), "obscure", 7); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if docs.findCalls != 0 {
		t.Fatal("refinement ran on an idle request")
	}
	if len(warehouse.promoted) != 0 {
		t.Fatal("fact population ran on an idle request")
	}
	last := requests.statuses[len(requests.statuses)-1]
	if last != domain.StatusIdle {
		t.Fatalf("final status = %s, want %s", last, domain.StatusIdle)
	}
	if requests.released != 1 {
		t.Fatal("lock not released")
	}
}

func TestOrchestratorStageFailureWritesFailed(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errors.New("rate limited")}
	docs := &fakeDocStore{}
	requests := &fakeRequestStore{}
	warehouse := &fakeWarehouse{}

	orch := newTestOrchestrator(source, docs, requests, warehouse, &stubClassifier{})

	err := orch.Run(context.Background(), "golang", 5)
	if err == nil {
		t.Fatal("expected error from failed ingestion")
	}
	last := requests.statuses[len(requests.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("final status = %s, want %s", last, domain.StatusFailed)
	}
	if requests.released != 1 {
		t.Fatal("lock not released after failure")
	}
}

func TestOrchestratorLockContention(t *testing.T) {
	t.Parallel()

	requests := &fakeRequestStore{lockErr: domain.ErrRunLocked}
	orch := newTestOrchestrator(&fakeSource{}, &fakeDocStore{}, requests, &fakeWarehouse{}, &stubClassifier{})

	err := orch.Run(context.Background(), "golang", 5)
	if !errors.Is(err, domain.ErrRunLocked) {
		t.Fatalf("err = %v, want ErrRunLocked", err)
	}
	if len(requests.statuses) != 0 {
		t.Fatalf("statuses = %v, a contended run must not touch the state machine", requests.statuses)
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errors.New("search broken")}
	docs := &fakeDocStore{}
	requests := &fakeRequestStore{pending: []domain.Request{
		{ID: 1, Keyword: "first"},
		{ID: 2, Keyword: "second"},
	}}
	warehouse := &fakeWarehouse{}

	orch := newTestOrchestrator(source, docs, requests, warehouse, &stubClassifier{})

	if err := orch.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(source.queries) != 2 {
		t.Fatalf("searches = %d, every pending request must be attempted", len(source.queries))
	}
	if requests.locked != 2 || requests.released != 2 {
		t.Fatalf("lock acquired %d released %d, want 2/2", requests.locked, requests.released)
	}
}
