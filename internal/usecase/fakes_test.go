package usecase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

type fakeSource struct {
	result  ports.SearchResult
	err     error
	queries []ports.SearchQuery
}

func (f *fakeSource) Platform() string { return "reddit" }

func (f *fakeSource) Search(_ context.Context, q ports.SearchQuery) (ports.SearchResult, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return ports.SearchResult{}, f.err
	}
	return f.result, nil
}

type fakeDocStore struct {
	bulkResult ports.BulkUpsertResult
	bulkErr    error
	bulkDocs   [][]domain.RawDocument

	unrefined []domain.RawDocument
	findErr   error
	findCalls int

	refined        [][]primitive.ObjectID
	markRefinedErr error

	skipped map[primitive.ObjectID]string

	jobsStarted   int
	jobStatuses   []string
	finishedStats []domain.JobStats

	itemErrors []domain.ItemError
}

func (f *fakeDocStore) BulkUpsertRaw(_ context.Context, docs []domain.RawDocument) (ports.BulkUpsertResult, error) {
	f.bulkDocs = append(f.bulkDocs, docs)
	if f.bulkErr != nil {
		return ports.BulkUpsertResult{}, f.bulkErr
	}
	return f.bulkResult, nil
}

func (f *fakeDocStore) FindUnrefined(_ context.Context, _ int64, limit int) ([]domain.RawDocument, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	if len(f.unrefined) > limit {
		return f.unrefined[:limit], nil
	}
	return f.unrefined, nil
}

func (f *fakeDocStore) MarkRefined(_ context.Context, ids []primitive.ObjectID) error {
	if f.markRefinedErr != nil {
		return f.markRefinedErr
	}
	f.refined = append(f.refined, ids)
	return nil
}

func (f *fakeDocStore) MarkSkipped(_ context.Context, id primitive.ObjectID, reason string) error {
	if f.skipped == nil {
		f.skipped = map[primitive.ObjectID]string{}
	}
	f.skipped[id] = reason
	return nil
}

func (f *fakeDocStore) StartJob(context.Context, string, string, int64) (primitive.ObjectID, error) {
	f.jobsStarted++
	return primitive.NewObjectID(), nil
}

func (f *fakeDocStore) FinishJob(_ context.Context, _ primitive.ObjectID, status string, stats domain.JobStats) error {
	f.jobStatuses = append(f.jobStatuses, status)
	f.finishedStats = append(f.finishedStats, stats)
	return nil
}

func (f *fakeDocStore) RecordItemError(_ context.Context, item domain.ItemError) error {
	f.itemErrors = append(f.itemErrors, item)
	return nil
}

type fakeRequestStore struct {
	statuses  []domain.RequestStatus
	statusErr error

	bronze bool

	pending    []domain.Request
	pendingErr error

	lockErr  error
	locked   int
	released int
}

func (f *fakeRequestStore) PendingRequests(context.Context) ([]domain.Request, error) {
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return f.pending, nil
}

func (f *fakeRequestStore) SetStatus(_ context.Context, _ int64, status domain.RequestStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeRequestStore) MarkBronzeProcessed(context.Context, int64) error {
	f.bronze = true
	return nil
}

func (f *fakeRequestStore) AcquireRunLock(context.Context, int64) (ports.RunLock, error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.locked++
	return &fakeLock{store: f}, nil
}

type fakeLock struct {
	store *fakeRequestStore
}

func (l *fakeLock) Release(context.Context) error {
	l.store.released++
	return nil
}

type fakeWarehouse struct {
	saveResult ports.RefinedBatchResult
	saveErr    error
	saveFunc   func([]domain.RefinedDocument) (ports.RefinedBatchResult, error)
	saved      [][]domain.RefinedDocument

	promoteResult ports.PromotionResult
	promoteErr    error
	promoted      []int64
}

func (f *fakeWarehouse) SaveRefinedBatch(_ context.Context, docs []domain.RefinedDocument) (ports.RefinedBatchResult, error) {
	f.saved = append(f.saved, docs)
	if f.saveFunc != nil {
		return f.saveFunc(docs)
	}
	if f.saveErr != nil {
		return ports.RefinedBatchResult{}, f.saveErr
	}
	return f.saveResult, nil
}

func (f *fakeWarehouse) PromoteFacts(_ context.Context, requestID int64) (ports.PromotionResult, error) {
	if f.promoteErr != nil {
		return ports.PromotionResult{}, f.promoteErr
	}
	f.promoted = append(f.promoted, requestID)
	return f.promoteResult, nil
}

type stubDetector struct {
	lang string
	ok   bool
}

func (d stubDetector) Detect(string) (string, bool) {
	return d.lang, d.ok
}

type stubClassifier struct {
	scores map[string]ports.RawScore
	err    error
	calls  int
}

func (c *stubClassifier) Classify(_ context.Context, texts []string) ([]ports.RawScore, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}

	out := make([]ports.RawScore, len(texts))
	for i, text := range texts {
		if score, ok := c.scores[text]; ok {
			out[i] = score
			continue
		}
		out[i] = ports.RawScore{Label: "LABEL_1", Score: 0.5}
	}
	return out, nil
}
