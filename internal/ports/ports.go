package ports

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
)

// SearchQuery bounds one platform search.
type SearchQuery struct {
	Keyword     string
	Limit       int
	TimeFilter  string
	MaxComments int
}

// ItemFailure is a single item that could not be extracted; the rest of the
// result set is unaffected.
type ItemFailure struct {
	ExternalID string
	Err        error
}

// SearchResult carries the items that extracted cleanly alongside the ones
// that did not.
type SearchResult struct {
	Items    []domain.SourceItem
	Failures []ItemFailure
}

// PostSource pulls keyword-matched posts from one social platform.
type PostSource interface {
	Platform() string
	Search(ctx context.Context, q SearchQuery) (SearchResult, error)
}

// BulkUpsertResult summarizes one unordered bulk write against the raw
// collection. Matched counts documents re-linked to the current request.
type BulkUpsertResult struct {
	Upserted int
	Matched  int
	Failed   int
}

// DocumentStore is the raw-document side of the pipeline: the upsert target
// for ingestion, the work queue for refinement, and the job/error audit sink.
type DocumentStore interface {
	BulkUpsertRaw(ctx context.Context, docs []domain.RawDocument) (BulkUpsertResult, error)
	FindUnrefined(ctx context.Context, requestID int64, limit int) ([]domain.RawDocument, error)
	MarkRefined(ctx context.Context, ids []primitive.ObjectID) error
	MarkSkipped(ctx context.Context, id primitive.ObjectID, reason string) error
	StartJob(ctx context.Context, platform, keyword string, requestID int64) (primitive.ObjectID, error)
	FinishJob(ctx context.Context, jobID primitive.ObjectID, status string, stats domain.JobStats) error
	RecordItemError(ctx context.Context, item domain.ItemError) error
}

// RunLock is a held per-request advisory lock; Release is safe to defer.
type RunLock interface {
	Release(ctx context.Context) error
}

// RequestStore reads and advances keyword requests in the relational store.
// Status writes are blind overwrites stamped with the run time.
type RequestStore interface {
	PendingRequests(ctx context.Context) ([]domain.Request, error)
	SetStatus(ctx context.Context, requestID int64, status domain.RequestStatus) error
	MarkBronzeProcessed(ctx context.Context, requestID int64) error
	AcquireRunLock(ctx context.Context, requestID int64) (RunLock, error)
}

// RefinedBatchResult reports one committed refinement transaction. Committed
// lists every raw document covered by the commit, including conflict no-ops,
// so the document store can be flagged afterwards.
type RefinedBatchResult struct {
	PostsInserted    int
	CommentsInserted int
	Committed        []primitive.ObjectID
}

// PromotionResult reports one committed fact-population transaction.
type PromotionResult struct {
	PostFacts        int
	CommentFacts     int
	PostsFlagged     int
	SummariesFlagged int
}

// Warehouse persists derived rows. Each method is one transaction: either
// every statement lands or none do.
type Warehouse interface {
	SaveRefinedBatch(ctx context.Context, docs []domain.RefinedDocument) (RefinedBatchResult, error)
	PromoteFacts(ctx context.Context, requestID int64) (PromotionResult, error)
}

// RawScore is one untranslated result from the classification model.
type RawScore struct {
	Label string
	Score float64
}

// Classifier sends a batch of texts to the sentiment model. The only
// contract is same-length output, one score per input, stable under retry.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]RawScore, error)
}

// LanguageDetector identifies the dominant language of a text, reporting
// ok=false when detection is not confident.
type LanguageDetector interface {
	Detect(text string) (lang string, ok bool)
}

// Scheduler controls when sweep runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
