package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/language"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// IngestionResult reports one ingestion run: the counters written to the
// job log and the request status the stage ended on.
type IngestionResult struct {
	Stats  domain.JobStats
	Status domain.RequestStatus
}

// Ingestion pulls external items for a keyword, filters them, and upserts
// them into the document store. It drives the request state machine:
// PROCESSING on start, COMPLETED when at least one document was written,
// IDLE on an empty result set.
type Ingestion struct {
	source    ports.PostSource
	documents ports.DocumentStore
	requests  ports.RequestStore
	language  *language.Predicate
	logger    *slog.Logger

	limit       int
	timeFilter  string
	maxComments int
}

// IngestionDeps wires the ingestion stage.
type IngestionDeps struct {
	Source    ports.PostSource
	Documents ports.DocumentStore
	Requests  ports.RequestStore
	Language  *language.Predicate
	Logger    *slog.Logger

	SearchLimit int
	TimeFilter  string
	MaxComments int
}

// NewIngestion constructs the stage with original defaults for unset bounds.
func NewIngestion(deps IngestionDeps) *Ingestion {
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = 15
	}
	if deps.TimeFilter == "" {
		deps.TimeFilter = "month"
	}
	if deps.MaxComments <= 0 {
		deps.MaxComments = 10
	}
	return &Ingestion{
		source:      deps.Source,
		documents:   deps.Documents,
		requests:    deps.Requests,
		language:    deps.Language,
		logger:      deps.Logger,
		limit:       deps.SearchLimit,
		timeFilter:  deps.TimeFilter,
		maxComments: deps.MaxComments,
	}
}

// Run executes one ingestion pass for the keyword under the request id.
// Item-level failures are recorded and counted, never fatal; stage-level
// failures return to the orchestrator after the job record is closed.
func (s *Ingestion) Run(ctx context.Context, keyword string, requestID int64) (IngestionResult, error) {
	if err := s.requests.SetStatus(ctx, requestID, domain.StatusProcessing); err != nil {
		return IngestionResult{}, fmt.Errorf("mark processing: %w", err)
	}

	platform := s.source.Platform()
	jobID, err := s.documents.StartJob(ctx, platform, keyword, requestID)
	if err != nil {
		return IngestionResult{}, fmt.Errorf("start job: %w", err)
	}

	stats := domain.JobStats{}
	searched, err := s.source.Search(ctx, ports.SearchQuery{
		Keyword:     keyword,
		Limit:       s.limit,
		TimeFilter:  s.timeFilter,
		MaxComments: s.maxComments,
	})
	if err != nil {
		_ = s.documents.FinishJob(ctx, jobID, "failed", stats)
		return IngestionResult{}, fmt.Errorf("search %q: %w", keyword, err)
	}

	now := time.Now().UTC()
	var docs []domain.RawDocument
	for _, item := range searched.Items {
		if item.Over18 {
			stats.SkippedNSFW++
			continue
		}
		if !s.language.Qualified(item.Post.Title + " " + item.Post.Selftext) {
			stats.SkippedNonEnglish++
			continue
		}

		docs = append(docs, domain.RawDocument{
			Platform:  platform,
			Keyword:   keyword,
			RequestID: requestID,
			FetchedAt: now,
			Post:      item.Post,
			Comments:  item.Comments,
			Meta: domain.RawMeta{
				ExternalID:     item.ExternalID,
				Subreddit:      item.Subreddit,
				APIEndpoint:    platform + ".search",
				ResponseStatus: 200,
			},
		})
		stats.Processed++
	}

	for _, failure := range searched.Failures {
		stats.Errors++
		if err := s.documents.RecordItemError(ctx, domain.ItemError{
			Platform:   platform,
			Keyword:    keyword,
			ExternalID: failure.ExternalID,
			Message:    failure.Err.Error(),
			OccurredAt: now,
		}); err != nil {
			s.log().Warn("record item error", "error", err)
		}
	}

	var written int
	if len(docs) > 0 {
		bulk, err := s.documents.BulkUpsertRaw(ctx, docs)
		if err != nil {
			_ = s.documents.FinishJob(ctx, jobID, "failed", stats)
			return IngestionResult{}, fmt.Errorf("bulk upsert: %w", err)
		}
		stats.Inserted = bulk.Upserted
		stats.Errors += bulk.Failed
		written = bulk.Upserted + bulk.Matched
	}

	status := domain.StatusIdle
	if written > 0 {
		if err := s.requests.MarkBronzeProcessed(ctx, requestID); err != nil {
			_ = s.documents.FinishJob(ctx, jobID, "failed", stats)
			return IngestionResult{}, fmt.Errorf("mark bronze processed: %w", err)
		}
		status = domain.StatusCompleted
	}
	if err := s.requests.SetStatus(ctx, requestID, status); err != nil {
		_ = s.documents.FinishJob(ctx, jobID, "failed", stats)
		return IngestionResult{}, fmt.Errorf("mark %s: %w", status, err)
	}

	if err := s.documents.FinishJob(ctx, jobID, "completed", stats); err != nil {
		return IngestionResult{}, fmt.Errorf("finish job: %w", err)
	}

	s.log().Info("ingestion finished",
		"keyword", keyword,
		"request_id", requestID,
		"status", status,
		"processed", stats.Processed,
		"inserted", stats.Inserted,
		"skipped_nsfw", stats.SkippedNSFW,
		"skipped_non_english", stats.SkippedNonEnglish,
		"errors", stats.Errors)

	return IngestionResult{Stats: stats, Status: status}, nil
}

func (s *Ingestion) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
