package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
	"github.com/Sibtain012/BrandPulse-2.0/internal/sentiment"
	"github.com/Sibtain012/BrandPulse-2.0/internal/textutil"
)

const (
	defaultRefineBatch = 50
	minPostWords       = 5
	skipReasonNoise    = "noise"
)

// RefinementResult reports one refinement batch.
type RefinementResult struct {
	Selected         int
	Skipped          int
	PostsInserted    int
	CommentsInserted int
	Flagged          int
}

// Refinement reads unprocessed raw documents, drives cleanup, scoring and
// aggregation, persists refined rows transactionally, and only then marks
// source documents processed. The relational commit is the gate for any
// document-store mutation.
type Refinement struct {
	documents ports.DocumentStore
	warehouse ports.Warehouse
	scorer    *sentiment.Scorer
	logger    *slog.Logger
	batchSize int
}

// RefinementDeps wires the refinement stage.
type RefinementDeps struct {
	Documents ports.DocumentStore
	Warehouse ports.Warehouse
	Scorer    *sentiment.Scorer
	Logger    *slog.Logger
	BatchSize int
}

// NewRefinement constructs the stage; batch size defaults to 50.
func NewRefinement(deps RefinementDeps) *Refinement {
	if deps.BatchSize <= 0 {
		deps.BatchSize = defaultRefineBatch
	}
	return &Refinement{
		documents: deps.Documents,
		warehouse: deps.Warehouse,
		scorer:    deps.Scorer,
		logger:    deps.Logger,
		batchSize: deps.BatchSize,
	}
}

type preparedDoc struct {
	doc      domain.RawDocument
	title    string
	body     string
	postText string
	comments []domain.RawComment
}

// Run processes one batch of unrefined documents for the request. An invalid
// request id aborts immediately with no side effects.
func (s *Refinement) Run(ctx context.Context, requestID int64) (RefinementResult, error) {
	if requestID <= 0 {
		return RefinementResult{}, &domain.InvalidRequestIDError{Raw: strconv.FormatInt(requestID, 10)}
	}

	docs, err := s.documents.FindUnrefined(ctx, requestID, s.batchSize)
	if err != nil {
		return RefinementResult{}, fmt.Errorf("find unrefined: %w", err)
	}

	result := RefinementResult{Selected: len(docs)}
	if len(docs) == 0 {
		s.log().Info("no documents to refine", "request_id", requestID)
		return result, nil
	}

	var inputs []sentiment.Input
	var prepared []preparedDoc
	for _, doc := range docs {
		title := textutil.Clean(doc.Post.Title)
		body := textutil.Clean(doc.Post.Selftext)
		postText := strings.TrimSpace(title + ". " + body)

		var eligible []domain.RawComment
		for _, c := range doc.Comments {
			if textutil.EligibleComment(c) {
				eligible = append(eligible, c)
			}
		}

		// Cost filter: documents with no signal worth classifying leave
		// the queue with a skip reason instead of burning inference time.
		if textutil.WordCount(postText) < minPostWords && len(eligible) == 0 {
			if err := s.documents.MarkSkipped(ctx, doc.ID, skipReasonNoise); err != nil {
				return RefinementResult{}, fmt.Errorf("mark skipped: %w", err)
			}
			result.Skipped++
			continue
		}

		inputs = append(inputs, sentiment.Input{
			Key:  sentiment.Key{DocID: doc.ID, Role: sentiment.RolePost},
			Text: postText,
		})
		for i, c := range eligible {
			inputs = append(inputs, sentiment.Input{
				Key:  sentiment.Key{DocID: doc.ID, Role: sentiment.RoleComment, Index: i},
				Text: textutil.Clean(c.Body),
			})
		}

		prepared = append(prepared, preparedDoc{
			doc:      doc,
			title:    title,
			body:     body,
			postText: postText,
			comments: eligible,
		})
	}

	if len(inputs) == 0 {
		return result, nil
	}

	scores, err := s.scorer.Score(ctx, inputs)
	if err != nil {
		return RefinementResult{}, fmt.Errorf("score batch: %w", err)
	}

	refined := make([]domain.RefinedDocument, 0, len(prepared))
	for _, p := range prepared {
		refined = append(refined, buildRefined(p, scores))
	}

	saved, err := s.warehouse.SaveRefinedBatch(ctx, refined)
	if err != nil {
		return RefinementResult{}, fmt.Errorf("save refined batch: %w", err)
	}
	result.PostsInserted = saved.PostsInserted
	result.CommentsInserted = saved.CommentsInserted

	// Saga step: flag only what the committed transaction covers. A failure
	// here leaves refined-but-unflagged documents, which re-run safely
	// through the conflict no-op path.
	if err := s.documents.MarkRefined(ctx, saved.Committed); err != nil {
		return RefinementResult{}, fmt.Errorf("mark refined: %w", err)
	}
	result.Flagged = len(saved.Committed)

	s.log().Info("refinement finished",
		"request_id", requestID,
		"selected", result.Selected,
		"skipped", result.Skipped,
		"posts", result.PostsInserted,
		"comments", result.CommentsInserted,
		"flagged", result.Flagged)

	return result, nil
}

func buildRefined(p preparedDoc, scores map[sentiment.Key]domain.Sentiment) domain.RefinedDocument {
	doc := p.doc

	postID := doc.Post.Name
	if postID == "" {
		postID = doc.Meta.ExternalID
	}
	if postID == "" {
		postID = "unknown_" + doc.ID.Hex()
	}

	commentSentiments := make([]domain.Sentiment, len(p.comments))
	comments := make([]domain.RefinedComment, len(p.comments))
	for i, c := range p.comments {
		score := scores[sentiment.Key{DocID: doc.ID, Role: sentiment.RoleComment, Index: i}]
		commentSentiments[i] = score

		commentID := c.ID
		if commentID == "" {
			commentID = fmt.Sprintf("%s_comment_%d", postID, i)
		}

		comments[i] = domain.RefinedComment{
			CommentID:  commentID,
			Body:       textutil.Clean(c.Body),
			AuthorHash: textutil.HashAuthor(c.Author),
			Score:      c.Score,
			CreatedAt:  unixTime(c.CreatedUTC),
			Sentiment:  score,
		}
	}

	return domain.RefinedDocument{
		RawDocID:       doc.ID,
		Platform:       doc.Platform,
		Keyword:        doc.Keyword,
		RequestID:      doc.RequestID,
		PostID:         postID,
		Title:          p.title,
		Body:           p.body,
		AuthorHash:     textutil.HashAuthor(doc.Post.Author),
		Subreddit:      doc.Post.Subreddit,
		URL:            doc.Post.URL,
		Score:          doc.Post.Score,
		UpvoteRatio:    doc.Post.UpvoteRatio,
		TotalComments:  doc.Post.NumComments,
		PostSentiment:  scores[sentiment.Key{DocID: doc.ID, Role: sentiment.RolePost}],
		CreatedAt:      unixUTC(doc.Post.CreatedUTC),
		Comments:       comments,
		CommentSummary: sentiment.Aggregate(commentSentiments),
	}
}

func unixUTC(seconds float64) time.Time {
	return time.Unix(int64(seconds), 0).UTC()
}

func unixTime(seconds float64) *time.Time {
	if seconds == 0 {
		return nil
	}
	t := unixUTC(seconds)
	return &t
}

func (s *Refinement) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
