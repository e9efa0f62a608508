package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// SaveRefinedBatch writes every refined document in one transaction. The
// post insert resolves conflicts on original_bronze_id to a no-op; a no-op
// post skips its comments and summary. Nothing survives a failed batch:
// any error rolls the whole transaction back.
func (s *Store) SaveRefinedBatch(ctx context.Context, docs []domain.RefinedDocument) (ports.RefinedBatchResult, error) {
	var result ports.RefinedBatchResult
	if len(docs) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin refinement tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, doc := range docs {
		silverPostID, inserted, err := s.insertPost(ctx, tx, doc, now)
		if err != nil {
			return ports.RefinedBatchResult{}, err
		}

		if !inserted {
			// Already refined by an earlier run; still flag the source
			// document so re-runs converge.
			result.Committed = append(result.Committed, doc.RawDocID)
			continue
		}
		result.PostsInserted++

		for _, comment := range doc.Comments {
			if err := s.insertComment(ctx, tx, silverPostID, comment); err != nil {
				return ports.RefinedBatchResult{}, err
			}
			result.CommentsInserted++
		}

		if err := s.upsertSummary(ctx, tx, silverPostID, doc.CommentSummary); err != nil {
			return ports.RefinedBatchResult{}, err
		}

		result.Committed = append(result.Committed, doc.RawDocID)
	}

	if err := tx.Commit(); err != nil {
		return ports.RefinedBatchResult{}, fmt.Errorf("commit refinement tx: %w", err)
	}

	return result, nil
}

func (s *Store) insertPost(ctx context.Context, tx *sql.Tx, doc domain.RefinedDocument, now time.Time) (int64, bool, error) {
	query, args, err := s.builder.
		Insert("silver_reddit_posts").
		Columns(
			"original_bronze_id", "platform", "keyword", "global_keyword_id",
			"post_id", "title_clean", "body_clean", "author_hash",
			"subreddit_name", "post_url", "post_score", "upvote_ratio",
			"total_comments", "post_sentiment_label", "post_sentiment_score",
			"created_at_utc", "processed_at_utc",
		).
		Values(
			doc.RawDocID.Hex(), doc.Platform, doc.Keyword, doc.RequestID,
			doc.PostID, doc.Title, doc.Body, doc.AuthorHash,
			doc.Subreddit, doc.URL, doc.Score, doc.UpvoteRatio,
			doc.TotalComments, string(doc.PostSentiment.Label), doc.PostSentiment.Score,
			doc.CreatedAt, now,
		).
		Suffix("ON CONFLICT (original_bronze_id) DO NOTHING RETURNING silver_post_id").
		ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build post insert: %w", err)
	}

	var silverPostID int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&silverPostID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert post %s: %w", doc.PostID, err)
	}

	return silverPostID, true, nil
}

func (s *Store) insertComment(ctx context.Context, tx *sql.Tx, silverPostID int64, comment domain.RefinedComment) error {
	query, args, err := s.builder.
		Insert("silver_reddit_comments").
		Columns(
			"silver_post_id", "comment_id", "comment_body_clean", "author_hash",
			"comment_score", "comment_created_at_utc",
			"comment_sentiment_label", "comment_sentiment_score",
		).
		Values(
			silverPostID, comment.CommentID, comment.Body, comment.AuthorHash,
			comment.Score, comment.CreatedAt,
			string(comment.Sentiment.Label), comment.Sentiment.Score,
		).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build comment insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert comment %s: %w", comment.CommentID, err)
	}

	return nil
}

func (s *Store) upsertSummary(ctx context.Context, tx *sql.Tx, silverPostID int64, summary domain.Sentiment) error {
	query, args, err := s.builder.
		Insert("silver_reddit_comment_sentiment_summary").
		Columns("silver_post_id", "aggregated_label", "aggregated_score").
		Values(silverPostID, string(summary.Label), summary.Score).
		Suffix(`ON CONFLICT (silver_post_id) DO UPDATE SET
			aggregated_label = EXCLUDED.aggregated_label,
			aggregated_score = EXCLUDED.aggregated_score`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build summary upsert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert summary for post %d: %w", silverPostID, err)
	}

	return nil
}
