package warehouse

import (
	"context"
	"fmt"

	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// Promotion is set-based: one INSERT ... SELECT per content type, with
// dimension lookups falling back to sentinel keys instead of failing a row,
// and conflicts on (silver_content_id, model_id) resolving to no-ops.
// Comment content ids are negated to keep posts and comments disjoint in
// the shared surrogate key space.
const insertPostFactsSQL = `
INSERT INTO fact_sentiment_events (
    silver_content_id, model_id, platform_id, content_type_id,
    sentiment_id, date_id, time_id, sentiment_score, request_id
)
SELECT
    sp.silver_post_id,
    1,
    1,
    1,
    ds.sentiment_id,
    COALESCE(dd.date_id, 20251231),
    COALESCE(dt.time_id, 1200),
    sp.post_sentiment_score,
    $1
FROM silver_reddit_posts sp
JOIN global_keywords gk ON gk.global_keyword_id = sp.global_keyword_id
JOIN dim_sentiment ds ON ds.sentiment_label = sp.post_sentiment_label
LEFT JOIN dim_date dd ON dd.calendar_date = DATE(sp.created_at_utc)
LEFT JOIN dim_time dt ON dt.time_id = (EXTRACT(HOUR FROM sp.created_at_utc) * 100 + EXTRACT(MINUTE FROM sp.created_at_utc))
WHERE sp.global_keyword_id = $2
AND sp.gold_processed = FALSE
AND (gk.start_date IS NULL OR DATE(sp.created_at_utc) >= gk.start_date)
AND (gk.end_date IS NULL OR DATE(sp.created_at_utc) <= gk.end_date)
ON CONFLICT (silver_content_id, model_id) DO NOTHING`

const insertCommentFactsSQL = `
INSERT INTO fact_sentiment_events (
    silver_content_id, model_id, platform_id, content_type_id,
    sentiment_id, date_id, time_id, sentiment_score, request_id
)
SELECT
    -sc.silver_comment_id,
    1,
    1,
    2,
    ds.sentiment_id,
    COALESCE(dd.date_id, 20251231),
    COALESCE(dt.time_id, 1200),
    sc.comment_sentiment_score,
    $1
FROM silver_reddit_comments sc
JOIN silver_reddit_posts sp ON sc.silver_post_id = sp.silver_post_id
JOIN global_keywords gk ON gk.global_keyword_id = sp.global_keyword_id
JOIN dim_sentiment ds ON ds.sentiment_label = sc.comment_sentiment_label
LEFT JOIN dim_date dd ON dd.calendar_date = DATE(sc.comment_created_at_utc)
LEFT JOIN dim_time dt ON dt.time_id = (EXTRACT(HOUR FROM sc.comment_created_at_utc) * 100 + EXTRACT(MINUTE FROM sc.comment_created_at_utc))
WHERE sp.global_keyword_id = $2
AND sp.gold_processed = FALSE
AND (gk.start_date IS NULL OR DATE(sc.comment_created_at_utc) >= gk.start_date)
AND (gk.end_date IS NULL OR DATE(sc.comment_created_at_utc) <= gk.end_date)
ON CONFLICT (silver_content_id, model_id) DO NOTHING`

const flagPostsSQL = `
UPDATE silver_reddit_posts
SET gold_processed = TRUE
WHERE global_keyword_id = $1 AND gold_processed = FALSE`

const flagSummariesSQL = `
UPDATE silver_reddit_comment_sentiment_summary css
SET gold_processed = TRUE
FROM silver_reddit_posts sp
WHERE css.silver_post_id = sp.silver_post_id
AND sp.global_keyword_id = $1
AND css.gold_processed = FALSE`

// PromoteFacts promotes all eligible refined rows for the request into the
// append-only fact table and flags them, in one transaction. Any failure
// rolls back all four statements.
func (s *Store) PromoteFacts(ctx context.Context, requestID int64) (ports.PromotionResult, error) {
	var result ports.PromotionResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin promotion tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	postFacts, err := tx.ExecContext(ctx, insertPostFactsSQL, requestID, requestID)
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("insert post facts: %w", err)
	}
	if n, err := postFacts.RowsAffected(); err == nil {
		result.PostFacts = int(n)
	}

	commentFacts, err := tx.ExecContext(ctx, insertCommentFactsSQL, requestID, requestID)
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("insert comment facts: %w", err)
	}
	if n, err := commentFacts.RowsAffected(); err == nil {
		result.CommentFacts = int(n)
	}

	summaries, err := tx.ExecContext(ctx, flagSummariesSQL, requestID)
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("flag summaries: %w", err)
	}
	if n, err := summaries.RowsAffected(); err == nil {
		result.SummariesFlagged = int(n)
	}

	posts, err := tx.ExecContext(ctx, flagPostsSQL, requestID)
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("flag posts: %w", err)
	}
	if n, err := posts.RowsAffected(); err == nil {
		result.PostsFlagged = int(n)
	}

	if err := tx.Commit(); err != nil {
		return ports.PromotionResult{}, fmt.Errorf("commit promotion tx: %w", err)
	}

	return result, nil
}
