package warehouse

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
)

// PendingRequests lists keyword requests that have never completed an
// ingestion run, for sweep mode.
func (s *Store) PendingRequests(ctx context.Context) ([]domain.Request, error) {
	query, args, err := s.builder.
		Select("global_keyword_id", "keyword").
		From("global_keywords").
		Where(sq.Eq{"bronze_processed": false}).
		OrderBy("global_keyword_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.Request
	for rows.Next() {
		var r domain.Request
		if err := rows.Scan(&r.ID, &r.Keyword); err != nil {
			return nil, fmt.Errorf("scan pending request: %w", err)
		}
		requests = append(requests, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return requests, nil
}

// SetStatus blindly overwrites the request status and stamps the run time.
// This is the sole externally observable progress signal, so it must stay
// callable repeatedly without further side effects.
func (s *Store) SetStatus(ctx context.Context, requestID int64, status domain.RequestStatus) error {
	query, args, err := s.builder.
		Update("global_keywords").
		Set("status", string(status)).
		Set("last_run_at", sq.Expr("NOW()")).
		Where(sq.Eq{"global_keyword_id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update status to %s: %w", status, err)
	}

	return nil
}

// MarkBronzeProcessed records that ingestion has written at least one
// document for the request.
func (s *Store) MarkBronzeProcessed(ctx context.Context, requestID int64) error {
	query, args, err := s.builder.
		Update("global_keywords").
		Set("bronze_processed", true).
		Where(sq.Eq{"global_keyword_id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build bronze update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark bronze processed: %w", err)
	}

	return nil
}
