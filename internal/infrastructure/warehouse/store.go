package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/Sibtain012/BrandPulse-2.0/internal/domain"
	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// Store is the relational side of the pipeline: request lifecycle, refined
// rows and the fact table, all behind one long-lived sql.DB handle.
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RequestStore = (*Store)(nil)
var _ ports.Warehouse = (*Store)(nil)

// New wires a sql.DB implementation.
func New(db *sql.DB) *Store {
	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// AcquireRunLock takes the per-request advisory lock that enforces one
// active pipeline run per request id. Advisory locks are session scoped, so
// the lock pins a dedicated connection until released.
func (s *Store) AcquireRunLock(ctx context.Context, requestID int64) (ports.RunLock, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", requestID).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, domain.ErrRunLocked
	}

	return &runLock{conn: conn, requestID: requestID}, nil
}

type runLock struct {
	conn      *sql.Conn
	requestID int64
}

func (l *runLock) Release(ctx context.Context) error {
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.requestID)
	closeErr := l.conn.Close()
	if err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close lock connection: %w", closeErr)
	}
	return nil
}
