package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/infrastructure/resilience"
)

// RunRepository keeps one row of counts per processed batch.
type RunRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewRunRepository(db *sql.DB, executor *resilience.Executor) *RunRepository {
	return &RunRepository{db: db, executor: executor}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS standing_runs (
	batch_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	students INTEGER NOT NULL,
	records INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	unclassifiable INTEGER NOT NULL,
	rule_hits JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_standing_runs_created_at ON standing_runs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) RecordRun(ctx context.Context, summary domain.BatchSummary) error {
	hits := summary.RuleHits
	if hits == nil {
		hits = map[string]int{}
	}
	hitsJSON, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("marshal rule hits: %w", err)
	}

	insert := func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO standing_runs (
	batch_id, source, students, records, warnings, unclassifiable, rule_hits, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
			summary.BatchID, summary.Source, summary.Students, summary.Records,
			summary.Warnings, summary.Unclassifiable, hitsJSON, summary.CreatedAt,
		)
		if err != nil {
			return wrapTemporaryIfNeeded("insert standing run", err)
		}
		return nil
	}

	if r.executor != nil {
		return r.executor.Execute(ctx, "postgres.record_run", insert, resilience.ClassifyTemporary)
	}
	return insert(ctx)
}

func (r *RunRepository) GetRun(ctx context.Context, id string) (*domain.BatchSummary, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT batch_id, source, students, records, warnings, unclassifiable, rule_hits, created_at
FROM standing_runs
WHERE batch_id = $1
`, id)

	var run domain.BatchSummary
	var hitsRaw []byte
	err := row.Scan(
		&run.BatchID, &run.Source, &run.Students, &run.Records,
		&run.Warnings, &run.Unclassifiable, &hitsRaw, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRunNotFound, "get run", fmt.Errorf("batch_id=%s", id))
		}
		return nil, wrapTemporaryIfNeeded("scan standing run", err)
	}

	run.RuleHits = map[string]int{}
	if len(hitsRaw) > 0 {
		if err := json.Unmarshal(hitsRaw, &run.RuleHits); err != nil {
			return nil, fmt.Errorf("unmarshal rule hits: %w", err)
		}
	}
	return &run, nil
}

// wrapTemporaryIfNeeded marks connection loss and serialization conflicts
// as temporary so callers may retry.
func wrapTemporaryIfNeeded(operation string, err error) error {
	if isTemporaryPostgresError(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func isTemporaryPostgresError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57P01":
			return true
		}
	}
	return false
}
