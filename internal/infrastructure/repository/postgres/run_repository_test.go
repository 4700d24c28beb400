package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/infrastructure/resilience"
)

func newRepoWithMock(t *testing.T, executor *resilience.Executor) (*RunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewRunRepository(db, executor), mock, func() { _ = db.Close() }
}

func TestRecordRunInsertsCounts(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	createdAt := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO standing_runs").
		WithArgs("batch-1", "http", 2, 4, 1, 1, []byte(`{"low_term_average":1}`), createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordRun(context.Background(), domain.BatchSummary{
		BatchID:        "batch-1",
		Source:         "http",
		Students:       2,
		Records:        4,
		Warnings:       1,
		Unclassifiable: 1,
		RuleHits:       map[string]int{"low_term_average": 1},
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordRunRetriesConnectionFailure(t *testing.T) {
	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
	})
	repo, mock, done := newRepoWithMock(t, executor)
	defer done()

	mock.ExpectExec("INSERT INTO standing_runs").WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	mock.ExpectExec("INSERT INTO standing_runs").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordRun(context.Background(), domain.BatchSummary{BatchID: "batch-2", Source: "nats"})
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRunReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	mock.ExpectQuery("SELECT batch_id, source, students").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetRun(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRunScansSummary(t *testing.T) {
	repo, mock, done := newRepoWithMock(t, nil)
	defer done()

	createdAt := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"batch_id", "source", "students", "records", "warnings", "unclassifiable", "rule_hits", "created_at"}).
		AddRow("batch-1", "cli", 3, 9, 2, 0, []byte(`{"non_registration":2}`), createdAt)
	mock.ExpectQuery("FROM standing_runs").WithArgs("batch-1").WillReturnRows(rows)

	run, err := repo.GetRun(context.Background(), "batch-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Records != 9 || run.Warnings != 2 || run.RuleHits["non_registration"] != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if !run.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected created_at: %s", run.CreatedAt)
	}
}

func TestTemporaryPostgresErrors(t *testing.T) {
	if !isTemporaryPostgresError(&pgconn.PgError{Code: "08006"}) {
		t.Fatalf("connection failure must be temporary")
	}
	if !isTemporaryPostgresError(&pgconn.PgError{Code: "40001"}) {
		t.Fatalf("serialization failure must be temporary")
	}
	if isTemporaryPostgresError(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation must not be temporary")
	}
	if isTemporaryPostgresError(errors.New("boom")) {
		t.Fatalf("plain errors must not be temporary")
	}
}
