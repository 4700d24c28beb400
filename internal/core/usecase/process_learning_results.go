package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/core/ports"
	"github.com/kirillkom/academic-standing/internal/core/standing"
)

type ProcessLearningResultsUseCase struct {
	classifier *standing.Classifier
	workers    int
	ledger     ports.RunLedger
	publisher  ports.SummaryPublisher
	observer   ports.BatchObserver

	now   func() time.Time
	newID func() string
}

// NewProcessLearningResultsUseCase wires the standing pipeline. ledger,
// publisher and observer may be nil.
func NewProcessLearningResultsUseCase(
	classifier *standing.Classifier,
	workers int,
	ledger ports.RunLedger,
	publisher ports.SummaryPublisher,
	observer ports.BatchObserver,
) *ProcessLearningResultsUseCase {
	if classifier == nil {
		classifier = standing.NewClassifier()
	}
	return &ProcessLearningResultsUseCase{
		classifier: classifier,
		workers:    workers,
		ledger:     ledger,
		publisher:  publisher,
		observer:   observer,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func (uc *ProcessLearningResultsUseCase) Process(
	ctx context.Context,
	source string,
	records []domain.AcademicRecord,
) (*domain.ProcessingResult, error) {
	start := time.Now()

	batch, err := standing.ProcessConcurrent(ctx, uc.classifier, records, uc.workers)
	if err != nil {
		return nil, fmt.Errorf("process learning results: %w", err)
	}

	summary := batch.Summary()
	summary.BatchID = uc.newID()
	summary.Source = normalizeSource(source)
	summary.CreatedAt = uc.now()
	duration := time.Since(start)

	uc.logUnclassifiable(summary.BatchID, batch)
	uc.recordRun(ctx, summary)
	uc.publishSummary(ctx, summary)
	if uc.observer != nil {
		uc.observer.ObserveBatch(summary, duration)
	}

	slog.Info("standing_batch_processed",
		"batch_id", summary.BatchID,
		"source", summary.Source,
		"students", summary.Students,
		"records", summary.Records,
		"warnings", summary.Warnings,
		"unclassifiable", summary.Unclassifiable,
		"duration_ms", float64(duration.Microseconds())/1000.0,
	)

	return &domain.ProcessingResult{
		Records: batch.Records(),
		Summary: summary,
	}, nil
}

func (uc *ProcessLearningResultsUseCase) GetRun(ctx context.Context, id string) (*domain.BatchSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get run", errors.New("run id is required"))
	}
	if uc.ledger == nil {
		return nil, domain.WrapError(domain.ErrRunNotFound, "get run", errors.New("run ledger is disabled"))
	}
	run, err := uc.ledger.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return run, nil
}

// recordRun and publishSummary are best effort: the annotated batch is
// returned even when they fail.
func (uc *ProcessLearningResultsUseCase) recordRun(ctx context.Context, summary domain.BatchSummary) {
	if uc.ledger == nil {
		return
	}
	if err := uc.ledger.RecordRun(ctx, summary); err != nil {
		slog.Warn("standing_run_ledger_failed", "batch_id", summary.BatchID, "error", err)
	}
}

func (uc *ProcessLearningResultsUseCase) publishSummary(ctx context.Context, summary domain.BatchSummary) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishBatchSummary(ctx, summary); err != nil {
		slog.Warn("standing_summary_publish_failed", "batch_id", summary.BatchID, "error", err)
	}
}

func (uc *ProcessLearningResultsUseCase) logUnclassifiable(batchID string, batch standing.Batch) {
	for _, res := range batch.Results {
		if res.Evaluation.Classified {
			continue
		}
		slog.Debug("standing_record_unclassifiable",
			"batch_id", batchID,
			"student_id", res.Record.StudentID,
			"semester", res.Record.Semester,
			"error", res.Evaluation.Err,
		)
	}
}

func normalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return "unknown"
	}
	return source
}
