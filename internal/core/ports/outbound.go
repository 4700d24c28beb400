package ports

import (
	"context"
	"time"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

// RunLedger stores per-batch counts. It never stores records.
type RunLedger interface {
	RecordRun(ctx context.Context, summary domain.BatchSummary) error
	GetRun(ctx context.Context, id string) (*domain.BatchSummary, error)
}

// SummaryPublisher announces processed batches to other services.
type SummaryPublisher interface {
	PublishBatchSummary(ctx context.Context, summary domain.BatchSummary) error
}

// BatchObserver receives processing measurements.
type BatchObserver interface {
	ObserveBatch(summary domain.BatchSummary, duration time.Duration)
}
