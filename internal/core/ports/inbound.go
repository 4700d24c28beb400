package ports

import (
	"context"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

// LearningResultsProcessor is the inbound contract for standing classification of a batch.
type LearningResultsProcessor interface {
	Process(ctx context.Context, source string, records []domain.AcademicRecord) (*domain.ProcessingResult, error)
}

// RunReader is the inbound read model for recorded batch summaries.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*domain.BatchSummary, error)
}
