package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/core/ports"
)

// BatchMetrics is satisfied by metrics.WorkerMetrics.
type BatchMetrics interface {
	StartBatch()
	FinishBatch(duration time.Duration, err error)
}

type Handler struct {
	processor ports.LearningResultsProcessor
	metrics   BatchMetrics
	timeout   time.Duration
}

// NewHandler builds the request/reply handler for batch messages. metrics
// may be nil; a non-positive timeout means no per-batch deadline.
func NewHandler(processor ports.LearningResultsProcessor, metrics BatchMetrics, timeout time.Duration) *Handler {
	return &Handler{processor: processor, metrics: metrics, timeout: timeout}
}

// Handle decodes a JSON array of records and replies with the annotated array.
func (h *Handler) Handle(ctx context.Context, payload []byte) (reply []byte, err error) {
	if h.metrics != nil {
		start := time.Now()
		h.metrics.StartBatch()
		defer func() { h.metrics.FinishBatch(time.Since(start), err) }()
	}

	var records []domain.AcademicRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode batch", errors.New("payload must be a json array of learning results"))
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.processor.Process(ctx, domain.SourceNATS, records)
	if err != nil {
		return nil, err
	}

	out := result.Records
	if out == nil {
		out = []domain.AcademicRecord{}
	}
	reply, err = json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode batch reply: %w", err)
	}
	return reply, nil
}
