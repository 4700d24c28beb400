package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/core/standing"
)

type fakeProcessor struct {
	err    error
	source string
}

func (f *fakeProcessor) Process(_ context.Context, source string, records []domain.AcademicRecord) (*domain.ProcessingResult, error) {
	f.source = source
	if f.err != nil {
		return nil, f.err
	}
	batch := standing.Process(standing.NewClassifier(), records)
	return &domain.ProcessingResult{Records: batch.Records(), Summary: batch.Summary()}, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = classifyToolName
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestHandleClassifyReturnsAnnotatedRecords(t *testing.T) {
	processor := &fakeProcessor{}
	s := NewServer(processor, "test")

	records := `[{"id":"S1","semester":"5","registered_credits":"15","semester_average":"2.0","accumulated_credits":"90","cumulative_average":"1.55"}]`
	res, err := s.handleClassify(context.Background(), callRequest(map[string]any{recordsArgument: records}))
	if err != nil {
		t.Fatalf("handleClassify() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var out []domain.AcademicRecord
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("decode tool output: %v", err)
	}
	if len(out) != 1 || out[0].AcademicProcessing != string(domain.StandingWarning) {
		t.Fatalf("expected year 3 record below 1.6 to be warned, got %+v", out)
	}
	if processor.source != domain.SourceMCP {
		t.Fatalf("expected source %q, got %q", domain.SourceMCP, processor.source)
	}
}

func TestHandleClassifyToolErrors(t *testing.T) {
	cases := []struct {
		name      string
		args      map[string]any
		processor *fakeProcessor
	}{
		{name: "missing records", args: map[string]any{}, processor: &fakeProcessor{}},
		{name: "not an array", args: map[string]any{recordsArgument: `{"id":"S1"}`}, processor: &fakeProcessor{}},
		{name: "processor failure", args: map[string]any{recordsArgument: `[]`}, processor: &fakeProcessor{err: errors.New("boom")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewServer(tc.processor, "test")
			res, err := s.handleClassify(context.Background(), callRequest(tc.args))
			if err != nil {
				t.Fatalf("handleClassify() error = %v", err)
			}
			if !res.IsError {
				t.Fatalf("expected tool error result")
			}
		})
	}
}
