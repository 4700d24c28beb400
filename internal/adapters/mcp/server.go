package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/academic-standing/internal/core/domain"
	"github.com/kirillkom/academic-standing/internal/core/ports"
)

const (
	serverName        = "academic-standing"
	classifyToolName  = "classify_learning_results"
	recordsArgument   = "records"
	classifyToolUsage = "Annotate a batch of per-semester learning results with an academic standing label. " +
		"Input is a JSON array of records keyed by id, semester, registered_credits, semester_average, " +
		"accumulated_credits and cumulative_average. Returns the same records with academic_processing set to \"Warning\" or empty."
)

type Server struct {
	processor ports.LearningResultsProcessor
	mcp       *server.MCPServer
}

func NewServer(processor ports.LearningResultsProcessor, version string) *Server {
	s := &Server{
		processor: processor,
		mcp:       server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(
		mcp.NewTool(classifyToolName,
			mcp.WithDescription(classifyToolUsage),
			mcp.WithString(recordsArgument,
				mcp.Required(),
				mcp.Description("JSON array of learning result records"),
			),
		),
		s.handleClassify,
	)
	return s
}

// ServeStdio blocks until stdin is closed.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString(recordsArgument)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var records []domain.AcademicRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("records must be a JSON array: %v", err)), nil
	}

	result, err := s.processor.Process(ctx, domain.SourceMCP, records)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := result.Records
	if out == nil {
		out = []domain.AcademicRecord{}
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode classified records: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
