package httpadapter

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

//go:embed openapi.yaml
var openAPISpec []byte

const batchPath = "/api/plr/process-learning-results"

type contract struct {
	batchSchema *openapi3.Schema
}

func loadContract() (*contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	item := doc.Paths.Value(batchPath)
	if item == nil || item.Post == nil || item.Post.RequestBody == nil || item.Post.RequestBody.Value == nil {
		return nil, errors.New("openapi spec has no request body for " + batchPath)
	}
	media := item.Post.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, errors.New("openapi spec has no json schema for " + batchPath)
	}
	return &contract{batchSchema: media.Schema.Value}, nil
}

// validateBatch checks a raw request body against the batch schema.
func (c *contract) validateBatch(body []byte) error {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode batch", errors.New("invalid json"))
	}
	if err := c.batchSchema.VisitJSON(value); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate batch", err)
	}
	return nil
}
