package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	if !classifyNATSError(fmt.Errorf("publish: %w", nats.ErrConnectionClosed)).Retryable {
		t.Fatalf("closed connection must be retryable")
	}
	if !classifyNATSError(gobreaker.ErrOpenState).Retryable {
		t.Fatalf("open circuit must be retryable")
	}
	if classifyNATSError(context.Canceled).RecordFailure {
		t.Fatalf("cancellation must not be recorded as failure")
	}
	if classifyNATSError(nats.ErrBadSubject).Retryable {
		t.Fatalf("bad subject must not be retryable")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(nats.ErrNoServers)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	plain := errors.New("payload too large")
	if got := wrapTemporaryIfNeeded(plain); got != plain {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
}

func TestBuildReply(t *testing.T) {
	ok := buildReply("_INBOX.1", []byte(`[]`), nil)
	if string(ok.Data) != "[]" || ok.Header.Get(errorHeader) != "" {
		t.Fatalf("unexpected success reply: %+v", ok)
	}

	failed := buildReply("_INBOX.2", nil, errors.New("invalid json"))
	if failed.Header.Get(errorHeader) != "invalid json" {
		t.Fatalf("expected error header, got %+v", failed.Header)
	}
	if string(failed.Data) != `{"error":"invalid json"}` {
		t.Fatalf("unexpected error payload: %s", failed.Data)
	}
}
