package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/academic-standing/internal/core/domain"
)

func fastConfig(breaker bool) Config {
	return Config{
		RetryMaxAttempts:        3,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         2 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          breaker,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(false))

	attempts := 0
	err := exec.Execute(context.Background(), "ledger.record", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return domain.WrapError(domain.ErrTemporary, "insert run", errors.New("conn reset"))
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(false))

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "ledger.record", func(context.Context) error {
		attempts++
		return errPermanent
	}, nil)
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	cfg := fastConfig(true)
	cfg.RetryMaxAttempts = 1
	exec := NewExecutor(cfg)

	errDown := errors.New("down")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
			return errDown
		}, nil)
		if !errors.Is(err, errDown) {
			t.Fatalf("expected down error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "nats.publish", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := Config{RetryInitialBackoff: 10 * time.Millisecond, RetryMaxBackoff: 25 * time.Millisecond, RetryMultiplier: 2}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond, 25 * time.Millisecond}
	for i, w := range want {
		if got := cfg.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %s, want %s", i+1, got, w)
		}
	}
}

func TestClassifyTemporary(t *testing.T) {
	if ClassifyTemporary(context.Canceled).RecordFailure {
		t.Fatalf("cancellation must not count as a failure")
	}
	if !ClassifyTemporary(domain.WrapError(domain.ErrTemporary, "op", errors.New("x"))).Retryable {
		t.Fatalf("temporary errors must be retryable")
	}
	if ClassifyTemporary(errors.New("bad")).Retryable {
		t.Fatalf("plain errors must not be retryable")
	}
}
