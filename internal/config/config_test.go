package config

import (
	"testing"
	"time"
)

func TestLoadIncludesStandingDefaults(t *testing.T) {
	t.Setenv("STANDING_WORKERS", "")
	t.Setenv("STANDING_RULES_PATH", "")
	t.Setenv("RUN_LEDGER_ENABLED", "")
	t.Setenv("EVENTS_ENABLED", "")
	t.Setenv("STANDING_NATS_SUBJECT", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")

	cfg := Load()
	if cfg.StandingWorkers != 1 {
		t.Fatalf("expected default workers 1, got %d", cfg.StandingWorkers)
	}
	if cfg.StandingRulesPath != "" {
		t.Fatalf("expected no default rules path, got %q", cfg.StandingRulesPath)
	}
	if cfg.RunLedgerEnabled || cfg.EventsEnabled {
		t.Fatalf("expected ledger and events disabled by default")
	}
	if cfg.StandingNATSSubject != "standing.batches.process" {
		t.Fatalf("expected default subject, got %q", cfg.StandingNATSSubject)
	}
	if cfg.APIRateLimitRPS != 50 {
		t.Fatalf("expected default rps 50, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.ResilienceBreakerOpenTimeout != 30*time.Second {
		t.Fatalf("expected default breaker timeout 30s, got %s", cfg.ResilienceBreakerOpenTimeout)
	}
}

func TestLoadParsesOverridesAndIgnoresGarbage(t *testing.T) {
	t.Setenv("STANDING_WORKERS", "8")
	t.Setenv("RUN_LEDGER_ENABLED", "true")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("EVENTS_ENABLED", "maybe")

	cfg := Load()
	if cfg.StandingWorkers != 8 {
		t.Fatalf("expected workers 8, got %d", cfg.StandingWorkers)
	}
	if !cfg.RunLedgerEnabled {
		t.Fatalf("expected ledger enabled")
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.APIRateLimitBurst != 100 {
		t.Fatalf("expected fallback burst 100, got %d", cfg.APIRateLimitBurst)
	}
	if cfg.EventsEnabled {
		t.Fatalf("expected fallback false for invalid bool")
	}
}
