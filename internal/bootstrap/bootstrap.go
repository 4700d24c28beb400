package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/academic-standing/internal/config"
	"github.com/kirillkom/academic-standing/internal/core/ports"
	"github.com/kirillkom/academic-standing/internal/core/standing"
	"github.com/kirillkom/academic-standing/internal/core/usecase"
	"github.com/kirillkom/academic-standing/internal/infrastructure/queue/nats"
	"github.com/kirillkom/academic-standing/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/academic-standing/internal/infrastructure/resilience"
	"github.com/kirillkom/academic-standing/internal/infrastructure/rulesfile"
)

type App struct {
	Config config.Config

	Rules     standing.RuleSet
	Queue     *nats.Queue
	ProcessUC *usecase.ProcessLearningResultsUseCase

	closeFns []func()
}

type Options struct {
	// Observer receives per-batch summaries; nil disables it.
	Observer ports.BatchObserver
	// RequireQueue connects to NATS even when summary events are disabled.
	RequireQueue bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	rules, err := rulesfile.Load(cfg.StandingRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load standing rules: %w", err)
	}
	classifier := standing.NewClassifier(standing.DefaultRules(rules)...)
	executor := resilience.NewExecutor(resilienceConfig(cfg))

	app := &App{Config: cfg, Rules: rules}

	var ledger ports.RunLedger
	if cfg.RunLedgerEnabled {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = db.Close() })

		repo := postgres.NewRunRepository(db, executor)
		if err := repo.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		ledger = repo
	}

	var publisher ports.SummaryPublisher
	if cfg.EventsEnabled || opts.RequireQueue {
		queue, err := nats.New(cfg.NATSURL, nats.Options{
			BatchSubject:       cfg.StandingNATSSubject,
			SummarySubject:     summarySubject(cfg),
			QueueGroup:         cfg.NATSQueueGroup,
			ResilienceExecutor: executor,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.closeFns = append(app.closeFns, queue.Close)
		if cfg.EventsEnabled {
			publisher = queue
		}
	}

	app.ProcessUC = usecase.NewProcessLearningResultsUseCase(classifier, cfg.StandingWorkers, ledger, publisher, opts.Observer)

	slog.Info("standing_bootstrap_ready",
		"rules", classifier.RuleNames(),
		"workers", cfg.StandingWorkers,
		"run_ledger", ledger != nil,
		"events", publisher != nil,
	)
	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	out.RetryInitialBackoff = cfg.ResilienceRetryInitialBackoff
	out.RetryMaxBackoff = cfg.ResilienceRetryMaxBackoff
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	out.BreakerOpenTimeout = cfg.ResilienceBreakerOpenTimeout
	return out
}

func summarySubject(cfg config.Config) string {
	if !cfg.EventsEnabled {
		return ""
	}
	return cfg.StandingSummarySubject
}
