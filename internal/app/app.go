package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PaperNotifier/internal/config"
	"PaperNotifier/internal/digest"
	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/impact"
	"PaperNotifier/internal/infrastructure/feed"
	"PaperNotifier/internal/infrastructure/llm"
	"PaperNotifier/internal/infrastructure/matchlog"
	"PaperNotifier/internal/infrastructure/scheduler"
	"PaperNotifier/internal/infrastructure/webhook"
	"PaperNotifier/internal/keyword"
	"PaperNotifier/internal/logging"
	"PaperNotifier/internal/ports"
	"PaperNotifier/internal/source"
	"PaperNotifier/internal/usecase"
	"PaperNotifier/pkg/logger"
)

// Application wires configuration into the pipeline and run modes.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance. Keyword rules load
// here, before any network activity, so a malformed rule aborts the
// process instead of silently filtering wrong.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(nil, cfg.Logging.Level)
	}

	rules, err := keyword.Load(cfg.Keywords.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load keyword rules: %w", err)
	}
	engine := keyword.NewEngine(rules, cfg.Keywords.KeyAuthors)

	registry := source.NewRegistry()
	registry.Register(feed.NewArxivSource(nil))
	registry.Register(feed.NewCrossrefSource(nil, cfg.Sources.CrossrefRows, cfg.Sources.CrossrefMailto))
	registry.Register(feed.NewSemanticScholarSource(nil, cfg.Sources.SemanticScholarLimit, cfg.Sources.SemanticScholarAPIKey))
	registry.Register(feed.NewRSSSource(nil, cfg.Sources.RSSFeeds, baseLogger.With("component", "source.rss")))

	var generator ports.TextGenerator
	if cfg.Impact.APIKey != "" {
		generator = llm.NewOpenRouterClient(cfg.Impact)
	}
	annotator := impact.NewAnnotator(generator, nil, baseLogger.With("component", "impact"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:  registry,
		Order:     domain.DefaultSourceOrder,
		Engine:    engine,
		Annotator: annotator,
		Formatter: digest.NewFormatter(cfg.Webhook, baseLogger.With("component", "digest")),
		Notifier:  webhook.NewNotifier(cfg.Webhook, logger.New("webhook")),
		MatchLog:  matchlog.NewFileLog(cfg.MatchLog.Path),
		Sources:   cfg.Sources,
		Webhook:   cfg.Webhook,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}, nil
}

// RunOnce performs a single pipeline execution.
func (a *Application) RunOnce(ctx context.Context) error {
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.pipeline.Run(ctx, now)
}

// RunSchedule executes the pipeline daily at the configured time
// until the context is cancelled.
func (a *Application) RunSchedule(ctx context.Context) error {
	driver := scheduler.NewDailyScheduler(a.cfg.Scheduler.RunTime, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.pipeline)

	a.logger.Info("scheduler started",
		"run_time", a.cfg.Scheduler.RunTime,
		"timezone", a.cfg.Scheduler.Location().String(),
		"next_run", driver.NextRun(time.Now()).Format(time.RFC3339))

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return sched.Stop(context.Background())
}

// SendTest posts the minimal synthetic flow payload and exits.
func (a *Application) SendTest(ctx context.Context) error {
	return a.pipeline.SendTest(ctx)
}
