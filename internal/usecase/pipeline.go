package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"PaperNotifier/internal/config"
	"PaperNotifier/internal/dedup"
	"PaperNotifier/internal/digest"
	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/impact"
	"PaperNotifier/internal/keyword"
	"PaperNotifier/internal/ports"
	"PaperNotifier/internal/source"
)

// PipelineDeps wires all collaborators into the orchestration
// pipeline.
type PipelineDeps struct {
	Registry  *source.Registry
	Order     []domain.SourceKind
	Engine    *keyword.Engine
	Annotator *impact.Annotator
	Formatter *digest.Formatter
	Notifier  ports.Notifier
	MatchLog  ports.MatchLog
	Sources   config.SourcesConfig
	Webhook   config.WebhookConfig
	Logger    *slog.Logger
}

// Pipeline implements one run: fetch all sources concurrently,
// deduplicate, filter, annotate, format, deliver, log matches.
type Pipeline struct {
	registry  *source.Registry
	order     []domain.SourceKind
	engine    *keyword.Engine
	annotator *impact.Annotator
	formatter *digest.Formatter
	notifier  ports.Notifier
	matchLog  ports.MatchLog
	sources   config.SourcesConfig
	webhook   config.WebhookConfig
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	order := deps.Order
	if len(order) == 0 {
		order = domain.DefaultSourceOrder
	}
	return &Pipeline{
		registry:  deps.Registry,
		order:     order,
		engine:    deps.Engine,
		annotator: deps.Annotator,
		formatter: deps.Formatter,
		notifier:  deps.Notifier,
		matchLog:  deps.MatchLog,
		sources:   deps.Sources,
		webhook:   deps.Webhook,
		logger:    deps.Logger,
	}
}

// Run executes one pipeline invocation. Source and annotation
// failures degrade; only delivery errors propagate to the caller.
func (p *Pipeline) Run(ctx context.Context, now time.Time) error {
	papers := p.fetchAll(ctx, now)
	p.info("fetched papers", "count", len(papers))

	papers = dedup.Deduplicate(papers)
	p.info("papers after dedup", "count", len(papers))

	matched := p.filter(papers)
	p.info("papers after keyword filter", "count", len(matched), "rules", p.engine.RuleCount())

	if len(matched) == 0 {
		p.info("no papers matched, skipping webhook")
		return nil
	}

	for i := range matched {
		matched[i].Note = p.annotator.Annotate(ctx, matched[i].Paper)
	}

	if p.matchLog != nil {
		if err := p.matchLog.Append(matched); err != nil {
			p.warn("match log append failed", "error", err)
		}
	}

	return p.deliver(ctx, matched)
}

// SendTest posts the minimal synthetic flow payload to validate the
// webhook configuration without touching any source.
func (p *Pipeline) SendTest(ctx context.Context) error {
	if p.webhook.Type != "flow" {
		return fmt.Errorf("test payload requires webhook type flow, got %q", p.webhook.Type)
	}
	return p.notifier.SendFlow(ctx, p.formatter.TestPayload())
}

// fetchAll issues every adapter concurrently under a bounded group.
// Results land in per-source slots so the concatenation follows the
// configured precedence order regardless of completion order. A
// failed or timed-out adapter contributes an empty slice and a
// warning; it never aborts the others.
func (p *Pipeline) fetchAll(ctx context.Context, now time.Time) []domain.Paper {
	query := ports.FetchQuery{
		Terms:      p.sources.Query,
		MaxResults: p.sources.MaxPapers,
		Since:      now.UTC().AddDate(0, 0, -p.sources.DaysBack),
	}

	fetchers := p.registry.Ordered(p.order)
	slots := make([][]domain.Paper, len(fetchers))

	g := new(errgroup.Group)
	g.SetLimit(p.sources.Concurrency)
	for i, fetcher := range fetchers {
		i, fetcher := i, fetcher
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, p.sources.FetchTimeout())
			defer cancel()

			papers, err := fetcher.Fetch(fctx, query)
			if err != nil {
				p.warn("source fetch failed", "source", fetcher.Kind(), "error", err)
				return nil
			}
			p.debug("source fetched", "source", fetcher.Kind(), "count", len(papers))
			slots[i] = papers
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.Paper
	for _, slot := range slots {
		all = append(all, slot...)
	}
	return all
}

func (p *Pipeline) filter(papers []domain.Paper) []domain.MatchedPaper {
	var matched []domain.MatchedPaper
	for _, paper := range papers {
		ok, reasons := p.engine.Evaluate(paper)
		if !ok {
			continue
		}
		p.debug("paper matched", "title", paper.Title, "reasons", reasons)
		matched = append(matched, domain.MatchedPaper{Paper: paper, Reasons: reasons})
	}
	return matched
}

// deliver hands the formatted output to the webhook. Flow mode keeps
// sending the remaining payloads after a failure and reports the
// collected errors.
func (p *Pipeline) deliver(ctx context.Context, matched []domain.MatchedPaper) error {
	if p.notifier == nil {
		return nil
	}

	if p.webhook.Type == "flow" {
		payloads := p.formatter.FlowPayloads(matched)
		p.info("posting flow payloads", "count", len(payloads))
		var errs []error
		for _, payload := range payloads {
			if err := p.notifier.SendFlow(ctx, payload); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("flow delivery: %w", errors.Join(errs...))
		}
		return nil
	}

	p.info("posting bot digest", "papers", len(matched))
	if err := p.notifier.SendText(ctx, digest.DigestText(matched)); err != nil {
		return fmt.Errorf("bot delivery: %w", err)
	}
	return nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
