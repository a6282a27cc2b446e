// Package digest renders the filtered, annotated paper list into
// outbound webhook payloads.
package digest

import (
	"fmt"
	"log/slog"
	"strings"

	"PaperNotifier/internal/config"
	"PaperNotifier/internal/domain"
)

// Formatter builds flow payloads keyed by the configured field names
// and the bot-mode digest text.
type Formatter struct {
	cfg    config.WebhookConfig
	logger *slog.Logger
}

// NewFormatter wires the webhook field configuration.
func NewFormatter(cfg config.WebhookConfig, logger *slog.Logger) *Formatter {
	return &Formatter{cfg: cfg, logger: logger}
}

// FlowPayloads produces one payload per paper. An empty input yields
// zero payloads. A paper that reaches the formatter without a title
// violates an upstream invariant; it is skipped and logged, never
// aborting the digest.
func (f *Formatter) FlowPayloads(papers []domain.MatchedPaper) []map[string]string {
	payloads := make([]map[string]string, 0, len(papers))
	for _, matched := range papers {
		if strings.TrimSpace(matched.Paper.Title) == "" {
			f.warn("skipping paper without title", "source", matched.Paper.Source, "identifier", matched.Paper.Identifier)
			continue
		}
		if f.cfg.SingleSummary {
			payloads = append(payloads, f.singleSummaryPayload(matched))
			continue
		}
		payloads = append(payloads, f.fieldPayload(matched))
	}
	return payloads
}

// singleSummaryPayload carries everything in the one description
// field: title, authors, and the two impact lines.
func (f *Formatter) singleSummaryPayload(matched domain.MatchedPaper) map[string]string {
	paper := matched.Paper
	lines := []string{paper.Title}
	if authors := paper.AuthorList(5); authors != "" {
		lines = append(lines, "Authors: "+authors)
	}
	lines = append(lines,
		"Scientific impact: "+matched.Note.ScientificImpact,
		"Social or industry impact: "+matched.Note.SocialImpact,
	)
	return map[string]string{
		f.cfg.FieldDescription: strings.Join(lines, "\n"),
	}
}

// fieldPayload splits the paper across the three configured fields.
func (f *Formatter) fieldPayload(matched domain.MatchedPaper) map[string]string {
	paper := matched.Paper
	return map[string]string{
		f.cfg.FieldTitle:       paper.Title,
		f.cfg.FieldAuthors:     strings.Join(paper.Authors, ", "),
		f.cfg.FieldDescription: Description(matched),
	}
}

// Description joins the abstract (when present) with the two impact
// lines.
func Description(matched domain.MatchedPaper) string {
	var lines []string
	if matched.Paper.Abstract != "" {
		lines = append(lines, matched.Paper.Abstract)
	}
	lines = append(lines,
		"Scientific impact: "+matched.Note.ScientificImpact,
		"Social or industry impact: "+matched.Note.SocialImpact,
	)
	return strings.Join(lines, "\n")
}

// TestPayload is the minimal synthetic payload used to validate the
// webhook field configuration without running the pipeline.
func (f *Formatter) TestPayload() map[string]string {
	return map[string]string{
		f.cfg.FieldTitle:       "paper test",
		f.cfg.FieldAuthors:     "paper-notifier",
		f.cfg.FieldDescription: "abstract test",
	}
}

// DigestText renders the whole run as one bot-mode text message.
func DigestText(papers []domain.MatchedPaper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Daily paper digest (%d)**\n", len(papers))
	for i, matched := range papers {
		paper := matched.Paper
		b.WriteString("\n")
		if i > 0 {
			b.WriteString("---\n")
		}
		fmt.Fprintf(&b, "**%d) %s**\n", i+1, paper.Title)
		authors := paper.AuthorList(5)
		if authors == "" {
			authors = "Unknown"
		}
		fmt.Fprintf(&b, "**Authors:** %s\n", authors)
		date := "n/a"
		if !paper.PublishedAt.IsZero() {
			date = paper.PublishedAt.UTC().Format("2006-01-02")
		}
		fmt.Fprintf(&b, "**Source:** %s | **Date:** %s\n", paper.Source, date)
		if paper.Abstract != "" {
			fmt.Fprintf(&b, "**Abstract:** %s\n", paper.Abstract)
		}
		fmt.Fprintf(&b, "**Scientific impact:** %s\n", matched.Note.ScientificImpact)
		fmt.Fprintf(&b, "**Social or industry impact:** %s\n", matched.Note.SocialImpact)
		if paper.URL != "" {
			fmt.Fprintf(&b, "**URL:** %s\n", paper.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
