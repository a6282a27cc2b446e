package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
	"PaperNotifier/internal/source"
)

// RSSSource aggregates papers from a configured list of RSS/Atom feed
// URLs (journal alerts, lab blogs, preprint feeds).
type RSSSource struct {
	client *http.Client
	feeds  []string
	logger *slog.Logger
}

var _ ports.PaperSource = (*RSSSource)(nil)

// NewRSSSource wires the feed URL list; nil client means a
// 20s-timeout default.
func NewRSSSource(client *http.Client, feeds []string, logger *slog.Logger) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSSource{client: client, feeds: feeds, logger: logger}
}

// Kind identifies the adapter inside the registry.
func (r *RSSSource) Kind() domain.SourceKind {
	return domain.SourceRSS
}

// Fetch walks every configured feed. A broken feed is skipped with a
// warning so the remaining feeds still contribute; the fetch only
// fails when no feed could be read at all.
func (r *RSSSource) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Paper, error) {
	if len(r.feeds) == 0 {
		return nil, nil
	}

	var (
		papers  []domain.Paper
		lastErr error
		fetched int
	)
	for _, feedURL := range r.feeds {
		parsed, err := fetchFeed(ctx, r.client, feedURL)
		if err != nil {
			lastErr = err
			r.warn("rss feed failed", "feed", feedURL, "error", err)
			continue
		}
		fetched++
		papers = append(papers, r.extract(parsed, query)...)
	}

	if fetched == 0 && lastErr != nil {
		return nil, fmt.Errorf("all rss feeds failed: %w", lastErr)
	}
	return papers, nil
}

func (r *RSSSource) extract(parsed *gofeed.Feed, query ports.FetchQuery) []domain.Paper {
	var papers []domain.Paper
	for _, item := range parsed.Items {
		published := itemPublished(item)
		if !published.IsZero() && published.Before(query.Since) {
			continue
		}

		title := collapseTitle(item.Title)
		if title == "" {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		identifier := strings.TrimSpace(item.GUID)
		if identifier == "" {
			identifier = item.Link
		}

		papers = append(papers, domain.Paper{
			Title:       title,
			Authors:     itemAuthors(item),
			Abstract:    source.CleanAbstract(summary, source.DefaultAbstractLimit),
			URL:         item.Link,
			Source:      domain.SourceRSS,
			Identifier:  identifier,
			PublishedAt: published,
		})
	}
	return papers
}

func (r *RSSSource) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
