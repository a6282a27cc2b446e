package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
	"PaperNotifier/internal/source"
)

const arxivAPIBase = "http://export.arxiv.org/api/query"

// ArxivSource fetches recent submissions from the arXiv Atom API.
type ArxivSource struct {
	client  *http.Client
	baseURL string
}

var _ ports.PaperSource = (*ArxivSource)(nil)

// NewArxivSource wires an HTTP client; nil means a 20s-timeout default.
func NewArxivSource(client *http.Client) *ArxivSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivSource{client: client, baseURL: arxivAPIBase}
}

// Kind identifies the adapter inside the registry.
func (a *ArxivSource) Kind() domain.SourceKind {
	return domain.SourceArxiv
}

// Fetch queries the Atom API sorted by submission date and keeps
// entries published inside the query window.
func (a *ArxivSource) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Paper, error) {
	apiURL := fmt.Sprintf(
		"%s?search_query=all:%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		a.baseURL, url.QueryEscape(query.Terms), query.MaxResults,
	)

	parsed, err := fetchFeed(ctx, a.client, apiURL)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}

	papers := make([]domain.Paper, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		published := itemPublished(item)
		if published.IsZero() || published.Before(query.Since) {
			continue
		}

		title := collapseTitle(item.Title)
		if title == "" {
			continue
		}

		papers = append(papers, domain.Paper{
			Title:       title,
			Authors:     itemAuthors(item),
			Abstract:    source.CleanAbstract(item.Description, source.DefaultAbstractLimit),
			URL:         item.Link,
			Source:      domain.SourceArxiv,
			Identifier:  arxivID(item),
			PublishedAt: published,
		})
	}

	return papers, nil
}

// arxivID extracts the bare arXiv identifier ("2301.00001") from the
// entry id URL, dropping any version suffix.
func arxivID(item *gofeed.Item) string {
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	if idx := strings.LastIndex(id, "/abs/"); idx >= 0 {
		id = id[idx+len("/abs/"):]
	}
	if idx := strings.LastIndex(id, "v"); idx > 0 {
		if version := id[idx+1:]; version != "" && isDigits(version) {
			id = id[:idx]
		}
	}
	return id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func collapseTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
