package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
	"PaperNotifier/internal/source"
)

const semanticScholarAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// SemanticScholarSource searches the Semantic Scholar Graph API.
type SemanticScholarSource struct {
	client  *http.Client
	baseURL string
	limit   int
	apiKey  string
}

var _ ports.PaperSource = (*SemanticScholarSource)(nil)

// NewSemanticScholarSource wires the adapter. The API key is optional;
// without one the shared anonymous quota applies and throttled
// responses surface as empty results.
func NewSemanticScholarSource(client *http.Client, limit int, apiKey string) *SemanticScholarSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return &SemanticScholarSource{client: client, baseURL: semanticScholarAPIBase, limit: limit, apiKey: apiKey}
}

// Kind identifies the adapter inside the registry.
func (s *SemanticScholarSource) Kind() domain.SourceKind {
	return domain.SourceSemanticScholar
}

type semanticScholarResponse struct {
	Data []semanticScholarItem `json:"data"`
}

type semanticScholarItem struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
	Year     int    `json:"year"`
	Venue    string `json:"venue"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	PublicationDate string `json:"publicationDate"`
	ExternalIDs     struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
}

// Fetch searches for papers matching the query terms. A throttled
// (429) response is reported as an empty result, not a failure.
func (s *SemanticScholarSource) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Paper, error) {
	if query.Terms == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query.Terms)
	params.Set("limit", strconv.Itoa(s.limit))
	params.Set("fields", "title,authors,abstract,venue,year,url,publicationDate,externalIds")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar returned %s", resp.Status)
	}

	var decoded semanticScholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode semantic scholar response: %w", err)
	}

	papers := make([]domain.Paper, 0, len(decoded.Data))
	for _, item := range decoded.Data {
		title := collapseTitle(item.Title)
		if title == "" {
			continue
		}

		published := s.publicationTime(item)
		if !published.IsZero() && published.Before(query.Since.Truncate(24*time.Hour)) {
			continue
		}

		identifier := item.PaperID
		if item.ExternalIDs.DOI != "" {
			identifier = item.ExternalIDs.DOI
		}

		papers = append(papers, domain.Paper{
			Title:       title,
			Authors:     semanticScholarAuthors(item),
			Abstract:    source.CleanAbstract(item.Abstract, source.DefaultAbstractLimit),
			URL:         item.URL,
			Source:      domain.SourceSemanticScholar,
			Identifier:  identifier,
			PublishedAt: published,
		})
	}

	return papers, nil
}

func (s *SemanticScholarSource) publicationTime(item semanticScholarItem) time.Time {
	if item.PublicationDate != "" {
		if parsed, err := time.Parse("2006-01-02", item.PublicationDate); err == nil {
			return parsed.UTC()
		}
	}
	if item.Year > 0 {
		return time.Date(item.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

func semanticScholarAuthors(item semanticScholarItem) []string {
	var authors []string
	for _, author := range item.Authors {
		if name := collapseTitle(author.Name); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
