package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
	"PaperNotifier/internal/source"
)

const crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefSource queries the Crossref REST API for works published
// inside the query window.
type CrossrefSource struct {
	client  *http.Client
	baseURL string
	rows    int
	mailto  string
}

var _ ports.PaperSource = (*CrossrefSource)(nil)

// NewCrossrefSource wires the adapter. The mailto address is optional
// and routes requests into Crossref's polite pool.
func NewCrossrefSource(client *http.Client, rows int, mailto string) *CrossrefSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if rows <= 0 {
		rows = 5
	}
	return &CrossrefSource{client: client, baseURL: crossrefAPIBase, rows: rows, mailto: mailto}
}

// Kind identifies the adapter inside the registry.
func (c *CrossrefSource) Kind() domain.SourceKind {
	return domain.SourceCrossref
}

type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title    []string `json:"title"`
	Abstract string   `json:"abstract"`
	URL      string   `json:"URL"`
	DOI      string   `json:"DOI"`
	Author   []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Published struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
}

// Fetch queries /works filtered on the publication date window.
func (c *CrossrefSource) Fetch(ctx context.Context, query ports.FetchQuery) ([]domain.Paper, error) {
	params := url.Values{}
	params.Set("query.title", query.Terms)
	params.Set("rows", strconv.Itoa(c.rows))
	params.Set("sort", "published")
	params.Set("order", "desc")
	params.Set("filter", fmt.Sprintf("from-pub-date:%s,until-pub-date:%s",
		query.Since.UTC().Format("2006-01-02"),
		time.Now().UTC().Format("2006-01-02")))
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crossref query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref returned %s", resp.Status)
	}

	var decoded crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode crossref response: %w", err)
	}

	papers := make([]domain.Paper, 0, len(decoded.Message.Items))
	for _, item := range decoded.Message.Items {
		title := ""
		if len(item.Title) > 0 {
			title = collapseTitle(item.Title[0])
		}
		if title == "" {
			continue
		}

		published := datePartsToTime(item.Published.DateParts)
		if !published.IsZero() && published.Before(query.Since.Truncate(24*time.Hour)) {
			continue
		}

		papers = append(papers, domain.Paper{
			Title:       title,
			Authors:     crossrefAuthors(item),
			Abstract:    source.CleanAbstract(item.Abstract, source.DefaultAbstractLimit),
			URL:         item.URL,
			Source:      domain.SourceCrossref,
			Identifier:  item.DOI,
			PublishedAt: published,
		})
	}

	return papers, nil
}

func crossrefAuthors(item crossrefItem) []string {
	var authors []string
	for _, author := range item.Author {
		full := strings.TrimSpace(strings.TrimSpace(author.Given) + " " + strings.TrimSpace(author.Family))
		if full != "" {
			authors = append(authors, full)
		}
	}
	return authors
}

// datePartsToTime converts Crossref's [[year, month, day]] encoding;
// missing parts default to 1.
func datePartsToTime(parts [][]int) time.Time {
	if len(parts) == 0 || len(parts[0]) == 0 {
		return time.Time{}
	}
	ymd := [3]int{1970, 1, 1}
	for i := 0; i < len(parts[0]) && i < 3; i++ {
		ymd[i] = parts[0][i]
	}
	return time.Date(ymd[0], time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, time.UTC)
}
