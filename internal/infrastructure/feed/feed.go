// Package feed implements the source adapters that normalize
// heterogeneous upstream records (arXiv Atom, Crossref REST, Semantic
// Scholar REST, arbitrary RSS/Atom feeds) into domain.Paper lists.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "PaperNotifier/1.0"

// fetchFeed retrieves a URL and parses the body as RSS or Atom.
func fetchFeed(ctx context.Context, client *http.Client, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return parsed, nil
}

// itemPublished maps a feed item's date fields onto one UTC timestamp.
func itemPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

func itemAuthors(item *gofeed.Item) []string {
	var authors []string
	for _, person := range item.Authors {
		if person == nil {
			continue
		}
		if name := strings.TrimSpace(person.Name); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
