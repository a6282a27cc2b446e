package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
)

const semanticScholarBody = `{
  "data": [
    {
      "paperId": "abc123",
      "title": "Diffusion  Models for Protein Design",
      "abstract": "We generate novel folds.",
      "url": "https://www.semanticscholar.org/paper/abc123",
      "year": 2026,
      "publicationDate": "2026-08-29",
      "authors": [{"name": "Jane Doe"}, {"name": ""}],
      "externalIds": {"DOI": "10.2000/prot.2026"}
    },
    {
      "paperId": "def456",
      "title": "Undated But Recent",
      "abstract": "No date fields at all.",
      "url": "https://www.semanticscholar.org/paper/def456",
      "authors": [{"name": "Bob Lee"}]
    }
  ]
}`

func TestSemanticScholarFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "protein design", query.Get("query"))
		assert.Equal(t, "20", query.Get("limit"))
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(semanticScholarBody))
	}))
	defer server.Close()

	src := NewSemanticScholarSource(server.Client(), 20, "secret-key")
	src.baseURL = server.URL

	papers, err := src.Fetch(context.Background(), ports.FetchQuery{
		Terms: "protein design",
		Since: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, papers, 2)

	first := papers[0]
	assert.Equal(t, "Diffusion Models for Protein Design", first.Title)
	assert.Equal(t, []string{"Jane Doe"}, first.Authors)
	assert.Equal(t, "10.2000/prot.2026", first.Identifier)
	assert.Equal(t, domain.SourceSemanticScholar, first.Source)
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), first.PublishedAt)

	// No DOI falls back to the internal paper id; no date stays zero
	// and survives the window check.
	second := papers[1]
	assert.Equal(t, "def456", second.Identifier)
	assert.True(t, second.PublishedAt.IsZero())
}

func TestSemanticScholarThrottled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := NewSemanticScholarSource(server.Client(), 10, "")
	src.baseURL = server.URL

	papers, err := src.Fetch(context.Background(), ports.FetchQuery{Terms: "anything"})
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestSemanticScholarEmptyTerms(t *testing.T) {
	t.Parallel()

	src := NewSemanticScholarSource(nil, 10, "")
	papers, err := src.Fetch(context.Background(), ports.FetchQuery{})
	require.NoError(t, err)
	assert.Empty(t, papers)
}

func TestSemanticScholarLimitClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, NewSemanticScholarSource(nil, 500, "").limit)
	assert.Equal(t, 20, NewSemanticScholarSource(nil, 0, "").limit)
}
