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

const crossrefBody = `{
  "message": {
    "items": [
      {
        "title": ["Quantum Error Correction in Practice"],
        "abstract": "<jats:p>We demonstrate a surface code.</jats:p>",
        "URL": "https://doi.org/10.1000/qec.2026",
        "DOI": "10.1000/qec.2026",
        "author": [
          {"given": "Alice", "family": "Jones"},
          {"given": "", "family": "Nakamura"}
        ],
        "published": {"date-parts": [[2026, 8, 29]]}
      },
      {
        "title": [],
        "DOI": "10.1000/untitled",
        "published": {"date-parts": [[2026, 8, 29]]}
      },
      {
        "title": ["Stale Work"],
        "DOI": "10.1000/stale",
        "published": {"date-parts": [[2026, 1, 2]]}
      }
    ]
  }
}`

func TestCrossrefFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "quantum error correction", query.Get("query.title"))
		assert.Equal(t, "3", query.Get("rows"))
		assert.Equal(t, "steward@example.org", query.Get("mailto"))
		assert.Contains(t, query.Get("filter"), "from-pub-date:2026-08-28")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(crossrefBody))
	}))
	defer server.Close()

	src := NewCrossrefSource(server.Client(), 3, "steward@example.org")
	src.baseURL = server.URL

	papers, err := src.Fetch(context.Background(), ports.FetchQuery{
		Terms: "quantum error correction",
		Since: time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, papers, 1)

	paper := papers[0]
	assert.Equal(t, "Quantum Error Correction in Practice", paper.Title)
	assert.Equal(t, []string{"Alice Jones", "Nakamura"}, paper.Authors)
	assert.Equal(t, "We demonstrate a surface code.", paper.Abstract)
	assert.Equal(t, "10.1000/qec.2026", paper.Identifier)
	assert.Equal(t, domain.SourceCrossref, paper.Source)
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), paper.PublishedAt)
}

func TestCrossrefFetchServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := NewCrossrefSource(server.Client(), 5, "")
	src.baseURL = server.URL

	_, err := src.Fetch(context.Background(), ports.FetchQuery{Terms: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crossref returned")
}

func TestDatePartsToTime(t *testing.T) {
	t.Parallel()

	assert.True(t, datePartsToTime(nil).IsZero())
	assert.True(t, datePartsToTime([][]int{{}}).IsZero())
	assert.Equal(t,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		datePartsToTime([][]int{{2026, 8}}))
	assert.Equal(t,
		time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
		datePartsToTime([][]int{{2026, 8, 29}}))
}
