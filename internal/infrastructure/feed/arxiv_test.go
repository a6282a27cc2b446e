package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
)

const arxivAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/2301.00001v2</id>
    <published>2026-08-29T12:00:00Z</published>
    <updated>2026-08-29T12:00:00Z</updated>
    <title>Sparse
 Attention  at Scale</title>
    <summary>Abstract: We study sparse attention.</summary>
    <author><name>Jane Doe</name></author>
    <author><name>John Smith</name></author>
    <link href="http://arxiv.org/abs/2301.00001v2" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2201.09999v1</id>
    <published>2026-08-01T09:00:00Z</published>
    <updated>2026-08-01T09:00:00Z</updated>
    <title>An Older Result</title>
    <summary>Old.</summary>
    <author><name>Old Author</name></author>
    <link href="http://arxiv.org/abs/2201.09999v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestArxivFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "search_query=")
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(arxivAtom))
	}))
	defer server.Close()

	src := NewArxivSource(server.Client())
	src.baseURL = server.URL

	papers, err := src.Fetch(context.Background(), ports.FetchQuery{
		Terms:      "sparse attention",
		MaxResults: 10,
		Since:      time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, papers, 1)

	paper := papers[0]
	assert.Equal(t, "Sparse Attention at Scale", paper.Title)
	assert.Equal(t, []string{"Jane Doe", "John Smith"}, paper.Authors)
	assert.Equal(t, "We study sparse attention.", paper.Abstract)
	assert.Equal(t, domain.SourceArxiv, paper.Source)
	assert.Equal(t, "2301.00001", paper.Identifier)
	assert.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), paper.PublishedAt)
}

func TestArxivFetchUpstreamFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	src := NewArxivSource(server.Client())
	src.baseURL = server.URL

	_, err := src.Fetch(context.Background(), ports.FetchQuery{Terms: "x", MaxResults: 1})
	require.Error(t, err)
}

func TestArxivIDExtraction(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"http://arxiv.org/abs/2301.00001v2": "2301.00001",
		"http://arxiv.org/abs/2301.00001":   "2301.00001",
		"2301.00001v12":                     "2301.00001",
	}
	for in, want := range cases {
		got := arxivID(&gofeed.Item{GUID: in})
		assert.Equal(t, want, got, in)
	}
}
