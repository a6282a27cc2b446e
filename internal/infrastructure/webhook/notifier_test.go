package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperNotifier/internal/config"
)

func newTestNotifier(serverURL string) *Notifier {
	return NewNotifier(config.WebhookConfig{URL: serverURL}, nil)
}

func TestSendFlowPostsPayload(t *testing.T) {
	t.Parallel()

	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer server.Close()

	notifier := newTestNotifier(server.URL)
	err := notifier.SendFlow(context.Background(), map[string]string{
		"paper_title": "Sparse Attention at Scale",
		"authors":     "Jane Doe, John Smith",
		"description": "We study sparse attention.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sparse Attention at Scale", received["paper_title"])
	assert.Equal(t, "Jane Doe, John Smith", received["authors"])
}

func TestSendTextPostsBotMessage(t *testing.T) {
	t.Parallel()

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer server.Close()

	notifier := newTestNotifier(server.URL)
	require.NoError(t, notifier.SendText(context.Background(), "**Daily paper digest (1)**"))

	assert.Equal(t, "text", received["msg_type"])
	content, ok := received["content"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "**Daily paper digest (1)**", content["text"])
}

func TestPostReportsHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":19001,"msg":"bad payload"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := newTestNotifier(server.URL)
	err := notifier.SendText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad payload")
}

func TestPostWithoutURL(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier(config.WebhookConfig{}, nil)
	require.Error(t, notifier.SendText(context.Background(), "hello"))
}
