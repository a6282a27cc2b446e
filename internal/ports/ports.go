package ports

import (
	"context"
	"time"

	"PaperNotifier/internal/domain"
)

// FetchQuery carries the parameters shared by every source adapter.
type FetchQuery struct {
	Terms      string
	MaxResults int
	Since      time.Time
}

// PaperSource pulls fresh papers from one upstream provider.
type PaperSource interface {
	Kind() domain.SourceKind
	Fetch(ctx context.Context, query FetchQuery) ([]domain.Paper, error)
}

// TextGenerator is an opaque text-generation service used for impact
// annotation. Best effort: callers must tolerate any error.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier delivers formatted digest output to the outbound webhook.
type Notifier interface {
	SendFlow(ctx context.Context, payload map[string]string) error
	SendText(ctx context.Context, text string) error
}

// MatchLog records matched papers as an append-only side effect. The
// pipeline never reads it back.
type MatchLog interface {
	Append(papers []domain.MatchedPaper) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
