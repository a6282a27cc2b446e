package impact

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperNotifier/internal/domain"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.text, s.err
}

func requireTwoLines(t *testing.T, note domain.ImpactNote) {
	t.Helper()
	require.NotEmpty(t, note.ScientificImpact)
	require.NotEmpty(t, note.SocialImpact)
}

func TestNormalizeWellFormedResponse(t *testing.T) {
	t.Parallel()

	text := "Scientific impact: enables faster inference.\nSocial or industry impact: could cut serving costs."
	note := Normalize(text, domain.Paper{Title: "T"})

	assert.Equal(t, "enables faster inference.", note.ScientificImpact)
	assert.Equal(t, "could cut serving costs.", note.SocialImpact)
}

func TestNormalizeSingleLineBackfillsOther(t *testing.T) {
	t.Parallel()

	note := Normalize("Scientific impact: enables faster inference.", domain.Paper{Title: "T"})
	assert.Equal(t, "enables faster inference.", note.ScientificImpact)
	requireTwoLines(t, note)
}

func TestNormalizeEmptyResponse(t *testing.T) {
	t.Parallel()

	requireTwoLines(t, Normalize("", domain.Paper{Title: "T"}))
}

func TestNormalizeGarbledResponse(t *testing.T) {
	t.Parallel()

	requireTwoLines(t, Normalize("### SUMMARY ###\nlorem ipsum dolor\n42", domain.Paper{Title: "T"}))
}

func TestNormalizeToleratesDecoratedPrefixes(t *testing.T) {
	t.Parallel()

	text := "**Scientific Impact:** advances error correction.\n- Social/industry impact - may reach hardware vendors."
	note := Normalize(text, domain.Paper{Title: "T"})

	assert.Equal(t, "advances error correction.", note.ScientificImpact)
	assert.Equal(t, "may reach hardware vendors.", note.SocialImpact)
}

func TestFallbackAlwaysTwoLines(t *testing.T) {
	t.Parallel()

	papers := []domain.Paper{
		{Title: "Qubit Routing on NISQ Devices"},
		{Title: "A Transformer for Tables", Authors: []string{"A"}, Abstract: "text"},
		{Title: "Untyped Paper"},
	}
	for _, paper := range papers {
		requireTwoLines(t, Fallback(paper))
	}
}

func TestAnnotateWithoutGeneratorUsesFallback(t *testing.T) {
	t.Parallel()

	a := NewAnnotator(nil, nil, nil)
	requireTwoLines(t, a.Annotate(context.Background(), domain.Paper{Title: "T"}))
}

func TestAnnotateGeneratorErrorUsesFallback(t *testing.T) {
	t.Parallel()

	a := NewAnnotator(stubGenerator{err: errors.New("boom")}, nil, nil)
	requireTwoLines(t, a.Annotate(context.Background(), domain.Paper{Title: "T"}))
}

func TestAnnotateParsesGeneratorResponse(t *testing.T) {
	t.Parallel()

	a := NewAnnotator(stubGenerator{text: "Scientific impact: new bound.\nSocial or industry impact: none yet."}, nil, nil)
	note := a.Annotate(context.Background(), domain.Paper{Title: "T"})
	assert.Equal(t, "new bound.", note.ScientificImpact)
	assert.Equal(t, "none yet.", note.SocialImpact)
}
