package matchlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperNotifier/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
}

func sampleMatches() []domain.MatchedPaper {
	return []domain.MatchedPaper{
		{Paper: domain.Paper{
			Title:      "Sparse Attention at Scale",
			Source:     domain.SourceArxiv,
			Identifier: "2301.00001",
		}},
		{Paper: domain.Paper{
			Title:      "Quantum Error Correction in Practice",
			Source:     domain.SourceCrossref,
			Identifier: "10.1000/qec.2026",
		}},
	}
}

func TestAppendWritesOneLinePerPaper(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "matched.log")
	log := NewFileLog(path)
	log.now = fixedNow

	require.NoError(t, log.Append(sampleMatches()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2026-08-29T09:00:00Z | arxiv | 2301.00001 | Sparse Attention at Scale", lines[0])
	assert.Equal(t, "2026-08-29T09:00:00Z | crossref | 10.1000/qec.2026 | Quantum Error Correction in Practice", lines[1])
}

func TestAppendAccumulatesAcrossRuns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "matched.log")
	log := NewFileLog(path)
	log.now = fixedNow

	require.NoError(t, log.Append(sampleMatches()[:1]))
	require.NoError(t, log.Append(sampleMatches()[1:]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestAppendDisabledWithEmptyPath(t *testing.T) {
	t.Parallel()

	log := NewFileLog("")
	require.NoError(t, log.Append(sampleMatches()))
}

func TestAppendNothingToWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "matched.log")
	log := NewFileLog(path)

	require.NoError(t, log.Append(nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
