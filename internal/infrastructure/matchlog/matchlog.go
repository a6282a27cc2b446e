// Package matchlog appends matched papers to a line-oriented text
// file. The file is a human-auditable side effect; the pipeline never
// reads it back.
package matchlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
)

// FileLog writes one line per matched paper:
// timestamp | source | identifier | title.
type FileLog struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

var _ ports.MatchLog = (*FileLog)(nil)

// NewFileLog records into path; an empty path disables logging.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path, now: func() time.Time { return time.Now().UTC() }}
}

// Append writes all papers of one run under a single file handle.
// Writes are serialized so concurrent callers cannot interleave
// partial lines.
func (l *FileLog) Append(papers []domain.MatchedPaper) error {
	if l.path == "" || len(papers) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open match log: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	timestamp := l.now().Format(time.RFC3339)
	for _, matched := range papers {
		paper := matched.Paper
		fmt.Fprintf(&b, "%s | %s | %s | %s\n", timestamp, paper.Source, paper.Identifier, paper.Title)
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append match log: %w", err)
	}
	return nil
}
