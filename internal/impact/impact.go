// Package impact produces the two-line impact annotation for matched
// papers. The text-generation service is best effort: any failure or
// unrecognized response shape falls back to a local heuristic, so a
// note always has exactly two non-empty lines.
package impact

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PaperNotifier/internal/domain"
	"PaperNotifier/internal/ports"
)

const urlContextLimit = 2200

var (
	scientificExpr = regexp.MustCompile(`(?i)^\W{0,3}scientific\s+impact\s*[:\-]\s*(.+)$`)
	socialExpr     = regexp.MustCompile(`(?i)^\W{0,3}social\s*(?:or|/)\s*industry\s+impact\s*[:\-]\s*(.+)$`)
)

// Annotator asks a text generator for impact lines and normalizes the
// answer. A nil generator disables remote annotation entirely.
type Annotator struct {
	generator ports.TextGenerator
	client    *http.Client
	logger    *slog.Logger
}

// NewAnnotator wires the generator and the HTTP client used to pull
// page context for the prompt. Both may be nil.
func NewAnnotator(generator ports.TextGenerator, client *http.Client, logger *slog.Logger) *Annotator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Annotator{generator: generator, client: client, logger: logger}
}

// Annotate returns the impact note for one matched paper. It never
// fails: the heuristic path covers a missing generator, request
// errors, and malformed responses.
func (a *Annotator) Annotate(ctx context.Context, paper domain.Paper) domain.ImpactNote {
	if a.generator == nil {
		return Fallback(paper)
	}

	prompt := buildPrompt(paper, a.urlContext(ctx, paper.URL))
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.warn("impact generation failed, using heuristic", "title", paper.Title, "error", err)
		return Fallback(paper)
	}
	return Normalize(text, paper)
}

// Normalize extracts the two recognized impact lines from free text
// and backfills whichever is missing with the heuristic. The result
// always has both lines non-empty, in fixed order.
func Normalize(text string, paper domain.Paper) domain.ImpactNote {
	var note domain.ImpactNote

	for _, line := range splitLines(text) {
		if note.ScientificImpact == "" {
			if m := scientificExpr.FindStringSubmatch(line); m != nil {
				note.ScientificImpact = strings.TrimSpace(m[1])
				continue
			}
		}
		if note.SocialImpact == "" {
			if m := socialExpr.FindStringSubmatch(line); m != nil {
				note.SocialImpact = strings.TrimSpace(m[1])
			}
		}
	}

	if note.ScientificImpact == "" {
		note.ScientificImpact = heuristicScientific(paper)
	}
	if note.SocialImpact == "" {
		note.SocialImpact = heuristicSocial(paper)
	}
	return note
}

// Fallback fabricates both lines locally from the paper's fields.
func Fallback(paper domain.Paper) domain.ImpactNote {
	return domain.ImpactNote{
		ScientificImpact: heuristicScientific(paper),
		SocialImpact:     heuristicSocial(paper),
	}
}

func heuristicScientific(paper domain.Paper) string {
	title := strings.ToLower(paper.Title)
	switch {
	case strings.Contains(title, "quantum") || strings.Contains(title, "qubit"):
		return "If the results hold, this work could guide near-term progress in quantum computing methods and benchmarks."
	case strings.Contains(title, "learning") || strings.Contains(title, "neural") ||
		strings.Contains(title, "transformer") || strings.Contains(title, "model"):
		return "If validated, this work could inform follow-up research on learning methods and their evaluation."
	default:
		return "If validated and reproducible, this work could provide a practical foundation for follow-up research."
	}
}

func heuristicSocial(paper domain.Paper) string {
	if len(paper.Authors) == 0 {
		return "Industry relevance is unclear from the available metadata; adoption would depend on independent replication."
	}
	if paper.Abstract == "" {
		return "Practical applications cannot be judged without the abstract; the authors' future tooling will determine uptake."
	}
	return "Practical impact will depend on replication and on tooling built around the approach by the wider community."
}

func buildPrompt(paper domain.Paper, urlContext string) string {
	authors := paper.AuthorList(8)
	if authors == "" {
		authors = "Unknown authors"
	}
	contextBlock := "(not accessible)"
	if urlContext != "" {
		contextBlock = urlContext
	}
	return fmt.Sprintf(
		"You are helping a research digest. Using the metadata below, write exactly two short lines:\n"+
			"Scientific impact: <one sentence on the likely scientific impact>\n"+
			"Social or industry impact: <one sentence on the likely social or industry impact>\n"+
			"No markdown, no headings, no extra lines. Avoid hype.\n\n"+
			"Title: %s\nAuthors: %s\nAbstract: %s\nURL: %s\nURL content excerpt: %s",
		paper.Title, authors, paper.Abstract, paper.URL, contextBlock,
	)
}

// urlContext pulls the paper's landing page and reduces it to plain
// text for the prompt. Best effort; any failure yields "".
func (a *Annotator) urlContext(ctx context.Context, pageURL string) string {
	if pageURL == "" || a.client == nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "PaperNotifier/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	body := strings.Join(strings.Fields(doc.Text()), " ")
	if len(body) > urlContextLimit {
		body = body[:urlContextLimit]
	}
	return body
}

func splitLines(text string) []string {
	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = strings.ReplaceAll(cleaned, "\r", "\n")
	cleaned = strings.ReplaceAll(cleaned, "*", "")

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func (a *Annotator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
