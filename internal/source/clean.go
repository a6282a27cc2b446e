package source

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultAbstractLimit caps cleaned abstracts before they enter a
// Paper record.
const DefaultAbstractLimit = 380

var (
	abstractLabelExpr = regexp.MustCompile(`(?i)\babstract\s*:\s*`)
	announceExpr      = regexp.MustCompile(`(?i)^\s*arxiv\s*:\s*\S+\s*(announce\s*type\s*:\s*[^:]+)?\s*`)
	summaryLabelExpr  = regexp.MustCompile(`(?i)^\s*summary\s*:\s*`)
	leadingLabelExpr  = regexp.MustCompile(`(?i)^\s*abstract\s*:\s*`)
	publishedExpr     = regexp.MustCompile(`(?i)^\s*[^.]{0,120}?\bpublished\s+online\b[^.]*[.;:]\s*`)
	doiExpr           = regexp.MustCompile(`(?i)^\s*doi\s*[:\s]\s*10\.\S+\s*`)
	inlineDOIExpr     = regexp.MustCompile(`(?i)^\s*[^.]{0,140}?\bdoi\s*[:\s]\s*10\.\S+\s*`)
	bareDOIExpr       = regexp.MustCompile(`(?i)^\s*(?:doi\s*[:\s]*)?(?:10\.)?\d{3,9}/\S+\s*`)
	leadingPunctExpr  = regexp.MustCompile(`^\s*[,;:\-]+\s*`)
	tagExpr           = regexp.MustCompile(`<[^>]+>`)
)

// CleanAbstract strips markup and boilerplate metadata prefixes from
// upstream abstract text and truncates it. Pure string transform; safe
// on empty input.
func CleanAbstract(text string, limit int) string {
	cleaned := collapseWhitespace(stripMarkup(text))

	// Many feeds prepend metadata before the real abstract; when an
	// "Abstract:" label appears after a short preamble, keep only the
	// text that follows it.
	if loc := abstractLabelExpr.FindStringIndex(cleaned); loc != nil && loc[0] < 160 {
		if parts := abstractLabelExpr.Split(cleaned, -1); len(parts) > 1 {
			cleaned = strings.TrimSpace(parts[len(parts)-1])
		}
	}

	cleaned = announceExpr.ReplaceAllString(cleaned, "")
	cleaned = summaryLabelExpr.ReplaceAllString(cleaned, "")
	cleaned = leadingLabelExpr.ReplaceAllString(cleaned, "")
	cleaned = publishedExpr.ReplaceAllString(cleaned, "")
	cleaned = doiExpr.ReplaceAllString(cleaned, "")
	cleaned = inlineDOIExpr.ReplaceAllString(cleaned, "")
	cleaned = bareDOIExpr.ReplaceAllString(cleaned, "")
	cleaned = leadingPunctExpr.ReplaceAllString(cleaned, "")
	cleaned = collapseWhitespace(cleaned)

	if limit <= 0 || len(cleaned) <= limit {
		return cleaned
	}
	if limit <= 3 {
		return cleaned[:limit]
	}
	return strings.TrimRight(cleaned[:limit-3], " ") + "..."
}

func stripMarkup(text string) string {
	unescaped := html.UnescapeString(text)
	if !strings.Contains(unescaped, "<") {
		return unescaped
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return tagExpr.ReplaceAllString(unescaped, " ")
	}
	return doc.Text()
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
