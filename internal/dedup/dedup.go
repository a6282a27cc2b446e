// Package dedup collapses records referring to the same paper across
// sources. Inputs arrive concatenated in source-precedence order, so
// keeping the first occurrence of a key keeps the higher-precedence
// source's record.
package dedup

import (
	"strings"
	"unicode"

	"PaperNotifier/internal/domain"
)

// Deduplicate removes duplicate papers, preserving first-appearance
// order. When a later duplicate carries an abstract and the kept
// record does not, the abstract is merged into the kept record;
// nothing else is mutated.
func Deduplicate(papers []domain.Paper) []domain.Paper {
	out := make([]domain.Paper, 0, len(papers))
	index := make(map[string]int, len(papers))

	for _, paper := range papers {
		key := Key(paper)
		if at, ok := index[key]; ok {
			if out[at].Abstract == "" && paper.Abstract != "" {
				out[at].Abstract = paper.Abstract
			}
			continue
		}
		index[key] = len(out)
		out = append(out, paper)
	}

	return out
}

// Key builds the normalized dedup key: the source-native identifier
// when present (DOI, arXiv id, RSS guid), otherwise the normalized
// title plus the first author's surname.
func Key(paper domain.Paper) string {
	if id := normalizeIdentifier(paper.Identifier); id != "" {
		return "id:" + id
	}

	title := normalizeText(paper.Title)
	surname := ""
	if len(paper.Authors) > 0 {
		if fields := strings.Fields(normalizeText(paper.Authors[0])); len(fields) > 0 {
			surname = fields[len(fields)-1]
		}
	}
	return "title:" + title + "|" + surname
}

// normalizeIdentifier lowercases the id and strips DOI URL prefixes so
// the same work keys identically across sources. An arXiv DOI
// ("10.48550/arxiv.2301.00001") reduces to the bare arXiv id.
func normalizeIdentifier(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "http://dx.doi.org/", "doi:"} {
		id = strings.TrimPrefix(id, prefix)
	}
	id = strings.TrimPrefix(id, "10.48550/arxiv.")
	return id
}

// normalizeText case-folds, strips punctuation, and collapses
// whitespace.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
