package domain

import (
	"strings"
	"time"
)

// SourceKind enumerates the upstream providers a Paper can come from.
type SourceKind string

const (
	SourceArxiv           SourceKind = "arxiv"
	SourceCrossref        SourceKind = "crossref"
	SourceSemanticScholar SourceKind = "semantic_scholar"
	SourceRSS             SourceKind = "rss"
)

// DefaultSourceOrder is the deduplication precedence: the earlier a
// source appears, the stronger its claim on a duplicated paper.
var DefaultSourceOrder = []SourceKind{
	SourceArxiv,
	SourceCrossref,
	SourceSemanticScholar,
	SourceRSS,
}

// Paper is the canonical record describing one publication. Title is
// always present after normalization; every other field may be empty
// and downstream code degrades to "" rather than failing.
type Paper struct {
	Title       string
	Authors     []string
	Abstract    string
	URL         string
	Source      SourceKind
	Identifier  string
	PublishedAt time.Time
}

// AuthorList joins up to max author names, appending ", et al." when
// the list is longer. Returns "" for papers with no authors.
func (p Paper) AuthorList(max int) string {
	if len(p.Authors) == 0 {
		return ""
	}
	if max <= 0 || len(p.Authors) <= max {
		return strings.Join(p.Authors, ", ")
	}
	return strings.Join(p.Authors[:max], ", ") + ", et al."
}

// ImpactNote is a two-line annotation attached to a matched paper for
// the duration of one run. Both lines are always non-empty in final
// output; missing lines are backfilled before the note leaves the
// annotator.
type ImpactNote struct {
	ScientificImpact string
	SocialImpact     string
}

// MatchedPaper pairs a paper that passed the keyword filter with the
// rules that fired and its impact annotation.
type MatchedPaper struct {
	Paper   Paper
	Reasons []string
	Note    ImpactNote
}
