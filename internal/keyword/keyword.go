// Package keyword implements the interest filter: a rule file with
// AUTHOR/TITLE/ABSTRACT sections, wildcard and regex patterns, and an
// author allowlist evaluated against normalized papers.
package keyword

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"PaperNotifier/internal/domain"
)

// ErrInvalidRule marks a malformed pattern in the rule file. Rule
// loading is the only fatal failure of a run: a silently ignored bad
// rule would filter wrongly, so loading fails fast before any network
// activity.
var ErrInvalidRule = errors.New("invalid keyword rule")

// Section names the filterable parts of a paper.
type Section string

const (
	SectionAuthor   Section = "AUTHOR"
	SectionTitle    Section = "TITLE"
	SectionAbstract Section = "ABSTRACT"
)

// Rule is one compiled filter directive.
type Rule struct {
	Section  Section
	Pattern  string
	Wildcard bool

	re *regexp.Regexp
}

// String renders the rule for match-reason logging.
func (r Rule) String() string {
	return fmt.Sprintf("%s:%q", r.Section, r.Pattern)
}

var wildcardOnlyExpr = regexp.MustCompile(`^[^.+(){}\[\]|^$\\]*$`)

// Compile classes and compiles a pattern. A pattern whose only
// special characters are '*' and '?' is a wildcard, matched anchored
// against the whole field value; anything using regex metacharacters
// is compiled as a case-insensitive regex applied as a search. Both
// classes compile eagerly so malformed patterns fail at load time.
func Compile(section Section, pattern string) (Rule, error) {
	wildcard := strings.ContainsAny(pattern, "*?") && wildcardOnlyExpr.MatchString(pattern)

	expr := pattern
	if wildcard {
		expr = wildcardToRegexp(pattern)
	}

	re, err := regexp.Compile("(?is)" + expr)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidRule, section, pattern, err)
	}
	return Rule{Section: section, Pattern: pattern, Wildcard: wildcard, re: re}, nil
}

// wildcardToRegexp translates a glob ('*' any sequence, '?' any single
// character) into an anchored regular expression.
func wildcardToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// Parse reads the rule file format: section headers AUTHOR, TITLE,
// ABSTRACT on their own line, one pattern per line beneath them.
// Blank lines and '#' comments are skipped; patterns before any
// header are ignored.
func Parse(r io.Reader) ([]Rule, error) {
	var (
		rules   []Rule
		section Section
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch Section(strings.ToUpper(line)) {
		case SectionAuthor, SectionTitle, SectionAbstract:
			section = Section(strings.ToUpper(line))
			continue
		}

		if section == "" {
			continue
		}

		rule, err := Compile(section, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	return rules, nil
}

// Load parses the rule file at path. A missing file means no rules
// (pass-through), matching a fresh deployment with no keywords yet.
func Load(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Engine evaluates papers against the rule set plus the KEY_AUTHORS
// allowlist. Allowlist entries match by case-insensitive substring
// against each author name, independent of and additive to the
// section rules.
type Engine struct {
	bySection  map[Section][]Rule
	keyAuthors []string
	ruleCount  int
}

// NewEngine groups compiled rules by section.
func NewEngine(rules []Rule, keyAuthors []string) *Engine {
	bySection := map[Section][]Rule{}
	for _, rule := range rules {
		bySection[rule.Section] = append(bySection[rule.Section], rule)
	}
	return &Engine{bySection: bySection, keyAuthors: keyAuthors, ruleCount: len(rules)}
}

// RuleCount reports how many section rules are loaded.
func (e *Engine) RuleCount() int { return e.ruleCount }

// Empty reports whether neither rules nor key authors are configured.
func (e *Engine) Empty() bool {
	return e.ruleCount == 0 && len(e.keyAuthors) == 0
}

// Evaluate decides whether a paper passes the filter and returns the
// rules that fired. With nothing configured at all, every paper
// passes: explicit pass-through mode.
func (e *Engine) Evaluate(paper domain.Paper) (bool, []string) {
	if e.Empty() {
		return true, nil
	}

	var reasons []string

	for _, rule := range e.bySection[SectionAuthor] {
		for _, author := range paper.Authors {
			if rule.re.MatchString(author) {
				reasons = append(reasons, rule.String())
				break
			}
		}
	}
	for _, rule := range e.bySection[SectionTitle] {
		if rule.re.MatchString(paper.Title) {
			reasons = append(reasons, rule.String())
		}
	}
	if paper.Abstract != "" {
		for _, rule := range e.bySection[SectionAbstract] {
			if rule.re.MatchString(paper.Abstract) {
				reasons = append(reasons, rule.String())
			}
		}
	}

	for _, key := range e.keyAuthors {
		lowered := strings.ToLower(key)
		for _, author := range paper.Authors {
			if strings.Contains(strings.ToLower(author), lowered) {
				reasons = append(reasons, fmt.Sprintf("KEY_AUTHOR:%q", key))
				break
			}
		}
	}

	return len(reasons) > 0, reasons
}
