// Package severity decides whether an analysis summary reports a critical
// condition by scanning its tail for keywords.
package severity

import (
	"strings"
	"unicode/utf8"
)

const (
	// Version identifies DefaultKeywords.
	Version = "2"
	// TailChars is how much of the summary end is scanned.
	TailChars = 2000
	// MaxIndicators caps the excerpt lines quoted in an escalation.
	MaxIndicators = 5
	// FallbackExcerpt is used when the tail matched but no single line did.
	FallbackExcerpt = "Critical indicators found in summary tail."
)

// DefaultKeywords is the union of every keyword list the pipeline has used.
var DefaultKeywords = []string{
	"CRITICAL",
	"FAILURE",
	"OUTAGE",
	"DOWN",
	"MAJOR ISSUE",
	"HIGH IMPACT",
	"DATA LOSS",
	"UNABLE TO CONNECT",
	"NOT RESPONSIVE",
}

// Verdict is the derived classification of one summary.
type Verdict struct {
	Critical   bool     `json:"critical" yaml:"critical"`
	Indicators []string `json:"indicators,omitempty" yaml:"indicators,omitempty"`
}

// Classifier matches a fixed keyword set. The zero value is not usable; call
// New.
type Classifier struct {
	keywords []string
}

// New normalizes keywords (trimmed, uppercased, de-duplicated). An empty
// list selects DefaultKeywords.
func New(keywords []string) *Classifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	seen := make(map[string]bool, len(keywords))
	norm := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		norm = append(norm, k)
	}
	return &Classifier{keywords: norm}
}

// Keywords returns the normalized keyword set.
func (c *Classifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// IsCritical reports whether the last TailChars characters of summary,
// uppercased, contain any keyword.
func (c *Classifier) IsCritical(summary string) bool {
	return c.matches(strings.ToUpper(Tail(summary)))
}

// Indicators returns up to MaxIndicators trimmed tail lines that contain a
// keyword.
func (c *Classifier) Indicators(summary string) []string {
	var lines []string
	for _, line := range splitLines(Tail(summary)) {
		if !c.matches(strings.ToUpper(line)) {
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
		if len(lines) == MaxIndicators {
			break
		}
	}
	return lines
}

// Excerpt joins Indicators with newlines, or returns FallbackExcerpt.
func (c *Classifier) Excerpt(summary string) string {
	if lines := c.Indicators(summary); len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	return FallbackExcerpt
}

// Evaluate classifies summary.
func (c *Classifier) Evaluate(summary string) Verdict {
	if !c.IsCritical(summary) {
		return Verdict{}
	}
	return Verdict{Critical: true, Indicators: c.Indicators(summary)}
}

func (c *Classifier) matches(upper string) bool {
	for _, k := range c.keywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}

// Tail returns the last TailChars characters (runes) of s.
func Tail(s string) string {
	i := len(s)
	for n := 0; n < TailChars && i > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

// splitLines splits on every line boundary: \n, \r, \v, \f, \x1c-\x1e,
// NEL, U+2028 and U+2029. Empty lines are dropped.
func splitLines(s string) []string {
	return strings.FieldsFunc(s, isLineBreak)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
