package severity

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCriticalCaseInsensitive(t *testing.T) {
	c := New(nil)
	assert.True(t, c.IsCritical("Interface Eth1/1 is down"))
	assert.True(t, c.IsCritical("device1: unable to connect"))
	assert.True(t, c.IsCritical("the switch is not responsive"))
	assert.False(t, c.IsCritical("All interfaces up. Nothing notable."))
	assert.True(t, c.IsCritical("No major issues detected."), "substring matches count")
	assert.False(t, c.IsCritical(""))
}

func TestIsCriticalOnlyLooksAtTail(t *testing.T) {
	c := New(nil)
	clean := strings.Repeat("x", TailChars)

	assert.False(t, c.IsCritical("CRITICAL "+clean), "keyword before the tail window is ignored")
	assert.True(t, c.IsCritical(clean[:TailChars-8]+"CRITICAL"))

	// straddling the boundary: only "ITICAL" remains in the window
	straddle := "CRITICAL" + strings.Repeat("y", TailChars-6)
	assert.False(t, c.IsCritical(straddle))
}

func TestPrefixNeverChangesVerdict(t *testing.T) {
	c := New(nil)
	tails := []string{
		strings.Repeat("ok ", 700) + "\nOutage on core1",
		strings.Repeat("fine\n", 500),
	}
	prefixes := []string{"", "CRITICAL DATA LOSS\n", strings.Repeat("DOWN ", 1000)}
	for _, tail := range tails {
		want := c.IsCritical(tail)
		for _, p := range prefixes {
			assert.Equal(t, want, c.IsCritical(p+tail))
		}
	}
}

func TestTailCountsRunes(t *testing.T) {
	s := "ab" + strings.Repeat("é", TailChars)
	got := Tail(s)
	require.True(t, utf8.ValidString(got))
	assert.Equal(t, TailChars, utf8.RuneCountInString(got))

	assert.Equal(t, "short", Tail("short"))
}

func TestIndicators(t *testing.T) {
	c := New(nil)
	summary := strings.Join([]string{
		"Summary",
		"  - leaf1: Unable to connect  ",
		"- leaf2 healthy",
		"- Major issue: BGP flapping",
		"- power supply FAILURE",
		"- uplink down",
		"- core outage",
		"- data loss on vlan 20",
	}, "\r\n")

	lines := c.Indicators(summary)
	assert.Equal(t, []string{
		"- leaf1: Unable to connect",
		"- Major issue: BGP flapping",
		"- power supply FAILURE",
		"- uplink down",
		"- core outage",
	}, lines)
	assert.Equal(t, strings.Join(lines, "\n"), c.Excerpt(summary))
}

func TestExcerptFallbackWhenNoSingleLineMatches(t *testing.T) {
	// a keyword spanning a line break matches the tail but no single line
	c := New([]string{"link\ndown"})
	summary := "Gi0/1 reports link\ndown since 10:02"
	require.True(t, c.IsCritical(summary))
	assert.Empty(t, c.Indicators(summary))
	assert.Equal(t, FallbackExcerpt, c.Excerpt(summary))

	v := c.Evaluate(summary)
	assert.True(t, v.Critical)
	assert.Empty(t, v.Indicators)
}

func TestExcerptFallbackWhenNotCritical(t *testing.T) {
	c := New([]string{"MAJOR ISSUE"})
	summary := "there is a major\nissue here"
	assert.False(t, c.IsCritical(summary))
	assert.Equal(t, FallbackExcerpt, c.Excerpt(summary))
}

func TestIndicatorsSplitOnAllLineBoundaries(t *testing.T) {
	c := New(nil)
	summary := "intro\vcore1 DOWN\fok\x1cfan FAILURE\u0085fine\u2028psu OUTAGE\u2029end\r\nleaf2 down\rlast"
	assert.Equal(t, []string{"core1 DOWN", "fan FAILURE", "psu OUTAGE", "leaf2 down"}, c.Indicators(summary))
	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\r\n\nb\x1d\x1ec"))
}

func TestEvaluate(t *testing.T) {
	c := New(nil)
	assert.Equal(t, Verdict{}, c.Evaluate("all good"))

	v := c.Evaluate("device1 is DOWN")
	assert.True(t, v.Critical)
	assert.Equal(t, []string{"device1 is DOWN"}, v.Indicators)
}

func TestNewNormalizesKeywords(t *testing.T) {
	c := New([]string{" Unable to connect", "down", "DOWN", ""})
	assert.Equal(t, []string{"UNABLE TO CONNECT", "DOWN"}, c.Keywords())
	assert.Equal(t, DefaultKeywords, New(nil).Keywords())
}
