package contract

import (
	"regexp"
	"strings"
)

// splitPass marks where one obligation ends and the next begins: capture
// group 1 is the start of the following obligation.
type splitPass struct {
	name string
	re   *regexp.Regexp
}

// obligationPasses are applied in order, each pass re-splitting every
// fragment the previous pass produced.
var obligationPasses = []splitPass{
	{name: "period-capital", re: regexp.MustCompile(`\.\s+([A-Z])`)},
	{name: "semicolon-capital", re: regexp.MustCompile(`;\s+([A-Z])`)},
	{name: "colon-capital", re: regexp.MustCompile(`:\s+([A-Z])`)},
	{name: "period-numbered", re: regexp.MustCompile(`\.\s+(\d+[.)]\s)`)},
	{name: "period-lettered", re: regexp.MustCompile(`\.\s+(\([a-z]\)\s)`)},
}

// bulletMarkers are tested against the start of a fragment; a fragment
// beginning with one is split again on every occurrence of that marker.
var bulletMarkers = []string{"•", "-", "*"}

// ObligationSplitter decomposes clause content into atomic obligation
// fragments.  Splitting is purely textual and stateless.
type ObligationSplitter struct{}

// NewObligationSplitter returns an ObligationSplitter.
func NewObligationSplitter() *ObligationSplitter {
	return &ObligationSplitter{}
}

// Split breaks content into obligation fragments.  Each pass runs over the
// output of the previous one; whitespace-only fragments are discarded at
// every stage, so empty content yields no fragments.
func (s *ObligationSplitter) Split(content string) []string {
	fragments := compact([]string{content})
	for _, pass := range obligationPasses {
		var next []string
		for _, frag := range fragments {
			next = append(next, splitAtBoundaries(frag, pass.re)...)
		}
		fragments = compact(next)
	}

	var out []string
	for _, frag := range fragments {
		out = append(out, splitBullets(frag)...)
	}
	return compact(out)
}

// splitAtBoundaries cuts s before the start of capture group 1 of every
// match, keeping the delimiter with the preceding fragment.
func splitAtBoundaries(s string, re *regexp.Regexp) []string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return []string{s}
	}
	var parts []string
	prev := 0
	for _, m := range matches {
		start := m[2]
		parts = append(parts, s[prev:start])
		prev = start
	}
	return append(parts, s[prev:])
}

// splitBullets re-splits a fragment that begins with a bullet marker on
// every occurrence of that same marker.
func splitBullets(frag string) []string {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(frag, marker) {
			return strings.Split(frag, marker)
		}
	}
	return []string{frag}
}

// compact trims every fragment and drops the empty ones.
func compact(fragments []string) []string {
	var out []string
	for _, frag := range fragments {
		if frag = strings.TrimSpace(frag); frag != "" {
			out = append(out, frag)
		}
	}
	return out
}
