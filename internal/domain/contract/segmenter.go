package contract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/turtacn/ClauseLens/pkg/errors"
)

// headingRule recognizes one heading marker style.  The regexp must anchor at
// the start of the line and capture the marker in group 1; any trailing
// whitespace after the marker is consumed by the match.
type headingRule struct {
	name string
	re   *regexp.Regexp
}

// defaultHeadingRules returns the marker styles in priority order.  A line is
// tested against each rule in turn and the first match wins, so narrower
// styles that overlap an earlier rule (single capital vs. capital roman) are
// resolved by position in this list.
func defaultHeadingRules() []headingRule {
	return []headingRule{
		// 1.  /  1.1  /  1.1.1  A single number requires the trailing dot
		// so that body lines like "30 days after receipt" are not headings.
		{name: "decimal", re: regexp.MustCompile(`^(\d+(?:\.\d+)+\.?|\d+\.)(?:\s+|$)`)},
		{name: "capital-letter", re: regexp.MustCompile(`^([A-Z]\.)(?:\s+|$)`)},
		{name: "lettered-subsection", re: regexp.MustCompile(`^([A-Z]\.\d+(?:\.\d+)*\.?)(?:\s+|$)`)},
		{name: "paren-lower", re: regexp.MustCompile(`^(\([a-z]\))(?:\s+|$)`)},
		{name: "paren-roman", re: regexp.MustCompile(`^(\([ivxlcdm]+\))(?:\s+|$)`)},
		{name: "capital-roman", re: regexp.MustCompile(`^([IVXLCDM]+\.)(?:\s+|$)`)},
	}
}

// TextSegmenter splits raw contract text into numbered sections.  Heading
// detection is strictly line-initial; marker-looking text inside a line never
// splits a section.  Segmentation is deterministic: the same input always
// yields the same sections in the same order.
type TextSegmenter struct {
	rules []headingRule
}

// NewTextSegmenter returns a segmenter with the default heading rules.
func NewTextSegmenter() *TextSegmenter {
	return &TextSegmenter{rules: defaultHeadingRules()}
}

// Segment splits text into sections, one per heading line.  Prose before the
// first heading is discarded.  A text containing no heading at all yields
// ErrNoSectionsFound; adjacent headings produce sections with empty content.
func (s *TextSegmenter) Segment(text string) ([]Section, error) {
	var sections []Section
	var cur *sectionAccum

	flush := func() {
		if cur == nil {
			return
		}
		sections = append(sections, cur.build(len(sections)))
		cur = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if number, remainder, ok := s.matchHeading(line); ok {
			flush()
			cur = &sectionAccum{number: number, remainder: remainder}
			continue
		}
		if cur == nil {
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	flush()

	if len(sections) == 0 {
		return nil, errors.ErrNoSectionsFound
	}
	return sections, nil
}

// matchHeading tests line against the heading rules in priority order and
// returns the marker and the text remaining after it.
func (s *TextSegmenter) matchHeading(line string) (number, remainder string, ok bool) {
	if line == "" {
		return "", "", false
	}
	for _, rule := range s.rules {
		idx := rule.re.FindStringSubmatchIndex(line)
		if idx == nil {
			continue
		}
		return line[idx[2]:idx[3]], line[idx[1]:], true
	}
	return "", "", false
}

// sectionAccum accumulates one section between two heading lines.
type sectionAccum struct {
	number    string
	remainder string
	lines     []string
}

func (a *sectionAccum) build(order int) Section {
	return Section{
		Number:  a.number,
		Title:   extractTitle(a.remainder, a.lines),
		Content: strings.TrimSpace(strings.Join(a.lines, "\n")),
		Order:   order,
	}
}

// extractTitle picks a section title from the heading remainder and the
// section body.  Preference order: first line under 100 characters starting
// with an uppercase letter, then first line matching a generic casing pattern
// (Title Case, ALL CAPS, Sentence case), then the first non-empty line.
func extractTitle(remainder string, lines []string) string {
	var candidates []string
	if r := strings.TrimSpace(remainder); r != "" {
		candidates = append(candidates, r)
	}
	for _, ln := range lines {
		if ln = strings.TrimSpace(ln); ln != "" {
			candidates = append(candidates, ln)
		}
	}

	for _, c := range candidates {
		if utf8.RuneCountInString(c) < 100 && startsUpper(c) {
			return c
		}
	}
	for _, c := range candidates {
		if isTitleCase(c) || isAllCaps(c) || isSentenceCase(c) {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return "Untitled Section"
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// isTitleCase reports whether every letter-initial word starts uppercase.
func isTitleCase(s string) bool {
	words := strings.Fields(s)
	letterWords := 0
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letterWords++
	}
	return letterWords > 0
}

// isAllCaps reports whether s contains letters and none of them lowercase.
func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		hasLetter = true
	}
	return hasLetter
}

// isSentenceCase reports whether s starts uppercase and continues lowercase.
func isSentenceCase(s string) bool {
	if !startsUpper(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
