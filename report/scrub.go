package report

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder replaces every recognised student reference in comment text
const Placeholder = "[STUDENT]"

// Scrubber removes known student names from free text. A name is matched
// first as a whole (case-insensitive substring), then part by part as whole
// words. A first name that is also a common word gets replaced everywhere.
type Scrubber struct {
	patterns []namePattern
}

// namePattern is a literal name matcher; left and right require a word
// boundary on that edge.
type namePattern struct {
	re          *regexp.Regexp
	left, right bool
}

// NewScrubber compiles the replacement patterns for the given display names
// Full names run before parts, each group longest first, so the result does
// not depend on the order names are given in.
func NewScrubber(names []string) *Scrubber {
	var full, parts []string
	seenFull := make(map[string]bool)
	seenPart := make(map[string]bool)
	for _, name := range names {
		name = strings.Join(strings.Fields(name), " ")
		if name == "" {
			continue
		}
		if key := strings.ToLower(name); !seenFull[key] {
			seenFull[key] = true
			full = append(full, name)
		}
		for _, part := range strings.Fields(name) {
			if key := strings.ToLower(part); !seenPart[key] {
				seenPart[key] = true
				parts = append(parts, part)
			}
		}
	}
	sortLongestFirst(full)
	sortLongestFirst(parts)

	s := &Scrubber{patterns: make([]namePattern, 0, len(full)+len(parts))}
	for _, name := range full {
		s.patterns = append(s.patterns, namePattern{re: literal(name)})
	}
	for _, part := range parts {
		s.patterns = append(s.patterns, wordPattern(part))
	}
	return s
}

func literal(s string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(s))
}

func sortLongestFirst(xs []string) {
	sort.Slice(xs, func(i, j int) bool {
		if len(xs[i]) != len(xs[j]) {
			return len(xs[i]) > len(xs[j])
		}
		return strings.ToLower(xs[i]) < strings.ToLower(xs[j])
	})
}

// Scrub returns text with every name occurrence replaced by Placeholder.
// Existing placeholders are left alone, so scrubbing is idempotent.
func (s *Scrubber) Scrub(text string) string {
	if text == "" || len(s.patterns) == 0 {
		return text
	}
	for _, p := range s.patterns {
		text = replaceOutsidePlaceholders(text, p)
	}
	return text
}

// ScrubComment is a convenience wrapper for one-off use
func ScrubComment(text string, names []string) string {
	return NewScrubber(names).Scrub(text)
}

func replaceOutsidePlaceholders(text string, p namePattern) string {
	pieces := strings.Split(text, Placeholder)
	for i, piece := range pieces {
		if piece != "" {
			pieces[i] = p.replace(piece)
		}
	}
	return strings.Join(pieces, Placeholder)
}

// wordPattern matches part as a whole word. Boundaries are only required on
// edges that are word characters; "(Bobby)" can sit right next to a letter.
func wordPattern(part string) namePattern {
	first, _ := utf8.DecodeRuneInString(part)
	last, _ := utf8.DecodeLastRuneInString(part)
	return namePattern{re: literal(part), left: isWordRune(first), right: isWordRune(last)}
}

// replace substitutes every match whose required edges sit on a word
// boundary. RE2 has no Unicode \b, so candidates are checked by hand and a
// rejected one restarts the search one rune further on.
func (p namePattern) replace(text string) string {
	var b strings.Builder
	last, pos := 0, 0
	for pos < len(text) {
		loc := p.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && p.bounded(text, start, end) {
			b.WriteString(text[last:start])
			b.WriteString(Placeholder)
			last, pos = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func (p namePattern) bounded(text string, start, end int) bool {
	if p.left && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if p.right && end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// isWordRune reports letters, digits, combining marks and underscore in any script
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
