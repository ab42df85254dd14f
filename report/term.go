package report

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Term labels
const (
	Spring  = "Spring"
	Summer  = "Summer"
	Fall    = "Fall"
	Unknown = "Unknown"
)

var termInName = regexp.MustCompile(`\((Spring|Summer|Fall) (\d{4})\)`)

// Accepted start date layouts, tried in order
var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ClassifyTerm returns the term and academic year of a course. The start
// date wins when it parses; otherwise the "(Term YYYY)" pattern in the name
// is used. Both come back Unknown when neither source yields a term.
func ClassifyTerm(startAt *string, name string) (term, academicYear string) {
	if startAt != nil {
		if t, ok := parseStart(*startAt); ok {
			return TermFromDate(t)
		}
	}
	return TermFromName(name)
}

// TermFromDate classifies a start date: Jan-Apr Spring, May-Jul Summer, else Fall
func TermFromDate(t time.Time) (term, academicYear string) {
	switch m := t.Month(); {
	case m <= time.April:
		term = Spring
	case m <= time.July:
		term = Summer
	default:
		term = Fall
	}
	return term, AcademicYear(term, t.Year())
}

// TermFromName looks for "(Spring|Summer|Fall YYYY)" in a course name
func TermFromName(name string) (term, academicYear string) {
	m := termInName.FindStringSubmatch(name)
	if m == nil {
		return Unknown, Unknown
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return Unknown, Unknown
	}
	return m[1], AcademicYear(m[1], year)
}

// AcademicYear labels the Fall-to-Summer span a term belongs to
func AcademicYear(term string, year int) string {
	if term == Fall {
		return strconv.Itoa(year) + "-" + strconv.Itoa(year+1)
	}
	return strconv.Itoa(year-1) + "-" + strconv.Itoa(year)
}

func parseStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// trailing Z on a layout without seconds or offset
	trimmed := strings.TrimSuffix(s, "Z")
	for _, layout := range startLayouts[1:] {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
