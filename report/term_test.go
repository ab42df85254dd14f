package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestTermFromDateIsTotal(t *testing.T) {
	for year := 1999; year <= 2031; year++ {
		for m := time.January; m <= time.December; m++ {
			term, ay := TermFromDate(time.Date(year, m, 15, 0, 0, 0, 0, time.UTC))
			assert.Contains(t, []string{Spring, Summer, Fall}, term)
			assert.Regexp(t, `^\d{4}-\d{4}$`, ay)
		}
	}
}

func TestTermFromDateBoundaries(t *testing.T) {
	tests := []struct {
		month    time.Month
		wantTerm string
		wantYear string
	}{
		{time.January, Spring, "2023-2024"},
		{time.April, Spring, "2023-2024"},
		{time.May, Summer, "2023-2024"},
		{time.July, Summer, "2023-2024"},
		{time.August, Fall, "2024-2025"},
		{time.December, Fall, "2024-2025"},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			term, ay := TermFromDate(time.Date(2024, tt.month, 1, 0, 0, 0, 0, time.UTC))
			assert.Equal(t, tt.wantTerm, term)
			assert.Equal(t, tt.wantYear, ay)
		})
	}
}

func TestAcademicYear(t *testing.T) {
	assert.Equal(t, "2023-2024", AcademicYear(Fall, 2023))
	assert.Equal(t, "2023-2024", AcademicYear(Spring, 2024))
	assert.Equal(t, "2023-2024", AcademicYear(Summer, 2024))
}

func TestTermFromName(t *testing.T) {
	term, ay := TermFromName("Intro to Bio (Fall 2022)")
	assert.Equal(t, Fall, term)
	assert.Equal(t, "2022-2023", ay)

	term, ay = TermFromName("Intro to Bio")
	assert.Equal(t, Unknown, term)
	assert.Equal(t, Unknown, ay)

	term, ay = TermFromName("Lab (Winter 2022)")
	assert.Equal(t, Unknown, term)
	assert.Equal(t, Unknown, ay)
}

func TestClassifyTerm(t *testing.T) {
	tests := []struct {
		name     string
		startAt  *string
		course   string
		wantTerm string
		wantYear string
	}{
		{name: "date wins over name", startAt: strPtr("2024-02-01T07:00:00Z"), course: "X (Fall 2019)", wantTerm: Spring, wantYear: "2023-2024"},
		{name: "date without zone", startAt: strPtr("2023-09-01T00:00:00"), course: "X", wantTerm: Fall, wantYear: "2023-2024"},
		{name: "date only", startAt: strPtr("2024-06-10"), course: "X", wantTerm: Summer, wantYear: "2023-2024"},
		{name: "nil date uses name", startAt: nil, course: "Chem (Summer 2021)", wantTerm: Summer, wantYear: "2020-2021"},
		{name: "malformed date falls back to name", startAt: strPtr("not-a-date"), course: "Chem (Fall 2020)", wantTerm: Fall, wantYear: "2020-2021"},
		{name: "malformed date and no pattern", startAt: strPtr("2024-13-45"), course: "Chem", wantTerm: Unknown, wantYear: Unknown},
		{name: "empty date uses name", startAt: strPtr(""), course: "Chem (Spring 2022)", wantTerm: Spring, wantYear: "2021-2022"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, ay := ClassifyTerm(tt.startAt, tt.course)
			assert.Equal(t, tt.wantTerm, term)
			assert.Equal(t, tt.wantYear, ay)
		})
	}
}
