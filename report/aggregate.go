package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"rubric-report-go/models"
)

// Dimension is a column rubric rows can be grouped or filtered on
type Dimension string

const (
	DimInstitution Dimension = "Institution"
	DimYear        Dimension = "Year"
	DimTerm        Dimension = "Term"
	DimCourse      Dimension = "Course"
	DimInstructor  Dimension = "Instructor"
	DimAssignment  Dimension = "Assignment"
	DimCriterion   Dimension = "Rubric Item"
)

// AllDimensions is the full grouping used for the summary table
var AllDimensions = []Dimension{
	DimInstitution, DimYear, DimTerm, DimCourse, DimInstructor, DimAssignment, DimCriterion,
}

// ParseDimension accepts a dimension name case-insensitively; "criterion" is an alias of Rubric Item
func ParseDimension(s string) (Dimension, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "criterion", "rubric_item", "rubric-item":
		return DimCriterion, nil
	case "year", "academic year":
		return DimYear, nil
	}
	for _, d := range AllDimensions {
		if strings.ToLower(string(d)) == key {
			return d, nil
		}
	}
	return "", errors.Errorf("unknown dimension %q", s)
}

// Value extracts the dimension's value from a row
func (d Dimension) Value(r models.RubricRow) string {
	switch d {
	case DimInstitution:
		return r.Institution
	case DimYear:
		return r.Year
	case DimTerm:
		return r.Term
	case DimCourse:
		return r.Course
	case DimInstructor:
		return r.Instructor
	case DimAssignment:
		return r.Assignment
	case DimCriterion:
		return r.Criterion
	}
	return ""
}

// SummaryRow holds the statistics of one group. Group values follow the
// order of Summary.Dimensions.
type SummaryRow struct {
	Group    []string `json:"group"`
	AvgScore *float64 `json:"avgScore"`
	MaxScore *float64 `json:"maxScore"`
	MinScore *float64 `json:"minScore"`
	Count    int      `json:"count"`
}

// Summary is the grouped statistics view
type Summary struct {
	Dimensions []Dimension  `json:"dimensions"`
	Rows       []SummaryRow `json:"rows"`
}

type scoreAcc struct {
	sum      float64
	n        int
	min, max float64
	students map[int64]struct{}
}

func (a *scoreAcc) add(r models.RubricRow) {
	a.students[r.StudentID] = struct{}{}
	if r.Score == nil {
		return
	}
	v := *r.Score
	if a.n == 0 || v < a.min {
		a.min = v
	}
	if a.n == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.n++
}

// Summarize groups rows on dims and computes mean, max and min of the
// non-null scores plus the distinct student count. No dims means one group.
func Summarize(rows []models.RubricRow, dims []Dimension) Summary {
	groups := make(map[string]*scoreAcc)
	keys := make(map[string][]string)
	for _, r := range rows {
		vals := make([]string, len(dims))
		for i, d := range dims {
			vals[i] = d.Value(r)
		}
		k := strings.Join(vals, "\x00")
		acc, ok := groups[k]
		if !ok {
			acc = &scoreAcc{students: make(map[int64]struct{})}
			groups[k] = acc
			keys[k] = vals
		}
		acc.add(r)
	}

	out := Summary{Dimensions: dims, Rows: make([]SummaryRow, 0, len(groups))}
	for k, acc := range groups {
		row := SummaryRow{Group: keys[k], Count: len(acc.students)}
		if acc.n > 0 {
			avg, lo, hi := acc.sum/float64(acc.n), acc.min, acc.max
			row.AvgScore, row.MinScore, row.MaxScore = &avg, &lo, &hi
		}
		out.Rows = append(out.Rows, row)
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		return lessStrings(out.Rows[i].Group, out.Rows[j].Group)
	})
	return out
}

func lessStrings(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// AverageBar is one bar of the average-score chart
type AverageBar struct {
	Group    string   `json:"group"`
	AvgScore *float64 `json:"avgScore"`
}

// DistributionSeries lists the per-row averages behind one bar, for a box plot
type DistributionSeries struct {
	Group  string    `json:"group"`
	Values []float64 `json:"values"`
}

// GroupAverages averages the AvgScore of summary rows per value of dim,
// sorted ascending with empty groups last.
func GroupAverages(s Summary, dim Dimension) ([]AverageBar, []DistributionSeries, error) {
	idx := -1
	for i, d := range s.Dimensions {
		if d == dim {
			idx = i
		}
	}
	if idx < 0 {
		return nil, nil, errors.Errorf("summary is not grouped by %s", dim)
	}

	values := make(map[string][]float64)
	var order []string
	for _, r := range s.Rows {
		g := r.Group[idx]
		if _, ok := values[g]; !ok {
			values[g] = []float64{}
			order = append(order, g)
		}
		if r.AvgScore != nil {
			values[g] = append(values[g], *r.AvgScore)
		}
	}

	bars := make([]AverageBar, 0, len(order))
	series := make([]DistributionSeries, 0, len(order))
	for _, g := range order {
		bar := AverageBar{Group: g}
		if vs := values[g]; len(vs) > 0 {
			m := mean(vs)
			bar.AvgScore = &m
		}
		bars = append(bars, bar)
		series = append(series, DistributionSeries{Group: g, Values: values[g]})
	}
	sort.SliceStable(bars, func(i, j int) bool {
		a, b := bars[i].AvgScore, bars[j].AvgScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
	sort.Slice(series, func(i, j int) bool { return series[i].Group < series[j].Group })
	return bars, series, nil
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// FrequencyRow is the distinct-student count of one (facet, score) pair
type FrequencyRow struct {
	Facet      string  `json:"facet"`
	Score      float64 `json:"score"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Label      string  `json:"label"`
}

// Frequency counts distinct students per (criterion, score); percentages are
// relative to the criterion's total across all scores.
func Frequency(rows []models.RubricRow) []FrequencyRow {
	return frequency(rows, DimCriterion)
}

// FrequencyByInstitution is Frequency faceted on institution instead of criterion
func FrequencyByInstitution(rows []models.RubricRow) []FrequencyRow {
	return frequency(rows, DimInstitution)
}

// FrequencyBy dispatches on the facet dimension
func FrequencyBy(rows []models.RubricRow, facet Dimension) ([]FrequencyRow, error) {
	switch facet {
	case DimCriterion, DimInstitution:
		return frequency(rows, facet), nil
	}
	return nil, errors.Errorf("cannot facet score frequency by %s", facet)
}

type freqKey struct {
	facet string
	score float64
}

func frequency(rows []models.RubricRow, facet Dimension) []FrequencyRow {
	students := make(map[freqKey]map[int64]struct{})
	for _, r := range rows {
		if r.Score == nil {
			continue
		}
		k := freqKey{facet: facet.Value(r), score: *r.Score}
		set, ok := students[k]
		if !ok {
			set = make(map[int64]struct{})
			students[k] = set
		}
		set[r.StudentID] = struct{}{}
	}

	totals := make(map[string]int)
	out := make([]FrequencyRow, 0, len(students))
	for k, set := range students {
		totals[k.facet] += len(set)
		out = append(out, FrequencyRow{Facet: k.facet, Score: k.score, Count: len(set)})
	}
	for i := range out {
		out[i].Percentage = Percentage(out[i].Count, totals[out[i].Facet])
		out[i].Label = FrequencyLabel(out[i].Count, out[i].Percentage)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Facet != out[j].Facet {
			return out[i].Facet < out[j].Facet
		}
		return out[i].Score < out[j].Score
	})
	return out
}

// Percentage returns count/total*100 rounded half to even at one decimal;
// 0 when total is 0
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.RoundToEven(float64(count)/float64(total)*1000) / 10
}

// FrequencyLabel renders "N (P%)"
func FrequencyLabel(count int, pct float64) string {
	return fmt.Sprintf("%d (%.1f%%)", count, pct)
}

// FacetTitles names each criterion facet "<criterion> (<min>-<max>)" over its observed scores
func FacetTitles(freq []FrequencyRow) map[string]string {
	type span struct{ lo, hi float64 }
	spans := make(map[string]*span)
	for _, f := range freq {
		s, ok := spans[f.Facet]
		if !ok {
			spans[f.Facet] = &span{lo: f.Score, hi: f.Score}
			continue
		}
		s.lo = math.Min(s.lo, f.Score)
		s.hi = math.Max(s.hi, f.Score)
	}
	titles := make(map[string]string, len(spans))
	for facet, s := range spans {
		titles[facet] = fmt.Sprintf("%s (%s-%s)", facet, FormatScore(s.lo), FormatScore(s.hi))
	}
	return titles
}

// FacetCount is the number of distinct facets in a frequency table
func FacetCount(freq []FrequencyRow) int {
	seen := make(map[string]struct{})
	for _, f := range freq {
		seen[f.Facet] = struct{}{}
	}
	return len(seen)
}

// FormatScore prints a score without trailing zeros
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
