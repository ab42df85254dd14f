package report

import (
	"sort"

	"rubric-report-go/models"
)

// FilterOrder is the order the multi-select controls narrow the dataset in
var FilterOrder = []Dimension{
	DimInstitution, DimYear, DimTerm, DimCourse, DimAssignment, DimInstructor,
}

// Filter maps a dimension to its selected values; an empty selection keeps everything
type Filter map[Dimension][]string

// Apply returns the rows matching every non-empty selection
func (f Filter) Apply(rows []models.RubricRow) []models.RubricRow {
	out := rows
	for _, d := range FilterOrder {
		out = keep(out, d, f[d])
	}
	return out
}

// Options returns, for each control, the sorted distinct values left after
// the controls before it have been applied.
func (f Filter) Options(rows []models.RubricRow) map[Dimension][]string {
	opts := make(map[Dimension][]string, len(FilterOrder))
	cur := rows
	for _, d := range FilterOrder {
		opts[d] = Distinct(cur, d)
		cur = keep(cur, d, f[d])
	}
	return opts
}

func keep(rows []models.RubricRow, d Dimension, selected []string) []models.RubricRow {
	if len(selected) == 0 {
		return rows
	}
	want := make(map[string]bool, len(selected))
	for _, s := range selected {
		want[s] = true
	}
	out := make([]models.RubricRow, 0, len(rows))
	for _, r := range rows {
		if want[d.Value(r)] {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the sorted unique values of a dimension
func Distinct(rows []models.RubricRow, d Dimension) []string {
	seen := make(map[string]struct{})
	vals := []string{}
	for _, r := range rows {
		v := d.Value(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		vals = append(vals, v)
	}
	sort.Strings(vals)
	return vals
}

// Stats are the headline numbers shown after a fetch
type Stats struct {
	Rows     int `json:"rows"`
	Courses  int `json:"courses"`
	Students int `json:"students"`
}

// Describe computes Stats for a set of rows
func Describe(rows []models.RubricRow) Stats {
	students := make(map[int64]struct{})
	for _, r := range rows {
		students[r.StudentID] = struct{}{}
	}
	return Stats{
		Rows:     len(rows),
		Courses:  len(Distinct(rows, DimCourse)),
		Students: len(students),
	}
}
