// Package export serialises report tables as CSV and XLSX.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"rubric-report-go/models"
	"rubric-report-go/report"
)

// Download file names
const (
	RawFile       = "filtered_rubric_data.csv"
	SummaryFile   = "aggregated_rubric_data.csv"
	FrequencyFile = "score_frequency_data.csv"
	CommentsFile  = "scrubbed_comments.csv"
	WorkbookFile  = "rubric_report.xlsx"
)

// RawHeader is the column order of the raw rubric table
var RawHeader = []string{
	"Institution", "Term", "Year", "Course", "Instructor", "Assignment",
	"Rubric Item", "Score", "Points Possible", "Student ID", "Course Start Date",
}

var summaryStats = []string{"Avg_Score", "Max_Score", "Min_Score", "Count"}

// FrequencyHeader returns the column order of a frequency table faceted on facet
func FrequencyHeader(facet report.Dimension) []string {
	return []string{string(facet), "Score", "Count", "Percentage", "Label"}
}

// CommentsHeader is the column order of the comment export
var CommentsHeader = []string{
	"Institution", "Course", "Assignment", "Student ID", "Author ID", "Role", "Comment", "Scrubbed Comment",
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return report.FormatScore(*v)
}

// RawRecords flattens rubric rows, header first
func RawRecords(rows []models.RubricRow) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, RawHeader)
	for _, r := range rows {
		out = append(out, []string{
			r.Institution, r.Term, r.Year, r.Course, r.Instructor, r.Assignment,
			r.Criterion, optFloat(r.Score), optFloat(r.PointsPossible),
			strconv.FormatInt(r.StudentID, 10), r.CourseStartDate,
		})
	}
	return out
}

// SummaryRecords flattens a summary, one column per grouping dimension
func SummaryRecords(s report.Summary) [][]string {
	header := make([]string, 0, len(s.Dimensions)+len(summaryStats))
	for _, d := range s.Dimensions {
		header = append(header, string(d))
	}
	header = append(header, summaryStats...)

	out := make([][]string, 0, len(s.Rows)+1)
	out = append(out, header)
	for _, r := range s.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.Group...)
		rec = append(rec, optFloat(r.AvgScore), optFloat(r.MaxScore), optFloat(r.MinScore), strconv.Itoa(r.Count))
		out = append(out, rec)
	}
	return out
}

// FrequencyRecords flattens a frequency table
func FrequencyRecords(freq []report.FrequencyRow, facet report.Dimension) [][]string {
	out := make([][]string, 0, len(freq)+1)
	out = append(out, FrequencyHeader(facet))
	for _, f := range freq {
		out = append(out, []string{
			f.Facet,
			report.FormatScore(f.Score),
			strconv.Itoa(f.Count),
			strconv.FormatFloat(f.Percentage, 'f', 1, 64),
			f.Label,
		})
	}
	return out
}

// CommentRecords flattens raw/scrubbed comment pairs
func CommentRecords(comments []models.CommentRecord) [][]string {
	out := make([][]string, 0, len(comments)+1)
	out = append(out, CommentsHeader)
	for _, c := range comments {
		out = append(out, []string{
			c.Institution, c.Course, c.Assignment,
			strconv.FormatInt(c.StudentID, 10), strconv.FormatInt(c.AuthorID, 10),
			c.Role, c.Raw, c.Scrubbed,
		})
	}
	return out
}

// WriteCSV writes records to w
func WriteCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}
