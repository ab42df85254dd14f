package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubric-report-go/models"
)

var errUnreachable = errors.New("unreachable")

// fakeSource serves canned Canvas data keyed by course and assignment id
type fakeSource struct {
	courses     []models.Course
	coursesErr  error
	teachers    map[int64][]models.User
	students    map[int64][]models.User
	assignments map[int64][]models.Assignment
	submissions map[int64][]models.Submission
	failCourse  int64
	rosterErr   error
}

func (f *fakeSource) ListCourses(context.Context) ([]models.Course, error) {
	return f.courses, f.coursesErr
}

func (f *fakeSource) ListTeachers(_ context.Context, id int64) ([]models.User, error) {
	return f.teachers[id], nil
}

func (f *fakeSource) ListStudents(_ context.Context, id int64) ([]models.User, error) {
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return f.students[id], nil
}

func (f *fakeSource) ListAssignments(_ context.Context, id int64) ([]models.Assignment, error) {
	if id == f.failCourse {
		return nil, errUnreachable
	}
	return f.assignments[id], nil
}

func (f *fakeSource) ListSubmissions(_ context.Context, _, assignmentID int64) ([]models.Submission, error) {
	return f.submissions[assignmentID], nil
}

func newFakeSource(courseID int64, courseName string, start *string) *fakeSource {
	return &fakeSource{
		courses: []models.Course{{ID: courseID, Name: courseName, StartAt: start}},
		teachers: map[int64][]models.User{
			courseID: {{ID: 1, Name: "Alan Turing", ShortName: "Alan T"}, {ID: 2, Name: "Grace Hopper"}},
		},
		students: map[int64][]models.User{
			courseID: {{ID: 10, Name: "Jane Doe"}},
		},
		assignments: map[int64][]models.Assignment{
			courseID: {
				{ID: courseID*100 + 1, Name: "Essay", Rubric: []models.Criterion{
					{ID: "_a", Description: "Thesis", Points: f64(4)},
					{ID: "_b", Description: "Evidence", Points: f64(5)},
				}},
				{ID: courseID*100 + 2, Name: "No rubric"},
			},
		},
		submissions: map[int64][]models.Submission{
			courseID*100 + 1: {
				{UserID: 10, RubricAssessment: map[string]models.CriterionScore{"_a": {Points: f64(3)}},
					Comments: []models.SubmissionComment{
						{AuthorID: 1, Comment: "Good job Jane"},
						{AuthorID: 10, Comment: "Thanks, Jane Doe here"},
					}},
				{UserID: 11},
			},
		},
	}
}

func openFrom(sources map[string]*fakeSource) SourceFactory {
	return func(cred models.Credential) (Source, error) {
		src, ok := sources[cred.Token]
		if !ok {
			return nil, errUnreachable
		}
		return src, nil
	}
}

func TestExtractorRows(t *testing.T) {
	src := newFakeSource(7, "Bio (Fall 2022)", nil)
	var progress []int
	ex := NewExtractor(openFrom(map[string]*fakeSource{"tokenA": src}), nil, func(_ string, n int) {
		progress = append(progress, n)
	})

	res := ex.Run(context.Background(), []models.Credential{{Token: "tokenA", URL: "https://a", Institution: "UA"}})
	require.Empty(t, res.Errors)
	assert.Equal(t, []int{1}, progress)
	assert.Equal(t, []models.TokenProgress{{Token: "tokenA...", Institution: "UA", Courses: 1}}, res.Progress)

	require.Len(t, res.Rows, 2)
	first := res.Rows[0]
	assert.Equal(t, "UA", first.Institution)
	assert.Equal(t, Fall, first.Term)
	assert.Equal(t, "2022-2023", first.Year)
	assert.Equal(t, "Alan T, Grace Hopper", first.Instructor)
	assert.Equal(t, "Essay", first.Assignment)
	assert.Equal(t, "Thesis", first.Criterion)
	assert.Equal(t, 3.0, *first.Score)
	assert.Equal(t, 4.0, *first.PointsPossible)
	assert.Equal(t, int64(10), first.StudentID)
	assert.Equal(t, "Unknown", first.CourseStartDate)

	second := res.Rows[1]
	assert.Equal(t, "Evidence", second.Criterion)
	assert.Nil(t, second.Score)
	assert.Equal(t, 5.0, *second.PointsPossible)

	require.Len(t, res.Comments, 2)
	assert.Equal(t, models.RoleInstructor, res.Comments[0].Role)
	assert.Equal(t, "Good job [STUDENT]", res.Comments[0].Scrubbed)
	assert.Equal(t, "Good job Jane", res.Comments[0].Raw)
	assert.Equal(t, models.RoleStudent, res.Comments[1].Role)
	assert.Equal(t, "Thanks, [STUDENT] here", res.Comments[1].Scrubbed)
}

func TestExtractorStartDateWins(t *testing.T) {
	start := "2024-02-01T07:00:00Z"
	src := newFakeSource(7, "Bio (Fall 2022)", &start)
	res := NewExtractor(openFrom(map[string]*fakeSource{"t": src}), nil, nil).
		Run(context.Background(), []models.Credential{{Token: "t", URL: "https://a"}})

	require.NotEmpty(t, res.Rows)
	assert.Equal(t, Spring, res.Rows[0].Term)
	assert.Equal(t, "2023-2024", res.Rows[0].Year)
	assert.Equal(t, start, res.Rows[0].CourseStartDate)
	assert.Equal(t, Unknown, res.Rows[0].Institution)
}

func TestExtractorPartialTokenFailure(t *testing.T) {
	a := newFakeSource(1, "A (Fall 2022)", nil)
	b := &fakeSource{coursesErr: errUnreachable}
	c := newFakeSource(3, "C (Spring 2023)", nil)
	ex := NewExtractor(openFrom(map[string]*fakeSource{"tokA": a, "tokB": b, "tokC": c}), nil, nil)

	res := ex.Run(context.Background(), []models.Credential{
		{Token: "tokA", URL: "https://a", Institution: "A"},
		{Token: "tokB", URL: "https://b", Institution: "B"},
		{Token: "tokC", URL: "https://c", Institution: "C"},
	})

	assert.Equal(t, []string{"A", "C"}, Distinct(res.Rows, DimInstitution))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.ScopeToken, res.Errors[0].Scope)
	assert.Equal(t, "tokB...", res.Errors[0].Ref)
}

func TestExtractorUnopenableToken(t *testing.T) {
	ex := NewExtractor(openFrom(map[string]*fakeSource{}), nil, nil)
	res := ex.Run(context.Background(), []models.Credential{{Token: "missing", URL: "https://x"}})
	assert.Empty(t, res.Rows)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.ScopeToken, res.Errors[0].Scope)
}

func TestExtractorPartialCourseFailure(t *testing.T) {
	src := newFakeSource(1, "Good (Fall 2022)", nil)
	bad := newFakeSource(2, "Bad (Fall 2022)", nil)
	src.courses = append(src.courses, bad.courses...)
	for k, v := range bad.assignments {
		src.assignments[k] = v
	}
	src.failCourse = 2

	res := NewExtractor(openFrom(map[string]*fakeSource{"t": src}), nil, nil).
		Run(context.Background(), []models.Credential{{Token: "t", URL: "https://a"}})

	assert.Equal(t, []string{"Good (Fall 2022)"}, Distinct(res.Rows, DimCourse))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.ScopeCourse, res.Errors[0].Scope)
	assert.Equal(t, "Bad (Fall 2022) (2)", res.Errors[0].Ref)
}

func TestExtractorKeepsRowsWithoutRoster(t *testing.T) {
	src := newFakeSource(7, "Bio (Fall 2022)", nil)
	src.rosterErr = errUnreachable

	res := NewExtractor(openFrom(map[string]*fakeSource{"t": src}), nil, nil).
		Run(context.Background(), []models.Credential{{Token: "t", URL: "https://a"}})

	assert.Len(t, res.Rows, 2)
	assert.Empty(t, res.Comments)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, models.ScopeCourse, res.Errors[0].Scope)
	assert.Equal(t, "Bio (Fall 2022) (7)", res.Errors[0].Ref)
	assert.Contains(t, res.Errors[0].Message, "comments skipped")
}
