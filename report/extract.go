package report

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rubric-report-go/models"
)

// Source is the slice of the Canvas API the extractor needs
type Source interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListTeachers(ctx context.Context, courseID int64) ([]models.User, error)
	ListStudents(ctx context.Context, courseID int64) ([]models.User, error)
	ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error)
	ListSubmissions(ctx context.Context, courseID, assignmentID int64) ([]models.Submission, error)
}

// SourceFactory opens a Source for one credential
type SourceFactory func(cred models.Credential) (Source, error)

// Progress is told how many courses each token yielded
type Progress func(maskedToken string, courses int)

// Result is the outcome of a fetch. Failed units are listed in Errors and
// contribute nothing to Rows or Comments.
type Result struct {
	Rows     []models.RubricRow     `json:"rows"`
	Comments []models.CommentRecord `json:"comments"`
	Errors   []models.FetchError    `json:"errors"`
	Progress []models.TokenProgress `json:"progress"`
}

func (r *Result) merge(o Result) {
	r.Rows = append(r.Rows, o.Rows...)
	r.Comments = append(r.Comments, o.Comments...)
	r.Errors = append(r.Errors, o.Errors...)
	r.Progress = append(r.Progress, o.Progress...)
}

// Extractor turns Canvas courses into rubric rows and scrubbed comments
type Extractor struct {
	open     SourceFactory
	logger   *zap.Logger
	progress Progress
}

// NewExtractor builds an Extractor; progress may be nil
func NewExtractor(open SourceFactory, logger *zap.Logger, progress Progress) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{open: open, logger: logger, progress: progress}
}

// Run processes credentials one after another. A token or course that fails
// is recorded and skipped; it never aborts the run.
func (e *Extractor) Run(ctx context.Context, creds []models.Credential) Result {
	res := Result{
		Rows:     []models.RubricRow{},
		Comments: []models.CommentRecord{},
		Errors:   []models.FetchError{},
		Progress: []models.TokenProgress{},
	}
	for _, cred := range creds {
		res.merge(e.runToken(ctx, cred))
	}
	e.logger.Info("fetch finished",
		zap.Int("tokens", len(creds)),
		zap.Int("rows", len(res.Rows)),
		zap.Int("comments", len(res.Comments)),
		zap.Int("errors", len(res.Errors)))
	return res
}

func (e *Extractor) runToken(ctx context.Context, cred models.Credential) Result {
	var res Result
	masked := cred.MaskedToken()
	log := e.logger.With(zap.String("token", masked), zap.String("institution", cred.Institution))

	src, err := e.open(cred)
	if err != nil {
		log.Error("open source", zap.Error(err))
		res.Errors = append(res.Errors, models.FetchError{Scope: models.ScopeToken, Ref: masked, Message: err.Error()})
		return res
	}
	courses, err := src.ListCourses(ctx)
	if err != nil {
		log.Error("list courses", zap.Error(err))
		res.Errors = append(res.Errors, models.FetchError{Scope: models.ScopeToken, Ref: masked, Message: err.Error()})
		return res
	}
	log.Info("courses found", zap.Int("count", len(courses)))
	if e.progress != nil {
		e.progress(masked, len(courses))
	}

	institution := cred.Institution
	if institution == "" {
		institution = Unknown
	}
	res.Progress = append(res.Progress, models.TokenProgress{Token: masked, Institution: institution, Courses: len(courses)})
	for _, course := range courses {
		courseRes, err := e.runCourse(ctx, log, src, institution, course)
		if err != nil {
			log.Warn("course skipped", zap.Int64("course_id", course.ID), zap.String("course", course.Name), zap.Error(err))
			res.Errors = append(res.Errors, courseError(course, err.Error()))
			continue
		}
		res.merge(courseRes)
	}
	return res
}

func courseError(course models.Course, msg string) models.FetchError {
	return models.FetchError{
		Scope:   models.ScopeCourse,
		Ref:     fmt.Sprintf("%s (%d)", course.Name, course.ID),
		Message: msg,
	}
}

// runCourse builds the rows of one course; any error discards the course's
// partial output. Without a student roster the rows are kept but comments
// are dropped, since they cannot be scrubbed.
func (e *Extractor) runCourse(ctx context.Context, log *zap.Logger, src Source, institution string, course models.Course) (Result, error) {
	var res Result
	assignments, err := src.ListAssignments(ctx, course.ID)
	if err != nil {
		return Result{}, err
	}
	var graded []models.Assignment
	for _, a := range assignments {
		if len(a.Rubric) > 0 {
			graded = append(graded, a)
		}
	}
	if len(graded) == 0 {
		return res, nil
	}

	teachers, err := src.ListTeachers(ctx, course.ID)
	if err != nil {
		return Result{}, err
	}
	students, err := src.ListStudents(ctx, course.ID)
	withComments := err == nil
	if err != nil {
		log.Warn("student roster unavailable, comments skipped", zap.Int64("course_id", course.ID), zap.Error(err))
		res.Errors = append(res.Errors, courseError(course, "comments skipped: "+err.Error()))
	}

	teacherIDs := make(map[int64]bool, len(teachers))
	names := make([]string, 0, len(teachers))
	for _, t := range teachers {
		teacherIDs[t.ID] = true
		names = append(names, t.DisplayName())
	}
	instructor := strings.Join(names, ", ")

	studentNames := make([]string, 0, len(students)*2)
	for _, s := range students {
		studentNames = append(studentNames, s.Name)
		if s.ShortName != "" && s.ShortName != s.Name {
			studentNames = append(studentNames, s.ShortName)
		}
	}
	scrubber := NewScrubber(studentNames)

	term, year := ClassifyTerm(course.StartAt, course.Name)
	start := course.StartDate()

	for _, a := range graded {
		subs, err := src.ListSubmissions(ctx, course.ID, a.ID)
		if err != nil {
			return Result{}, err
		}
		for _, sub := range subs {
			comments := sub.Comments
			if !withComments {
				comments = nil
			}
			for _, c := range comments {
				role := models.RoleStudent
				if teacherIDs[c.AuthorID] {
					role = models.RoleInstructor
				}
				res.Comments = append(res.Comments, models.CommentRecord{
					Institution: institution,
					Course:      course.Name,
					Assignment:  a.Name,
					StudentID:   sub.UserID,
					AuthorID:    c.AuthorID,
					Role:        role,
					Raw:         c.Comment,
					Scrubbed:    scrubber.Scrub(c.Comment),
				})
			}
			if !sub.Assessed() {
				continue
			}
			for _, crit := range a.Rubric {
				var score *float64
				if cs, ok := sub.RubricAssessment[crit.ID]; ok {
					score = cs.Points
				}
				res.Rows = append(res.Rows, models.RubricRow{
					Institution:     institution,
					Term:            term,
					Year:            year,
					Course:          course.Name,
					Instructor:      instructor,
					Assignment:      a.Name,
					Criterion:       crit.Description,
					Score:           score,
					PointsPossible:  crit.Points,
					StudentID:       sub.UserID,
					CourseStartDate: start,
				})
			}
		}
	}
	return res, nil
}
