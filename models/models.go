package models

// Credential is one row of the uploaded token table
type Credential struct {
	Token       string `json:"token" validate:"required"`
	URL         string `json:"url" validate:"required"`
	Institution string `json:"institution"`
}

// MaskedToken returns the first six characters of the token for display
func (c Credential) MaskedToken() string {
	if len(c.Token) <= 6 {
		return c.Token + "..."
	}
	return c.Token[:6] + "..."
}

// Course is a Canvas course taught by the token owner
type Course struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	StartAt *string `json:"start_at"` // ISO-8601 as sent by Canvas, nil when unset
}

// StartDate returns the raw start date or "Unknown"
func (c Course) StartDate() string {
	if c.StartAt == nil || *c.StartAt == "" {
		return "Unknown"
	}
	return *c.StartAt
}

// User is a course member (teacher or student)
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// DisplayName prefers the short name, falling back to the full name
func (u User) DisplayName() string {
	if u.ShortName != "" {
		return u.ShortName
	}
	return u.Name
}

// Criterion is one scored dimension of a rubric
type Criterion struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Points      *float64 `json:"points"`
}

// Assignment carries its embedded rubric (empty when the assignment has none)
type Assignment struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Rubric []Criterion `json:"rubric"`
}

// CriterionScore is the assessed value for one criterion
type CriterionScore struct {
	Points   *float64 `json:"points"`
	Comments string   `json:"comments"`
}

// SubmissionComment is a free-text comment left on a submission
type SubmissionComment struct {
	ID       int64  `json:"id"`
	AuthorID int64  `json:"author_id"`
	Comment  string `json:"comment"`
}

// Submission is one student's submission with its optional rubric assessment
type Submission struct {
	UserID           int64                     `json:"user_id"`
	RubricAssessment map[string]CriterionScore `json:"rubric_assessment"`
	Comments         []SubmissionComment       `json:"submission_comments"`
}

// Assessed reports whether the submission carries a rubric assessment
func (s Submission) Assessed() bool {
	return len(s.RubricAssessment) > 0
}

// RubricRow is the atomic unit of the dataset: one (student, assignment, criterion)
type RubricRow struct {
	Institution     string   `json:"institution"`
	Term            string   `json:"term"`
	Year            string   `json:"year"`
	Course          string   `json:"course"`
	Instructor      string   `json:"instructor"`
	Assignment      string   `json:"assignment"`
	Criterion       string   `json:"criterion"`
	Score           *float64 `json:"score"`
	PointsPossible  *float64 `json:"pointsPossible"`
	StudentID       int64    `json:"studentId"`
	CourseStartDate string   `json:"courseStartDate"`
}

// Comment roles
const (
	RoleInstructor = "Instructor"
	RoleStudent    = "Student"
)

// CommentRecord pairs a raw submission comment with its scrubbed text
type CommentRecord struct {
	Institution string `json:"institution"`
	Course      string `json:"course"`
	Assignment  string `json:"assignment"`
	StudentID   int64  `json:"studentId"`
	AuthorID    int64  `json:"authorId"`
	Role        string `json:"role"`
	Raw         string `json:"raw"`
	Scrubbed    string `json:"scrubbed"`
}

// Error scopes for FetchError
const (
	ScopeToken  = "token"
	ScopeCourse = "course"
)

// FetchError records a unit of work that failed and was skipped
type FetchError struct {
	Scope   string `json:"scope"`
	Ref     string `json:"ref"`
	Message string `json:"message"`
}

// TokenProgress is how many courses a token's owner teaches
type TokenProgress struct {
	Token       string `json:"token"` // Masked
	Institution string `json:"institution"`
	Courses     int    `json:"courses"`
}

// Session is the per-browser state kept between requests
type Session struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	LoggedIn    bool         `json:"loggedIn"`
	Credentials []Credential `json:"credentials"`
	ResultKey   string       `json:"resultKey"` // Fetch cache entry of the last completed fetch
	CreatedAt   int64        `json:"createdAt"`
}
