package canvas

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rubric-report-go/models"
)

// Client talks to a single Canvas instance with one bearer token
type Client struct {
	baseURL *url.URL
	pager   *Paginator
	perPage int
	logger  *zap.Logger
}

// Options tune a Client. Zero values fall back to sensible defaults.
type Options struct {
	PerPage int
	Timeout time.Duration
	HTTP    *http.Client
	Logger  *zap.Logger
}

// NewClient builds a client for the credential's base URL
func NewClient(cred models.Credential, opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cred.URL), "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", cred.URL)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", cred.URL)
	}

	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: base,
		pager:   &Paginator{HTTP: httpClient, Token: cred.Token},
		perPage: perPage,
		logger:  logger.With(zap.String("canvas", base.Host), zap.String("token", cred.MaskedToken())),
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(c.perPage))
	u.RawQuery = query.Encode()
	return u.String()
}

// ListCourses returns the available and completed courses the token owner teaches
func (c *Client) ListCourses(ctx context.Context) ([]models.Course, error) {
	q := url.Values{}
	q.Set("enrollment_type", "teacher")
	q.Add("state[]", "available")
	q.Add("state[]", "completed")
	courses, err := collect[models.Course](ctx, c.pager, c.endpoint("/api/v1/courses", q))
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	c.logger.Debug("listed courses", zap.Int("count", len(courses)))
	return courses, nil
}

// ListTeachers returns the teaching staff of a course in roster order
func (c *Client) ListTeachers(ctx context.Context, courseID int64) ([]models.User, error) {
	return c.listUsers(ctx, courseID, "teacher")
}

// ListStudents returns the students enrolled in a course
func (c *Client) ListStudents(ctx context.Context, courseID int64) ([]models.User, error) {
	return c.listUsers(ctx, courseID, "student")
}

func (c *Client) listUsers(ctx context.Context, courseID int64, role string) ([]models.User, error) {
	q := url.Values{}
	q.Add("enrollment_type[]", role)
	path := "/api/v1/courses/" + strconv.FormatInt(courseID, 10) + "/users"
	users, err := collect[models.User](ctx, c.pager, c.endpoint(path, q))
	if err != nil {
		return nil, errors.Wrapf(err, "list %s users of course %d", role, courseID)
	}
	return users, nil
}

// ListAssignments returns the course's assignments with their rubrics embedded
func (c *Client) ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	q := url.Values{}
	q.Add("include[]", "rubric")
	path := "/api/v1/courses/" + strconv.FormatInt(courseID, 10) + "/assignments"
	assignments, err := collect[models.Assignment](ctx, c.pager, c.endpoint(path, q))
	if err != nil {
		return nil, errors.Wrapf(err, "list assignments of course %d", courseID)
	}
	return assignments, nil
}

// ListSubmissions returns an assignment's submissions with rubric assessments and comments
func (c *Client) ListSubmissions(ctx context.Context, courseID, assignmentID int64) ([]models.Submission, error) {
	q := url.Values{}
	q.Add("include[]", "rubric_assessment")
	q.Add("include[]", "submission_comments")
	path := "/api/v1/courses/" + strconv.FormatInt(courseID, 10) +
		"/assignments/" + strconv.FormatInt(assignmentID, 10) + "/submissions"
	subs, err := collect[models.Submission](ctx, c.pager, c.endpoint(path, q))
	if err != nil {
		return nil, errors.Wrapf(err, "list submissions of assignment %d", assignmentID)
	}
	return subs, nil
}
