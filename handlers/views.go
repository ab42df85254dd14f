package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rubric-report-go/models"
	"rubric-report-go/report"
)

// Query parameter per filter control
var filterParams = map[report.Dimension]string{
	report.DimInstitution: "institution",
	report.DimYear:        "year",
	report.DimTerm:        "term",
	report.DimCourse:      "course",
	report.DimAssignment:  "assignment",
	report.DimInstructor:  "instructor",
}

// Dimensions the average-score chart can be grouped by
var averageGroups = []report.Dimension{
	report.DimInstitution, report.DimCriterion, report.DimCourse, report.DimInstructor,
}

func filterFromQuery(c *gin.Context) report.Filter {
	f := report.Filter{}
	for d, param := range filterParams {
		if vals := c.QueryArray(param); len(vals) > 0 {
			f[d] = vals
		}
	}
	return f
}

// loadResult returns the session's last fetch, writing the error response itself
func (h *APIHandler) loadResult(c *gin.Context) (report.Result, bool) {
	sess := currentSession(c)
	res, ok, err := h.Store.GetResult(c.Request.Context(), sess.ResultKey)
	if err != nil {
		h.logger.Error("load result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load fetched data"})
		return res, false
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data fetched yet; upload tokens and run a fetch"})
		return res, false
	}
	return res, true
}

// filteredRows loads the result and applies the query's filters
func (h *APIHandler) filteredRows(c *gin.Context) ([]models.RubricRow, bool) {
	res, ok := h.loadResult(c)
	if !ok {
		return nil, false
	}
	return filterFromQuery(c).Apply(res.Rows), true
}

// GetRows handles GET /api/rows
func (h *APIHandler) GetRows(c *gin.Context) {
	rows, ok := h.filteredRows(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats": report.Describe(rows),
		"rows":  rows,
	})
}

// GetOptions handles GET /api/options
func (h *APIHandler) GetOptions(c *gin.Context) {
	res, ok := h.loadResult(c)
	if !ok {
		return
	}
	opts := filterFromQuery(c).Options(res.Rows)
	out := make(gin.H, len(opts))
	for d, vals := range opts {
		out[filterParams[d]] = vals
	}
	c.JSON(http.StatusOK, out)
}

// GetSummary handles GET /api/summary?group=Course&group=Rubric%20Item.
// Without group parameters every dimension is used.
func (h *APIHandler) GetSummary(c *gin.Context) {
	dims, err := parseDimensions(c.QueryArray("group"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, ok := h.filteredRows(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.Summarize(rows, dims))
}

func parseDimensions(names []string) ([]report.Dimension, error) {
	if len(names) == 0 {
		return report.AllDimensions, nil
	}
	dims := make([]report.Dimension, 0, len(names))
	for _, n := range names {
		d, err := report.ParseDimension(n)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// GetAverages handles GET /api/averages?group_by=Institution
func (h *APIHandler) GetAverages(c *gin.Context) {
	dim, err := report.ParseDimension(c.DefaultQuery("group_by", string(report.DimInstitution)))
	if err != nil || !containsDim(averageGroups, dim) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("group_by must be one of %v", averageGroups)})
		return
	}
	rows, ok := h.filteredRows(c)
	if !ok {
		return
	}
	bars, series, err := report.GroupAverages(report.Summarize(rows, report.AllDimensions), dim)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"groupBy":      dim,
		"bars":         bars,
		"distribution": series,
	})
}

func containsDim(dims []report.Dimension, d report.Dimension) bool {
	for _, x := range dims {
		if x == d {
			return true
		}
	}
	return false
}

// GetFrequency handles GET /api/frequency?facet=criterion|institution. Too
// many facets is reported as a warning rather than an error.
func (h *APIHandler) GetFrequency(c *gin.Context) {
	facet, err := report.ParseDimension(c.DefaultQuery("facet", string(report.DimCriterion)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, ok := h.filteredRows(c)
	if !ok {
		return
	}
	freq, err := report.FrequencyBy(rows, facet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"facet": facet, "rows": freq}
	switch n := report.FacetCount(freq); {
	case n == 0:
		resp["info"] = "No data matches the selected filters for visualization."
	case n > h.opts.MaxFacets:
		resp["rows"] = []report.FrequencyRow{}
		resp["warning"] = fmt.Sprintf("%d facets selected, too many to display. Filter further to %d or fewer.", n, h.opts.MaxFacets)
	default:
		if facet == report.DimCriterion {
			resp["titles"] = report.FacetTitles(freq)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func selectComments(c *gin.Context, comments []models.CommentRecord) []models.CommentRecord {
	course, assignment := c.Query("course"), c.Query("assignment")
	out := make([]models.CommentRecord, 0, len(comments))
	for _, cm := range comments {
		if course != "" && cm.Course != course {
			continue
		}
		if assignment != "" && cm.Assignment != assignment {
			continue
		}
		out = append(out, cm)
	}
	return out
}

// GetComments handles GET /api/comments?course=...&assignment=...
func (h *APIHandler) GetComments(c *gin.Context) {
	res, ok := h.loadResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, selectComments(c, res.Comments))
}
