package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rubric-report-go/export"
	"rubric-report-go/report"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (h *APIHandler) sendCSV(c *gin.Context, filename string, records [][]string) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		h.logger.Error("render csv", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render CSV"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, mimeCSV+"; charset=utf-8", buf.Bytes())
}

// ExportRaw handles GET /api/export/raw.csv
func (h *APIHandler) ExportRaw(c *gin.Context) {
	rows, ok := h.filteredRows(c)
	if !ok {
		return
	}
	h.sendCSV(c, export.RawFile, export.RawRecords(rows))
}

// ExportSummary handles GET /api/export/summary.csv
func (h *APIHandler) ExportSummary(c *gin.Context) {
	dims, err := parseDimensions(c.QueryArray("group"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, ok := h.filteredRows(c)
	if !ok {
		return
	}
	h.sendCSV(c, export.SummaryFile, export.SummaryRecords(report.Summarize(rows, dims)))
}

// ExportFrequency handles GET /api/export/frequency.csv
func (h *APIHandler) ExportFrequency(c *gin.Context) {
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
	h.sendCSV(c, export.FrequencyFile, export.FrequencyRecords(freq, facet))
}

// ExportComments handles GET /api/export/comments.csv?course=...&assignment=...
func (h *APIHandler) ExportComments(c *gin.Context) {
	res, ok := h.loadResult(c)
	if !ok {
		return
	}
	h.sendCSV(c, export.CommentsFile, export.CommentRecords(selectComments(c, res.Comments)))
}

// ExportWorkbook handles GET /api/export/report.xlsx
func (h *APIHandler) ExportWorkbook(c *gin.Context) {
	rows, ok := h.filteredRows(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := export.WriteWorkbook(&buf,
		export.Sheet{Name: "Raw", Records: export.RawRecords(rows)},
		export.Sheet{Name: "Summary", Records: export.SummaryRecords(report.Summarize(rows, report.AllDimensions))},
		export.Sheet{Name: "Frequency", Records: export.FrequencyRecords(report.Frequency(rows), report.DimCriterion)},
	)
	if err != nil {
		h.logger.Error("render workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render workbook"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.WorkbookFile+`"`)
	c.Data(http.StatusOK, mimeXLSX, buf.Bytes())
}
