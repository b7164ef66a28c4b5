package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cshaw-hub/hub-api/internal/service"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
	"github.com/cshaw-hub/hub-api/pkg/export"
	"github.com/cshaw-hub/hub-api/pkg/response"
)

// ReportHandler wires HTTP endpoints to the report service.
type ReportHandler struct {
	service *service.ReportService
	csv     export.Exporter
	pdf     export.Exporter
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{
		service: svc,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// EventReport godoc
// @Summary Event attendance report
// @Description Turnout, hours, punctuality and facilitators for one activity
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {object} dto.EventReport
// @Failure 404 {object} map[string]string
// @Router /reports/events/{id}/ [get]
func (h *ReportHandler) EventReport(c *gin.Context) {
	report, err := h.service.EventReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Quarterly godoc
// @Summary Quarterly report
// @Description A year's activities grouped by quarter with campus rankings
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current one"
// @Success 200 {array} dto.QuarterReport
// @Failure 400 {object} map[string]string
// @Router /reports/quarterly/ [get]
func (h *ReportHandler) Quarterly(c *gin.Context) {
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid year"))
			return
		}
		year = parsed
	}
	reports, err := h.service.QuarterlyReport(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports)
}

// Export godoc
// @Summary Export event attendance
// @Description Download the attendance sheet as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reports/events/{id}/export/ [get]
func (h *ReportHandler) Export(c *gin.Context) {
	dataset, err := h.service.EventDataset(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderDataset(c, dataset, fmt.Sprintf("attendance-%s", c.Param("id")))
}

// ExportQuarterly godoc
// @Summary Export the quarterly report
// @Description Download the quarterly campus rankings as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current one"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Router /reports/quarterly/export/ [get]
func (h *ReportHandler) ExportQuarterly(c *gin.Context) {
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid year"))
			return
		}
		year = parsed
	}
	dataset, err := h.service.QuarterlyDataset(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.renderDataset(c, dataset, fmt.Sprintf("quarterly-%d", year))
}

func (h *ReportHandler) renderDataset(c *gin.Context, dataset *export.Dataset, basename string) {
	exporter := h.csv
	switch c.DefaultQuery("format", "csv") {
	case "csv":
	case "pdf":
		exporter = h.pdf
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	payload, err := exporter.Render(*dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
		return
	}

	filename := fmt.Sprintf("%s.%s", basename, exporter.FileExtension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, exporter.ContentType(), payload)
}
