package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/service"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
	"github.com/cshaw-hub/hub-api/pkg/response"
)

// AttendanceHandler wires HTTP endpoints to the attendance service.
type AttendanceHandler struct {
	service *service.AttendanceService
	metrics *service.MetricsService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, metrics: metrics}
}

// ListRecords godoc
// @Summary List attendance records
// @Description Every RSVP of the activity with its attendance lifecycle
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {array} models.AttendanceRecord
// @Failure 404 {object} map[string]string
// @Router /activities/{id}/rsvps/ [get]
func (h *AttendanceHandler) ListRecords(c *gin.Context) {
	records, err := h.service.ListRecords(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Transition godoc
// @Summary Sign a student in or out
// @Description Apply one signin/signout action, optionally at a manual HH:MM time
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attendance record ID"
// @Param payload body dto.TransitionRequest true "Action payload"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /attendance/{id}/ [post]
func (h *AttendanceHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	res, err := h.service.ApplyTransition(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveTransition(req.Action)
	response.JSON(c, http.StatusOK, res)
}

// BulkSignout godoc
// @Summary Sign out all remaining students
// @Description Close every in-progress record at the activity's scheduled end time
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {object} dto.BulkSignoutResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /activities/{id}/bulk_signout/ [post]
func (h *AttendanceHandler) BulkSignout(c *gin.Context) {
	res, err := h.service.BulkSignout(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveBulkSignout(res.SignedOut)
	response.JSON(c, http.StatusOK, res)
}
