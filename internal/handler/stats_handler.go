package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/internal/service"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
	"github.com/cshaw-hub/hub-api/pkg/response"
)

// StatsHandler wires HTTP endpoints to the stats service.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler creates a new handler.
func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// MyStats godoc
// @Summary Current student's stats
// @Description Lifetime hours, events attended and recent history
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.StudentStats
// @Failure 401 {object} map[string]string
// @Router /stats/me/ [get]
func (h *StatsHandler) MyStats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.StudentStats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// StudentStats godoc
// @Summary One student's stats
// @Description Lifetime hours for a specific student; coordinators only
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} models.StudentStats
// @Failure 403 {object} map[string]string
// @Router /stats/students/{id}/ [get]
func (h *StatsHandler) StudentStats(c *gin.Context) {
	stats, err := h.service.StudentStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Roster godoc
// @Summary Student roster
// @Description Every student with lifetime hours, grouped by campus
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.RosterRow
// @Failure 403 {object} map[string]string
// @Router /stats/roster/ [get]
func (h *StatsHandler) Roster(c *gin.Context) {
	rows, err := h.service.Roster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if rows == nil {
		rows = []models.RosterRow{}
	}
	response.JSON(c, http.StatusOK, rows)
}

// Milestones godoc
// @Summary Milestone qualifiers
// @Description Students whose lifetime hours clear the hiking trip and annual camp floors
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MilestoneQualifiers
// @Failure 403 {object} map[string]string
// @Router /stats/milestones/ [get]
func (h *StatsHandler) Milestones(c *gin.Context) {
	qualifiers, err := h.service.MilestoneQualifiers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, qualifiers)
}
