package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/formpulse/survey-service/internal/services"
	"github.com/formpulse/survey-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	BaseHandler
	statisticsService services.StatisticsService
	exportService     services.ExportService
}

func NewStatisticsHandler(
	statisticsService services.StatisticsService,
	exportService services.ExportService,
	logger utils.Logger,
) *StatisticsHandler {
	return &StatisticsHandler{
		BaseHandler:       NewBaseHandler(logger),
		statisticsService: statisticsService,
		exportService:     exportService,
	}
}

// GetStatistics computes the aggregated report for a survey
// @Summary Get survey statistics
// @Description Aggregated option tallies, per-respondent answers, and summary
// @Tags statistics
// @Produce json
// @Param id path uint true "Survey ID"
// @Param name query string false "Respondent name substring"
// @Param email query string false "Respondent email substring"
// @Param status query string false "completed or incomplete"
// @Success 200 {object} services.SurveyStatistics
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{id}/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	surveyID := h.parseIDParam(c, "id")
	if surveyID == 0 {
		return
	}

	h.LogRequest(c, "Computing survey statistics", "survey_id", surveyID)

	stats, err := h.statisticsService.SurveyStatistics(c.Request.Context(), surveyID, parseStatisticsFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportStatistics downloads the report as an xlsx workbook
// @Summary Export survey statistics
// @Tags statistics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Survey ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{id}/statistics/export [get]
func (h *StatisticsHandler) ExportStatistics(c *gin.Context) {
	surveyID := h.parseIDParam(c, "id")
	if surveyID == 0 {
		return
	}

	workbook, err := h.exportService.ExportStatistics(c.Request.Context(), surveyID, parseStatisticsFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("survey-%d-statistics.xlsx", surveyID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

func parseStatisticsFilters(c *gin.Context) services.StatisticsFilters {
	filters := services.StatisticsFilters{
		Name:   c.Query("name"),
		Email:  c.Query("email"),
		Status: services.CompletionStatus(c.Query("status")),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("date_from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("date_to")); err == nil {
		filters.DateTo = &to
	}
	return filters
}
