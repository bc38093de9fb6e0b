package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/formpulse/survey-service/internal/models"
	"github.com/formpulse/survey-service/internal/repositories"
	"github.com/formpulse/survey-service/internal/services"
	"github.com/formpulse/survey-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	BaseHandler
	responseService services.ResponseService
}

func NewResponseHandler(responseService services.ResponseService, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:     NewBaseHandler(logger),
		responseService: responseService,
	}
}

// SubmitResponse stores one respondent submission
// @Summary Submit survey response
// @Description Normalizes, snapshots, scores, and stores a submission
// @Tags responses
// @Accept json
// @Produce json
// @Param id path uint true "Survey ID"
// @Param response body services.SubmitResponseRequest true "Submission payload"
// @Success 200 {object} services.SubmitResponseResult
// @Success 201 {object} services.SubmitResponseResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /surveys/{id}/responses [post]
func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	surveyID := h.parseIDParam(c, "id")
	if surveyID == 0 {
		return
	}

	var req services.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.SurveyID = surveyID
	if req.Metadata == nil {
		req.Metadata = requestMetadata(c)
	}

	h.LogRequest(c, "Submitting response", "survey_id", surveyID)

	result, err := h.responseService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// SubmitResponseBySlug stores a submission addressed by public survey link
// @Summary Submit survey response by slug
// @Tags responses
// @Accept json
// @Produce json
// @Param slug path string true "Survey slug"
// @Param response body services.SubmitResponseRequest true "Submission payload"
// @Success 200 {object} services.SubmitResponseResult
// @Success 201 {object} services.SubmitResponseResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /s/{slug}/responses [post]
func (h *ResponseHandler) SubmitResponseBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Missing slug parameter"})
		return
	}

	var req services.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if req.Metadata == nil {
		req.Metadata = requestMetadata(c)
	}

	h.LogRequest(c, "Submitting response by slug", "slug", slug)

	result, err := h.responseService.SubmitBySlug(c.Request.Context(), slug, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// GetResponseSummary returns the response count and latest submission time
// @Summary Get survey response summary
// @Tags responses
// @Produce json
// @Param id path uint true "Survey ID"
// @Success 200 {object} services.ResponseSummary
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{id}/responses/summary [get]
func (h *ResponseHandler) GetResponseSummary(c *gin.Context) {
	surveyID := h.parseIDParam(c, "id")
	if surveyID == 0 {
		return
	}

	summary, err := h.responseService.SummaryBySurvey(c.Request.Context(), surveyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListResponses lists a survey's responses
// @Summary List survey responses
// @Description Lists stored responses with optional name/email/date filters
// @Tags responses
// @Produce json
// @Param id path uint true "Survey ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /surveys/{id}/responses [get]
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	surveyID := h.parseIDParam(c, "id")
	if surveyID == 0 {
		return
	}

	responses, err := h.responseService.ListBySurvey(c.Request.Context(), surveyID, parseResponseFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Responses retrieved",
		Data:    responses,
	})
}

// GetResponse retrieves a single response by ID
// @Summary Get response
// @Tags responses
// @Produce json
// @Param id path uint true "Response ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} ErrorResponse
// @Router /responses/{id} [get]
func (h *ResponseHandler) GetResponse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	response, err := h.responseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// requestMetadata captures submission context from the HTTP request.
func requestMetadata(c *gin.Context) *models.ResponseMetadata {
	userAgent := c.Request.UserAgent()
	deviceType := "desktop"
	if strings.Contains(strings.ToLower(userAgent), "mobile") {
		deviceType = "mobile"
	}
	return &models.ResponseMetadata{
		UserAgent:  userAgent,
		IPAddress:  c.ClientIP(),
		DeviceType: deviceType,
	}
}

func parseResponseFilters(c *gin.Context) repositories.ResponseFilters {
	filters := repositories.ResponseFilters{
		Name:  c.Query("name"),
		Email: c.Query("email"),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("date_from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("date_to")); err == nil {
		filters.DateTo = &to
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filters.Offset = offset
	}
	return filters
}
