package handlers

import (
	"net/http"

	"github.com/formpulse/survey-service/internal/services"
	"github.com/formpulse/survey-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	responseHandler   *ResponseHandler
	statisticsHandler *StatisticsHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		responseHandler:   NewResponseHandler(serviceManager.Response(), logger),
		statisticsHandler: NewStatisticsHandler(serviceManager.Statistics(), serviceManager.Export(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		surveys := v1.Group("/surveys")
		{
			surveys.POST("/:id/responses", hm.responseHandler.SubmitResponse)
			surveys.GET("/:id/responses", hm.responseHandler.ListResponses)
			surveys.GET("/:id/responses/summary", hm.responseHandler.GetResponseSummary)
			surveys.GET("/:id/statistics", hm.statisticsHandler.GetStatistics)
			surveys.GET("/:id/statistics/export", hm.statisticsHandler.ExportStatistics)
		}

		// Public submission by survey link.
		v1.POST("/s/:slug/responses", hm.responseHandler.SubmitResponseBySlug)

		responses := v1.Group("/responses")
		{
			responses.GET("/:id", hm.responseHandler.GetResponse)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "survey-service",
	})
}
