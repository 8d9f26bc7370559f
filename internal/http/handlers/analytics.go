package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studentpulse-backend/internal/http/response"
	"github.com/yungbote/studentpulse-backend/internal/services"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	out, err := h.analyticsService.Dashboard(dbcFrom(c))
	respond(c, out, err)
}

func (h *AnalyticsHandler) Stats(c *gin.Context) {
	out, err := h.analyticsService.Stats(dbcFrom(c))
	respond(c, out, err)
}

func (h *AnalyticsHandler) PerformanceTrends(c *gin.Context) {
	out, err := h.analyticsService.PerformanceTrends(dbcFrom(c))
	respond(c, out, err)
}

func (h *AnalyticsHandler) RiskAnalysis(c *gin.Context) {
	out, err := h.analyticsService.RiskAnalysis(dbcFrom(c))
	if err == nil && out == nil {
		out = []services.AtRiskStudent{}
	}
	respond(c, out, err)
}

func (h *AnalyticsHandler) CohortComparison(c *gin.Context) {
	out, err := h.analyticsService.CohortComparison(dbcFrom(c))
	respond(c, out, err)
}

func respond(c *gin.Context, payload any, err error) {
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, payload)
}
