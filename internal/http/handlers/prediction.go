package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studentpulse-backend/internal/http/response"
	"github.com/yungbote/studentpulse-backend/internal/services"
)

type PredictionHandler struct {
	predictionService   services.PredictionService
	backfillConcurrency int
}

func NewPredictionHandler(predictionService services.PredictionService, backfillConcurrency int) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService, backfillConcurrency: backfillConcurrency}
}

// POST /api/predict/preview scores the submitted metrics without storing
// anything. Missing fields take the engine defaults.
func (h *PredictionHandler) Preview(c *gin.Context) {
	var req metricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	response.RespondOK(c, h.predictionService.PredictRaw(req.raw()))
}

// POST /api/predictions
func (h *PredictionHandler) CreateForStudent(c *gin.Context) {
	var req struct {
		StudentID uuid.UUID `json:"student_id" binding:"required"`
		metricsRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	p, err := h.predictionService.PredictForStudent(dbcFrom(c), req.StudentID, req.raw())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"prediction": viewPrediction(c, p)})
}

// GET /api/students/:id/prediction
func (h *PredictionHandler) Current(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := h.predictionService.Current(dbcFrom(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	respondCurrent(c, p)
}

// GET /api/students/:id/predictions
func (h *PredictionHandler) History(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.predictionService.History(dbcFrom(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"predictions": viewPredictions(c, rows)})
}

// POST /api/predictions/backfill
func (h *PredictionHandler) Backfill(c *gin.Context) {
	res, err := h.predictionService.BackfillMissing(c.Request.Context(), h.backfillConcurrency)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
