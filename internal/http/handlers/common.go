package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/engine"
	"github.com/yungbote/studentpulse-backend/internal/http/response"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000

	statusNoPrediction = "no_prediction"
	statusOK           = "ok"
)

func dbcFrom(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// uuidParam writes a 400 and returns false when the path param is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid_id", errors.New(name+" must be a UUID")))
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads ?offset= and ?limit=; bad values fall back to defaults.
func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}

// metricsRequest carries the seven engine inputs. Every field is optional;
// ranges are enforced here, never in the engine.
type metricsRequest struct {
	AttendancePercentage *float64 `json:"attendance_percentage" binding:"omitempty,gte=0,lte=100"`
	InternalMarks        *float64 `json:"internal_marks" binding:"omitempty,gte=0,lte=100"`
	AssignmentScores     *float64 `json:"assignment_scores" binding:"omitempty,gte=0,lte=100"`
	LabPerformance       *float64 `json:"lab_performance" binding:"omitempty,gte=0,lte=100"`
	PreviousGPA          *float64 `json:"previous_gpa" binding:"omitempty,gte=0,lte=4"`
	StudyHours           *float64 `json:"study_hours" binding:"omitempty,gte=0"`
	ParticipationMetrics *float64 `json:"participation_metrics" binding:"omitempty,gte=0,lte=100"`
}

func (m metricsRequest) partial() engine.PartialFeatures {
	return engine.PartialFeatures{
		AttendancePercentage: m.AttendancePercentage,
		InternalMarks:        m.InternalMarks,
		AssignmentScores:     m.AssignmentScores,
		LabPerformance:       m.LabPerformance,
		PreviousGPA:          m.PreviousGPA,
		StudyHours:           m.StudyHours,
		ParticipationMetrics: m.ParticipationMetrics,
	}
}

// raw keeps only the submitted values so the engine defaults the rest.
func (m metricsRequest) raw() map[string]any {
	out := map[string]any{}
	put := func(key string, v *float64) {
		if v != nil {
			out[key] = *v
		}
	}
	put(engine.FeatureAttendance, m.AttendancePercentage)
	put(engine.FeatureInternalMarks, m.InternalMarks)
	put(engine.FeatureAssignments, m.AssignmentScores)
	put(engine.FeatureLab, m.LabPerformance)
	put(engine.FeaturePreviousGPA, m.PreviousGPA)
	put(engine.FeatureStudyHours, m.StudyHours)
	put(engine.FeatureParticipation, m.ParticipationMetrics)
	return out
}

type predictionView struct {
	ID                   uuid.UUID          `json:"id"`
	StudentID            uuid.UUID          `json:"student_id"`
	PredictedPerformance engine.Tier        `json:"predicted_performance"`
	RiskScore            float64            `json:"risk_score"`
	RiskLevel            engine.RiskLevel   `json:"risk_level"`
	Recommendations      []string           `json:"recommendations"`
	FeatureImportance    map[string]float64 `json:"feature_importance"`
	CreatedAt            time.Time          `json:"created_at"`
}

// viewPrediction renders p. Stored payloads that fail to decode render empty
// and are attached to c so the request log records them.
func viewPrediction(c *gin.Context, p *types.Prediction) *predictionView {
	if p == nil {
		return nil
	}
	recs, err := p.RecommendationList()
	if err != nil {
		_ = c.Error(err)
	}
	if recs == nil {
		recs = []string{}
	}
	imp, err := p.FeatureImportanceMap()
	if err != nil {
		_ = c.Error(err)
	}
	return &predictionView{
		ID:                   p.ID,
		StudentID:            p.StudentID,
		PredictedPerformance: p.PredictedPerformance,
		RiskScore:            p.RiskScore,
		RiskLevel:            p.RiskLevel(),
		Recommendations:      recs,
		FeatureImportance:    imp,
		CreatedAt:            p.CreatedAt,
	}
}

func viewPredictions(c *gin.Context, ps []*types.Prediction) []*predictionView {
	out := make([]*predictionView, 0, len(ps))
	for _, p := range ps {
		out = append(out, viewPrediction(c, p))
	}
	return out
}

// respondCurrent renders a current-prediction read, including the explicit
// no-prediction state.
func respondCurrent(c *gin.Context, p *types.Prediction) {
	if p == nil {
		response.RespondOK(c, gin.H{"prediction": nil, "status": statusNoPrediction})
		return
	}
	response.RespondOK(c, gin.H{"prediction": viewPrediction(c, p), "status": statusOK})
}
