package student

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studentpulse-backend/internal/engine"
)

// Prediction is an immutable snapshot of one engine run for a student.
// Rows are only ever inserted; the newest one is the student's current
// prediction.
type Prediction struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID            uuid.UUID      `gorm:"type:uuid;not null;column:student_id;index:idx_prediction_student_created,priority:1" json:"student_id"`
	Student              *Student       `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"-"`
	PredictedPerformance engine.Tier    `gorm:"not null;column:predicted_performance;index" json:"predicted_performance"`
	RiskScore            float64        `gorm:"not null;column:risk_score" json:"risk_score"`
	Recommendations      datatypes.JSON `gorm:"column:recommendations" json:"recommendations"`
	FeatureImportance    datatypes.JSON `gorm:"column:feature_importance" json:"feature_importance"`
	CreatedAt            time.Time      `gorm:"not null;index:idx_prediction_student_created,priority:2,sort:desc" json:"created_at"`
}

func (Prediction) TableName() string { return "prediction" }

// NewPrediction snapshots an engine result for studentID. ID and CreatedAt
// are left to the repo.
func NewPrediction(studentID uuid.UUID, res engine.Result) (*Prediction, error) {
	recs, err := json.Marshal(res.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("marshal recommendations: %w", err)
	}
	imp, err := json.Marshal(res.FeatureImportance)
	if err != nil {
		return nil, fmt.Errorf("marshal feature importance: %w", err)
	}
	return &Prediction{
		StudentID:            studentID,
		PredictedPerformance: res.PredictedPerformance,
		RiskScore:            res.RiskScore,
		Recommendations:      datatypes.JSON(recs),
		FeatureImportance:    datatypes.JSON(imp),
	}, nil
}

// RecommendationList decodes the stored advice. A corrupt column yields an
// error and a nil list.
func (p *Prediction) RecommendationList() ([]string, error) {
	var out []string
	if len(p.Recommendations) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(p.Recommendations, &out); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return out, nil
}

func (p *Prediction) FeatureImportanceMap() (map[string]float64, error) {
	out := map[string]float64{}
	if len(p.FeatureImportance) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(p.FeatureImportance, &out); err != nil {
		return map[string]float64{}, fmt.Errorf("decode feature importance: %w", err)
	}
	return out, nil
}

func (p *Prediction) RiskLevel() engine.RiskLevel {
	return engine.RiskLevelFor(p.RiskScore)
}
