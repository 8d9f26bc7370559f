package student

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/studentpulse-backend/internal/engine"
)

func ptr(v float64) *float64 { return &v }

func TestFeaturesFallsBackToDefaults(t *testing.T) {
	s := &Student{PreviousGPA: ptr(3.6)}
	f := s.Features()
	assert.InDelta(t, 3.6, f.PreviousGPA, 1e-9)
	assert.InDelta(t, engine.DefaultFeatures.AttendancePercentage, f.AttendancePercentage, 1e-9)
	assert.InDelta(t, engine.DefaultFeatures.StudyHours, f.StudyHours, 1e-9)
}

func TestApplyMetricsOnlyTouchesProvided(t *testing.T) {
	s := &Student{AttendancePercentage: ptr(80), StudyHours: ptr(12)}
	s.ApplyMetrics(engine.PartialFeatures{StudyHours: ptr(22)})
	require.NotNil(t, s.AttendancePercentage)
	assert.InDelta(t, 80, *s.AttendancePercentage, 1e-9)
	assert.InDelta(t, 22, *s.StudyHours, 1e-9)
	assert.Nil(t, s.LabPerformance)
}

func TestNewPredictionSnapshotsResult(t *testing.T) {
	id := uuid.New()
	res := engine.Predict(engine.Features{PreviousGPA: 1.5})
	p, err := NewPrediction(id, res)
	require.NoError(t, err)

	assert.Equal(t, id, p.StudentID)
	assert.Equal(t, engine.TierLow, p.PredictedPerformance)
	assert.InDelta(t, 0.7, p.RiskScore, 1e-9)
	recs, err := p.RecommendationList()
	require.NoError(t, err)
	assert.Equal(t, res.Recommendations, recs)
	imp, err := p.FeatureImportanceMap()
	require.NoError(t, err)
	assert.Equal(t, res.FeatureImportance, imp)
	assert.Equal(t, engine.RiskHigh, p.RiskLevel())
}

func TestEmptyPredictionPayloads(t *testing.T) {
	p := &Prediction{}
	recs, err := p.RecommendationList()
	require.NoError(t, err)
	assert.Empty(t, recs)
	imp, err := p.FeatureImportanceMap()
	require.NoError(t, err)
	assert.Empty(t, imp)
}

func TestCorruptPredictionPayloadsReturnErrors(t *testing.T) {
	p := &Prediction{
		Recommendations:   datatypes.JSON(`"just a string"`),
		FeatureImportance: datatypes.JSON(`{"previous_gpa":`),
	}
	recs, err := p.RecommendationList()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode recommendations")
	assert.Nil(t, recs)

	imp, err := p.FeatureImportanceMap()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode feature importance")
	assert.Empty(t, imp)
}
