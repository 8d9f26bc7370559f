package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreStrongStudent(t *testing.T) {
	f := Features{
		AttendancePercentage: 95,
		InternalMarks:        90,
		AssignmentScores:     88,
		LabPerformance:       85,
		PreviousGPA:          3.8,
		StudyHours:           25,
		ParticipationMetrics: 90,
	}
	assert.InDelta(t, 160.45, Score(f), 1e-9)

	res := Predict(f)
	assert.Equal(t, TierHigh, res.PredictedPerformance)
	assert.InDelta(t, 0.1, res.RiskScore, 1e-9)
	assert.Equal(t, []string{AdvicePraise, AdviceLeadership}, res.Recommendations)
	assert.Len(t, res.FeatureImportance, 7)
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		tier  Tier
		risk  float64
	}{
		{score: 1000, tier: TierHigh, risk: 0.1},
		{score: 85, tier: TierHigh, risk: 0.1},
		{score: 84.999, tier: TierMedium, risk: 0.2},
		{score: 70, tier: TierMedium, risk: 0.2},
		{score: 69.999, tier: TierLow, risk: 0.7},
		{score: 0, tier: TierLow, risk: 0.7},
		{score: -40, tier: TierLow, risk: 0.7},
	}
	for _, tc := range cases {
		tier, probs := Classify(tc.score)
		assert.Equalf(t, tc.tier, tier, "score %v", tc.score)
		assert.InDeltaf(t, tc.risk, Risk(probs), 1e-9, "score %v", tc.score)
		assert.InDeltaf(t, 1.0, probs.Low+probs.Medium+probs.High, 1e-9, "score %v", tc.score)
	}
}

func TestTierTriples(t *testing.T) {
	_, high := Classify(90)
	_, med := Classify(75)
	_, low := Classify(10)
	assert.Equal(t, Probabilities{Low: 0.1, Medium: 0.2, High: 0.7}, high)
	assert.Equal(t, Probabilities{Low: 0.2, Medium: 0.6, High: 0.2}, med)
	assert.Equal(t, Probabilities{Low: 0.7, Medium: 0.2, High: 0.1}, low)
}

func TestPredictIsDeterministic(t *testing.T) {
	f := Features{AttendancePercentage: 60, PreviousGPA: 2.1, StudyHours: 8}
	first := Predict(f)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Predict(f))
	}
}

func TestPredictLowTier(t *testing.T) {
	f := Features{AttendancePercentage: 50, InternalMarks: 40, PreviousGPA: 2.0, StudyHours: 5}
	res := Predict(f)
	require.Equal(t, TierLow, res.PredictedPerformance)
	assert.InDelta(t, 0.7, res.RiskScore, 1e-9)
	assert.Equal(t, []string{
		AdviceAttendance,
		AdviceStudyHours,
		AdviceGrades,
		AdviceAdvisorMeeting,
	}, res.Recommendations)
}

func TestRecommendLowOrderAndConditions(t *testing.T) {
	cases := []struct {
		name string
		f    Features
		want []string
	}{
		{
			name: "all three triggered",
			f:    Features{AttendancePercentage: 60, StudyHours: 10, PreviousGPA: 2.5},
			want: []string{AdviceAttendance, AdviceStudyHours, AdviceGrades, AdviceAdvisorMeeting},
		},
		{
			name: "none triggered",
			f:    DefaultFeatures,
			want: []string{AdviceAdvisorMeeting},
		},
		{
			name: "study hours only",
			f:    Features{AttendancePercentage: 75, PreviousGPA: 3.0, StudyHours: 19.5},
			want: []string{AdviceStudyHours, AdviceAdvisorMeeting},
		},
		{
			name: "attendance and gpa",
			f:    Features{AttendancePercentage: 74.9, PreviousGPA: 2.99, StudyHours: 30},
			want: []string{AdviceAttendance, AdviceGrades, AdviceAdvisorMeeting},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Recommend(TierLow, tc.f))
		})
	}
}

func TestRecommendIgnoresFeaturesOutsideLowTier(t *testing.T) {
	poor := Features{}
	assert.Equal(t, []string{AdviceMaintainHabits, AdviceStudyGroups}, Recommend(TierMedium, poor))
	assert.Equal(t, []string{AdvicePraise, AdviceLeadership}, Recommend(TierHigh, poor))
}

func TestFeatureImportanceIsStatic(t *testing.T) {
	fi := FeatureImportance()
	assert.InDelta(t, 0.25, fi[FeaturePreviousGPA], 1e-9)
	assert.InDelta(t, 0.05, fi[FeatureStudyHours], 1e-9)
	// Reported importance does not mirror the scoring weights.
	assert.Zero(t, fi[FeatureParticipation])
	participationOnly := Score(Features{ParticipationMetrics: 10})
	assert.InDelta(t, 1.0, participationOnly, 1e-9)

	fi[FeaturePreviousGPA] = 99
	assert.InDelta(t, 0.25, FeatureImportance()[FeaturePreviousGPA], 1e-9)
}

func TestRiskLevelFor(t *testing.T) {
	assert.Equal(t, RiskCritical, RiskLevelFor(0.75))
	assert.Equal(t, RiskHigh, RiskLevelFor(0.7))
	assert.Equal(t, RiskHigh, RiskLevelFor(AtRiskThreshold))
	assert.Equal(t, RiskMedium, RiskLevelFor(0.4))
	assert.Equal(t, RiskLow, RiskLevelFor(0.2))
	assert.Equal(t, RiskLow, RiskLevelFor(0.1))
}

func TestTierValid(t *testing.T) {
	for _, tier := range []Tier{TierLow, TierMedium, TierHigh} {
		assert.True(t, tier.Valid(), string(tier))
	}
	assert.False(t, Tier("low").Valid())
	assert.False(t, Tier("").Valid())
}

func TestNormalizeDefaults(t *testing.T) {
	assert.Equal(t, DefaultFeatures, Normalize(nil))
	assert.Equal(t, DefaultFeatures, Normalize(map[string]any{}))
	assert.Equal(t, DefaultFeatures, NormalizePartial(PartialFeatures{}))

	res := PredictRaw(map[string]any{})
	assert.InDelta(t, 128.25, Score(DefaultFeatures), 1e-9)
	assert.Equal(t, TierHigh, res.PredictedPerformance)
}

func TestNormalizeCoercion(t *testing.T) {
	gpa := 3.5
	raw := map[string]any{
		FeatureAttendance:    "88.5",
		FeatureInternalMarks: 72,
		FeatureAssignments:   json.Number("64"),
		FeatureLab:           "not a number",
		FeaturePreviousGPA:   &gpa,
		FeatureStudyHours:    math.NaN(),
		FeatureParticipation: []int{1},
	}
	got := Normalize(raw)
	assert.InDelta(t, 88.5, got.AttendancePercentage, 1e-9)
	assert.InDelta(t, 72, got.InternalMarks, 1e-9)
	assert.InDelta(t, 64, got.AssignmentScores, 1e-9)
	assert.InDelta(t, DefaultFeatures.LabPerformance, got.LabPerformance, 1e-9)
	assert.InDelta(t, 3.5, got.PreviousGPA, 1e-9)
	assert.InDelta(t, DefaultFeatures.StudyHours, got.StudyHours, 1e-9)
	assert.InDelta(t, DefaultFeatures.ParticipationMetrics, got.ParticipationMetrics, 1e-9)
}

func TestNormalizeDoesNotClamp(t *testing.T) {
	got := Normalize(map[string]any{FeatureAttendance: 150.0, FeatureStudyHours: -3})
	assert.InDelta(t, 150, got.AttendancePercentage, 1e-9)
	assert.InDelta(t, -3, got.StudyHours, 1e-9)
}

func TestNormalizePartialKeepsProvided(t *testing.T) {
	att := 40.0
	got := NormalizePartial(PartialFeatures{AttendancePercentage: &att})
	assert.InDelta(t, 40, got.AttendancePercentage, 1e-9)
	assert.InDelta(t, DefaultFeatures.InternalMarks, got.InternalMarks, 1e-9)
}
