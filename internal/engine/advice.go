package engine

const (
	AdviceAttendance     = "Improve attendance by attending all classes regularly."
	AdviceStudyHours     = "Increase study hours to at least 20 hours per week."
	AdviceGrades         = "Focus on improving grades in core subjects."
	AdviceAdvisorMeeting = "Schedule a meeting with academic advisor for personalized guidance."
	AdviceMaintainHabits = "Maintain current study habits and attendance."
	AdviceStudyGroups    = "Consider joining study groups for peer learning."
	AdvicePraise         = "Excellent performance! Keep up the good work."
	AdviceLeadership     = "Consider leadership roles or advanced courses."
)

// Recommend returns advice in a fixed order. Low tier always ends with the
// advisor meeting, so the result is never empty.
func Recommend(t Tier, f Features) []string {
	switch t {
	case TierHigh:
		return []string{AdvicePraise, AdviceLeadership}
	case TierMedium:
		return []string{AdviceMaintainHabits, AdviceStudyGroups}
	}
	out := make([]string, 0, 4)
	if f.AttendancePercentage < 75 {
		out = append(out, AdviceAttendance)
	}
	if f.StudyHours < 20 {
		out = append(out, AdviceStudyHours)
	}
	if f.PreviousGPA < 3.0 {
		out = append(out, AdviceGrades)
	}
	return append(out, AdviceAdvisorMeeting)
}

// FeatureImportance is static metadata, not derived from Score's weights.
// participation_metrics is 0.0 here although Score weighs it at 0.10.
func FeatureImportance() map[string]float64 {
	return map[string]float64{
		FeatureAttendance:    0.20,
		FeatureInternalMarks: 0.20,
		FeatureAssignments:   0.15,
		FeatureLab:           0.15,
		FeaturePreviousGPA:   0.25,
		FeatureStudyHours:    0.05,
		FeatureParticipation: 0.0,
	}
}

// RiskLevel buckets a risk score for display.
type RiskLevel string

const (
	RiskCritical RiskLevel = "Critical"
	RiskHigh     RiskLevel = "High"
	RiskMedium   RiskLevel = "Medium"
	RiskLow      RiskLevel = "Low"
)

// AtRiskThreshold is the risk score at which dashboards and the assistant
// flag a student.
const AtRiskThreshold = 0.6

// RiskLevelFor maps risk to its bucket: Critical at .75, High at .6, Medium at .4.
func RiskLevelFor(risk float64) RiskLevel {
	switch {
	case risk >= 0.75:
		return RiskCritical
	case risk >= 0.6:
		return RiskHigh
	case risk >= 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}
