// Package engine scores a student's academic metrics, classifies the score
// into a performance tier and derives risk and advice from it.
//
// Everything here is a pure function over a fixed rule table; it holds no
// state and is safe to call from any number of goroutines.
package engine

// Tier is the predicted performance class.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t == TierLow || t == TierMedium || t == TierHigh
}

// Features are the seven numeric inputs of the scoring function.
type Features struct {
	AttendancePercentage float64 `json:"attendance_percentage"`
	InternalMarks        float64 `json:"internal_marks"`
	AssignmentScores     float64 `json:"assignment_scores"`
	LabPerformance       float64 `json:"lab_performance"`
	PreviousGPA          float64 `json:"previous_gpa"`
	StudyHours           float64 `json:"study_hours"`
	ParticipationMetrics float64 `json:"participation_metrics"`
}

// Probabilities is the classifier's fixed (P(Low), P(Medium), P(High)) triple.
type Probabilities struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// Result is the output of one Predict call.
type Result struct {
	PredictedPerformance Tier               `json:"predicted_performance"`
	RiskScore            float64            `json:"risk_score"`
	Recommendations      []string           `json:"recommendations"`
	FeatureImportance    map[string]float64 `json:"feature_importance"`
}

const (
	HighThreshold   = 85.0
	MediumThreshold = 70.0
)

var (
	highProbabilities   = Probabilities{Low: 0.10, Medium: 0.20, High: 0.70}
	mediumProbabilities = Probabilities{Low: 0.20, Medium: 0.60, High: 0.20}
	lowProbabilities    = Probabilities{Low: 0.70, Medium: 0.20, High: 0.10}
)

// Score is the weighted composite of the seven features. GPA is scaled by
// 20 so a 0-4 value weighs in next to the 0-100 features; stored
// predictions depend on these exact weights.
func Score(f Features) float64 {
	return f.AttendancePercentage*0.20 +
		f.InternalMarks*0.20 +
		f.AssignmentScores*0.15 +
		f.LabPerformance*0.15 +
		f.PreviousGPA*20 +
		f.StudyHours*0.5 +
		f.ParticipationMetrics*0.10
}

// Classify buckets a score. Lower bounds are inclusive and there is no
// upper clamp: any score >= 85 gets the same High triple.
func Classify(score float64) (Tier, Probabilities) {
	switch {
	case score >= HighThreshold:
		return TierHigh, highProbabilities
	case score >= MediumThreshold:
		return TierMedium, mediumProbabilities
	default:
		return TierLow, lowProbabilities
	}
}

// Risk is P(Low).
func Risk(p Probabilities) float64 {
	return p.Low
}

// Predict runs the full pipeline on already normalized features.
func Predict(f Features) Result {
	tier, probs := Classify(Score(f))
	return Result{
		PredictedPerformance: tier,
		RiskScore:            Risk(probs),
		Recommendations:      Recommend(tier, f),
		FeatureImportance:    FeatureImportance(),
	}
}

// PredictRaw normalizes loosely typed input before predicting.
func PredictRaw(raw map[string]any) Result {
	return Predict(Normalize(raw))
}
