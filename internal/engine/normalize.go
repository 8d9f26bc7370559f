package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	FeatureAttendance    = "attendance_percentage"
	FeatureInternalMarks = "internal_marks"
	FeatureAssignments   = "assignment_scores"
	FeatureLab           = "lab_performance"
	FeaturePreviousGPA   = "previous_gpa"
	FeatureStudyHours    = "study_hours"
	FeatureParticipation = "participation_metrics"
)

// DefaultFeatures substitute for any missing or unparsable value.
var DefaultFeatures = Features{
	AttendancePercentage: 75,
	InternalMarks:        70,
	AssignmentScores:     75,
	LabPerformance:       70,
	PreviousGPA:          3.0,
	StudyHours:           20,
	ParticipationMetrics: 75,
}

// PartialFeatures is the optional-per-field form submitted by callers and
// stored on student records.
type PartialFeatures struct {
	AttendancePercentage *float64 `json:"attendance_percentage,omitempty" yaml:"attendance_percentage,omitempty"`
	InternalMarks        *float64 `json:"internal_marks,omitempty" yaml:"internal_marks,omitempty"`
	AssignmentScores     *float64 `json:"assignment_scores,omitempty" yaml:"assignment_scores,omitempty"`
	LabPerformance       *float64 `json:"lab_performance,omitempty" yaml:"lab_performance,omitempty"`
	PreviousGPA          *float64 `json:"previous_gpa,omitempty" yaml:"previous_gpa,omitempty"`
	StudyHours           *float64 `json:"study_hours,omitempty" yaml:"study_hours,omitempty"`
	ParticipationMetrics *float64 `json:"participation_metrics,omitempty" yaml:"participation_metrics,omitempty"`
}

// Normalize extracts the seven features from loosely typed input. It never
// fails and never clamps: out-of-range numbers pass through unchanged.
func Normalize(raw map[string]any) Features {
	d := DefaultFeatures
	return Features{
		AttendancePercentage: numberOr(raw[FeatureAttendance], d.AttendancePercentage),
		InternalMarks:        numberOr(raw[FeatureInternalMarks], d.InternalMarks),
		AssignmentScores:     numberOr(raw[FeatureAssignments], d.AssignmentScores),
		LabPerformance:       numberOr(raw[FeatureLab], d.LabPerformance),
		PreviousGPA:          numberOr(raw[FeaturePreviousGPA], d.PreviousGPA),
		StudyHours:           numberOr(raw[FeatureStudyHours], d.StudyHours),
		ParticipationMetrics: numberOr(raw[FeatureParticipation], d.ParticipationMetrics),
	}
}

func NormalizePartial(p PartialFeatures) Features {
	d := DefaultFeatures
	return Features{
		AttendancePercentage: ptrOr(p.AttendancePercentage, d.AttendancePercentage),
		InternalMarks:        ptrOr(p.InternalMarks, d.InternalMarks),
		AssignmentScores:     ptrOr(p.AssignmentScores, d.AssignmentScores),
		LabPerformance:       ptrOr(p.LabPerformance, d.LabPerformance),
		PreviousGPA:          ptrOr(p.PreviousGPA, d.PreviousGPA),
		StudyHours:           ptrOr(p.StudyHours, d.StudyHours),
		ParticipationMetrics: ptrOr(p.ParticipationMetrics, d.ParticipationMetrics),
	}
}

func ptrOr(v *float64, def float64) float64 {
	if v == nil || !finite(*v) {
		return def
	}
	return *v
}

func numberOr(v any, def float64) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return def
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case *float64:
		return ptrOr(t, def)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if !finite(f) {
		return def
	}
	return f
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
