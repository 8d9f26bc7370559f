package student

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studentpulse-backend/internal/engine"
)

// Student is the persisted academic record a prediction is computed from.
// Metrics are optional; missing ones fall back to engine defaults.
type Student struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         *uuid.UUID `gorm:"type:uuid;column:user_id;index" json:"user_id,omitempty"`
	Name           string     `gorm:"not null;column:name" json:"name"`
	Email          string     `gorm:"not null;uniqueIndex;column:email" json:"email"`
	Major          string     `gorm:"column:major" json:"major"`
	EnrollmentYear int        `gorm:"column:enrollment_year;index" json:"enrollment_year"`

	AttendancePercentage *float64 `gorm:"column:attendance_percentage" json:"attendance_percentage"`
	InternalMarks        *float64 `gorm:"column:internal_marks" json:"internal_marks"`
	AssignmentScores     *float64 `gorm:"column:assignment_scores" json:"assignment_scores"`
	LabPerformance       *float64 `gorm:"column:lab_performance" json:"lab_performance"`
	PreviousGPA          *float64 `gorm:"column:previous_gpa" json:"previous_gpa"`
	StudyHours           *float64 `gorm:"column:study_hours" json:"study_hours"`
	ParticipationMetrics *float64 `gorm:"column:participation_metrics" json:"participation_metrics"`

	// Stored for reporting only; never fed to the engine.
	SocioAcademicFactors datatypes.JSONMap `gorm:"column:socio_academic_factors" json:"socio_academic_factors,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Student) TableName() string { return "student" }

func (s *Student) Metrics() engine.PartialFeatures {
	return engine.PartialFeatures{
		AttendancePercentage: s.AttendancePercentage,
		InternalMarks:        s.InternalMarks,
		AssignmentScores:     s.AssignmentScores,
		LabPerformance:       s.LabPerformance,
		PreviousGPA:          s.PreviousGPA,
		StudyHours:           s.StudyHours,
		ParticipationMetrics: s.ParticipationMetrics,
	}
}

// Features is the normalized engine input for this record.
func (s *Student) Features() engine.Features {
	return engine.NormalizePartial(s.Metrics())
}

// ApplyMetrics overwrites only the metrics that are set in p.
func (s *Student) ApplyMetrics(p engine.PartialFeatures) {
	if p.AttendancePercentage != nil {
		s.AttendancePercentage = p.AttendancePercentage
	}
	if p.InternalMarks != nil {
		s.InternalMarks = p.InternalMarks
	}
	if p.AssignmentScores != nil {
		s.AssignmentScores = p.AssignmentScores
	}
	if p.LabPerformance != nil {
		s.LabPerformance = p.LabPerformance
	}
	if p.PreviousGPA != nil {
		s.PreviousGPA = p.PreviousGPA
	}
	if p.StudyHours != nil {
		s.StudyHours = p.StudyHours
	}
	if p.ParticipationMetrics != nil {
		s.ParticipationMetrics = p.ParticipationMetrics
	}
}
