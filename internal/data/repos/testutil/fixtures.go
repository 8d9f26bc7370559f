package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/engine"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	if role == "" {
		role = types.RoleStudent
	}
	u := &types.User{
		ID:       uuid.New(),
		Name:     "Test User",
		Email:    strings.ToLower(email),
		Password: "pw",
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedStudent(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, f engine.Features) *types.Student {
	tb.Helper()
	s := &types.Student{
		ID:                   uuid.New(),
		Name:                 "Student " + email,
		Email:                strings.ToLower(email),
		Major:                "Computer Science",
		EnrollmentYear:       2022,
		AttendancePercentage: PtrFloat(f.AttendancePercentage),
		InternalMarks:        PtrFloat(f.InternalMarks),
		AssignmentScores:     PtrFloat(f.AssignmentScores),
		LabPerformance:       PtrFloat(f.LabPerformance),
		PreviousGPA:          PtrFloat(f.PreviousGPA),
		StudyHours:           PtrFloat(f.StudyHours),
		ParticipationMetrics: PtrFloat(f.ParticipationMetrics),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return s
}

// SeedPrediction stores the engine result for f at the given time.
func SeedPrediction(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID uuid.UUID, f engine.Features, at time.Time) *types.Prediction {
	tb.Helper()
	p, err := types.NewPrediction(studentID, engine.Predict(f))
	if err != nil {
		tb.Fatalf("build prediction: %v", err)
	}
	p.ID = uuid.New()
	p.CreatedAt = at.UTC()
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed prediction: %v", err)
	}
	return p
}

// Strong scores High, Average Medium and Weak Low.
var (
	Strong = engine.Features{
		AttendancePercentage: 95,
		InternalMarks:        90,
		AssignmentScores:     88,
		LabPerformance:       85,
		PreviousGPA:          3.8,
		StudyHours:           25,
		ParticipationMetrics: 90,
	}
	Average = engine.Features{
		AttendancePercentage: 60,
		InternalMarks:        50,
		AssignmentScores:     40,
		LabPerformance:       40,
		PreviousGPA:          1.8,
		StudyHours:           6,
		ParticipationMetrics: 30,
	}
	Weak = engine.Features{
		AttendancePercentage: 50,
		InternalMarks:        40,
		AssignmentScores:     35,
		LabPerformance:       30,
		PreviousGPA:          1.2,
		StudyHours:           5,
		ParticipationMetrics: 20,
	}
)

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrFloat(v float64) *float64 { return &v }
