package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/engine"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

// RiskAnalysisThreshold is stricter than engine.AtRiskThreshold: the risk
// report lists only students in the Low tier.
const RiskAnalysisThreshold = 0.7

type Distribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func (d *Distribution) add(t engine.Tier) {
	switch t {
	case engine.TierHigh:
		d.High++
	case engine.TierMedium:
		d.Medium++
	case engine.TierLow:
		d.Low++
	}
}

type DashboardPrediction struct {
	PredictedPerformance engine.Tier `json:"predicted_performance"`
	RiskScore            float64     `json:"risk_score"`
	Recommendations      []string    `json:"recommendations"`
}

type DashboardRow struct {
	Student    *types.Student       `json:"student"`
	Prediction *DashboardPrediction `json:"prediction"`
}

type DashboardStats struct {
	TotalStudents           int `json:"total_students"`
	StudentsWithPredictions int `json:"students_with_predictions"`
	AtRiskStudents          int `json:"at_risk_students"`
	HighPerformers          int `json:"high_performers"`
}

type Dashboard struct {
	Students []DashboardRow `json:"students"`
	Stats    DashboardStats `json:"stats"`
}

type Stats struct {
	TotalStudents           int          `json:"total_students"`
	StudentsWithPredictions int          `json:"students_with_predictions"`
	PerformanceDistribution Distribution `json:"performance_distribution"`
	AverageRiskScore        float64      `json:"average_risk_score"`
	AverageGPA              float64      `json:"average_gpa"`
	AtRiskCount             int          `json:"at_risk_count"`
}

type TrendPoint struct {
	Year                    int          `json:"year"`
	AverageGPA              float64      `json:"average_gpa"`
	AttendanceRate          float64      `json:"attendance_rate"`
	TotalStudents           int          `json:"total_students"`
	PerformanceDistribution Distribution `json:"performance_distribution"`
}

type PerformanceTrends struct {
	Trends []TrendPoint `json:"trends"`
}

type AtRiskStudent struct {
	StudentID            uuid.UUID        `json:"student_id"`
	Name                 string           `json:"name"`
	Email                string           `json:"email"`
	RiskScore            float64          `json:"risk_score"`
	RiskLevel            engine.RiskLevel `json:"risk_level"`
	PredictedPerformance engine.Tier      `json:"predicted_performance"`
	GPA                  float64          `json:"gpa"`
	AttendancePercentage float64          `json:"attendance_percentage"`
	Recommendations      []string         `json:"recommendations"`
}

type CohortPoint struct {
	Cohort                  string       `json:"cohort"`
	AverageGPA              float64      `json:"average_gpa"`
	GraduationRate          float64      `json:"graduation_rate"`
	TotalStudents           int          `json:"total_students"`
	PerformanceDistribution Distribution `json:"performance_distribution"`
}

type CohortComparison struct {
	Comparison []CohortPoint `json:"comparison"`
}

// AnalyticsService aggregates over every student and its current
// prediction. Superseded predictions never contribute.
type AnalyticsService interface {
	Dashboard(dbc dbctx.Context) (*Dashboard, error)
	Stats(dbc dbctx.Context) (*Stats, error)
	PerformanceTrends(dbc dbctx.Context) (*PerformanceTrends, error)
	RiskAnalysis(dbc dbctx.Context) ([]AtRiskStudent, error)
	CohortComparison(dbc dbctx.Context) (*CohortComparison, error)
}

type analyticsService struct {
	db             *gorm.DB
	log            *logger.Logger
	studentRepo    repos.StudentRepo
	predictionRepo repos.PredictionRepo
}

func NewAnalyticsService(db *gorm.DB, log *logger.Logger, studentRepo repos.StudentRepo, predictionRepo repos.PredictionRepo) AnalyticsService {
	serviceLog := log.With("service", "AnalyticsService")
	return &analyticsService{
		db:             db,
		log:            serviceLog,
		studentRepo:    studentRepo,
		predictionRepo: predictionRepo,
	}
}

type snapshot struct {
	students []*types.Student
	current  map[uuid.UUID]*types.Prediction
}

func (as *analyticsService) load(dbc dbctx.Context) (*snapshot, error) {
	students, err := as.studentRepo.List(dbc, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	current, err := as.predictionRepo.LatestAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("load current predictions: %w", err)
	}
	return &snapshot{students: students, current: current}, nil
}

func (as *analyticsService) Dashboard(dbc dbctx.Context) (*Dashboard, error) {
	snap, err := as.load(dbc)
	if err != nil {
		return nil, err
	}
	out := &Dashboard{Students: make([]DashboardRow, 0, len(snap.students))}
	out.Stats.TotalStudents = len(snap.students)
	for _, s := range snap.students {
		row := DashboardRow{Student: s}
		if p := snap.current[s.ID]; p != nil {
			row.Prediction = &DashboardPrediction{
				PredictedPerformance: p.PredictedPerformance,
				RiskScore:            p.RiskScore,
				Recommendations:      storedAdvice(as.log, p),
			}
			out.Stats.StudentsWithPredictions++
			if p.RiskScore >= engine.AtRiskThreshold {
				out.Stats.AtRiskStudents++
			}
			if p.PredictedPerformance == engine.TierHigh {
				out.Stats.HighPerformers++
			}
		}
		out.Students = append(out.Students, row)
	}
	return out, nil
}

func (as *analyticsService) Stats(dbc dbctx.Context) (*Stats, error) {
	snap, err := as.load(dbc)
	if err != nil {
		return nil, err
	}
	out := &Stats{TotalStudents: len(snap.students)}
	var riskSum, gpaSum float64
	for _, s := range snap.students {
		gpaSum += s.Features().PreviousGPA
		p := snap.current[s.ID]
		if p == nil {
			continue
		}
		out.StudentsWithPredictions++
		out.PerformanceDistribution.add(p.PredictedPerformance)
		riskSum += p.RiskScore
	}
	out.AtRiskCount = out.PerformanceDistribution.Low
	if out.StudentsWithPredictions > 0 {
		out.AverageRiskScore = round(riskSum/float64(out.StudentsWithPredictions), 3)
	}
	if out.TotalStudents > 0 {
		out.AverageGPA = round(gpaSum/float64(out.TotalStudents), 2)
	}
	return out, nil
}

type cohort struct {
	year          int
	total         int
	gpaSum        float64
	attendanceSum float64
	dist          Distribution
}

// cohorts groups students by enrollment year, ascending.
func (snap *snapshot) cohorts() []*cohort {
	byYear := map[int]*cohort{}
	for _, s := range snap.students {
		c := byYear[s.EnrollmentYear]
		if c == nil {
			c = &cohort{year: s.EnrollmentYear}
			byYear[s.EnrollmentYear] = c
		}
		f := s.Features()
		c.total++
		c.gpaSum += f.PreviousGPA
		c.attendanceSum += f.AttendancePercentage
		if p := snap.current[s.ID]; p != nil {
			c.dist.add(p.PredictedPerformance)
		}
	}
	out := make([]*cohort, 0, len(byYear))
	for _, c := range byYear {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].year < out[j].year })
	return out
}

func (as *analyticsService) PerformanceTrends(dbc dbctx.Context) (*PerformanceTrends, error) {
	snap, err := as.load(dbc)
	if err != nil {
		return nil, err
	}
	out := &PerformanceTrends{Trends: []TrendPoint{}}
	for _, c := range snap.cohorts() {
		out.Trends = append(out.Trends, TrendPoint{
			Year:                    c.year,
			AverageGPA:              round(c.gpaSum/float64(c.total), 2),
			AttendanceRate:          round(c.attendanceSum/float64(c.total), 1),
			TotalStudents:           c.total,
			PerformanceDistribution: c.dist,
		})
	}
	return out, nil
}

func (as *analyticsService) RiskAnalysis(dbc dbctx.Context) ([]AtRiskStudent, error) {
	snap, err := as.load(dbc)
	if err != nil {
		return nil, err
	}
	out := []AtRiskStudent{}
	for _, s := range snap.students {
		p := snap.current[s.ID]
		if p == nil || p.RiskScore < RiskAnalysisThreshold {
			continue
		}
		f := s.Features()
		out = append(out, AtRiskStudent{
			StudentID:            s.ID,
			Name:                 s.Name,
			Email:                s.Email,
			RiskScore:            p.RiskScore,
			RiskLevel:            p.RiskLevel(),
			PredictedPerformance: p.PredictedPerformance,
			GPA:                  f.PreviousGPA,
			AttendancePercentage: f.AttendancePercentage,
			Recommendations:      storedAdvice(as.log, p),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RiskScore > out[j].RiskScore })
	return out, nil
}

func (as *analyticsService) CohortComparison(dbc dbctx.Context) (*CohortComparison, error) {
	snap, err := as.load(dbc)
	if err != nil {
		return nil, err
	}
	out := &CohortComparison{Comparison: []CohortPoint{}}
	for _, c := range snap.cohorts() {
		out.Comparison = append(out.Comparison, CohortPoint{
			Cohort:                  strconv.Itoa(c.year),
			AverageGPA:              round(c.gpaSum/float64(c.total), 2),
			GraduationRate:          round(graduationRate(c.dist, c.total), 1),
			TotalStudents:           c.total,
			PerformanceDistribution: c.dist,
		})
	}
	return out, nil
}

// graduationRate is an estimate from the share of High and Medium students,
// capped at 95.
func graduationRate(d Distribution, total int) float64 {
	if total == 0 {
		return 75
	}
	share := float64(d.High+d.Medium) / float64(total)
	return math.Min(95, 75+share*20)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
