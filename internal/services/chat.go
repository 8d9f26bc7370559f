package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/ctxutil"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

type ChatIntent string

const (
	IntentAdminStats      ChatIntent = "admin_stats"
	IntentRisk            ChatIntent = "risk"
	IntentPerformance     ChatIntent = "performance"
	IntentRecommendations ChatIntent = "recommendations"
	IntentGreeting        ChatIntent = "greeting"
	IntentGeneral         ChatIntent = "general"
)

const limitedDataExplanation = "Limited data available"

type ChatResponse struct {
	Response          string     `json:"response"`
	Intent            ChatIntent `json:"intent"`
	Confidence        float64    `json:"confidence"`
	DataSources       []string   `json:"data_sources"`
	FollowUpQuestions []string   `json:"follow_up_questions"`
	Explanation       *string    `json:"explanation"`
}

// ChatService answers questions about the caller's own record with fixed
// templates. It only reads; it never triggers a prediction.
type ChatService interface {
	Respond(ctx context.Context, message string) (*ChatResponse, error)
}

type chatService struct {
	db             *gorm.DB
	log            *logger.Logger
	studentRepo    repos.StudentRepo
	predictionRepo repos.PredictionRepo
	analytics      AnalyticsService
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	studentRepo repos.StudentRepo,
	predictionRepo repos.PredictionRepo,
	analytics AnalyticsService,
) ChatService {
	serviceLog := log.With("service", "ChatService")
	return &chatService{
		db:             db,
		log:            serviceLog,
		studentRepo:    studentRepo,
		predictionRepo: predictionRepo,
		analytics:      analytics,
	}
}

// DetectIntent classifies message. Checks run in priority order and the
// first match wins.
func DetectIntent(message string, isAdmin bool) ChatIntent {
	msg := strings.ToLower(message)
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(msg, func(r rune) bool { return !unicode.IsLetter(r) }) {
		words[w] = true
	}
	switch {
	case isAdmin && containsAny(msg, "how many", "total", "stats"):
		return IntentAdminStats
	case strings.Contains(msg, "risk"):
		return IntentRisk
	case containsAny(msg, "performance", "grade", "gpa"):
		return IntentPerformance
	case containsAny(msg, "recommend", "improve", "suggest"):
		return IntentRecommendations
	case words["hello"] || words["hi"]:
		return IntentGreeting
	default:
		return IntentGeneral
	}
}

func (cs *chatService) Respond(ctx context.Context, message string) (*ChatResponse, error) {
	rd, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, apierr.Validation(CodeInvalidInput, errors.New("message is required"))
	}
	intent := DetectIntent(message, rd.IsAdmin())
	dbc := dbctx.Context{Ctx: ctx}

	if intent == IntentAdminStats {
		return cs.adminStats(dbc)
	}

	s, err := cs.findStudent(dbc, rd)
	if err != nil {
		return nil, err
	}
	var p *types.Prediction
	sources := []string{}
	if s != nil {
		sources = append(sources, "student")
		if p, err = cs.predictionRepo.LatestByStudentID(dbc, s.ID); err != nil {
			return nil, fmt.Errorf("load current prediction: %w", err)
		}
		if p != nil {
			sources = append(sources, "prediction")
		}
	}

	out := &ChatResponse{
		Intent:            intent,
		DataSources:       sources,
		FollowUpQuestions: studentFollowUps(intent),
		Response:          cs.studentAnswer(intent, s, p),
	}
	setConfidence(out, p != nil || intent == IntentGreeting || intent == IntentGeneral)
	cs.log.Debug("Chat answered", "intent", intent, "sources", sources)
	return out, nil
}

func (cs *chatService) findStudent(dbc dbctx.Context, rd *ctxutil.RequestData) (*types.Student, error) {
	s, err := cs.studentRepo.GetByUserID(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load student by user: %w", err)
	}
	if s == nil && rd.Email != "" {
		if s, err = cs.studentRepo.GetByEmail(dbc, rd.Email); err != nil {
			return nil, fmt.Errorf("load student by email: %w", err)
		}
	}
	return s, nil
}

func (cs *chatService) adminStats(dbc dbctx.Context) (*ChatResponse, error) {
	stats, err := cs.analytics.Stats(dbc)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Total students: %d\n", stats.TotalStudents)
	fmt.Fprintf(&b, "- Students with predictions: %d\n", stats.StudentsWithPredictions)
	fmt.Fprintf(&b, "- Average GPA: %.2f\n", stats.AverageGPA)
	fmt.Fprintf(&b, "- Performance: %d High, %d Medium, %d Low\n",
		stats.PerformanceDistribution.High,
		stats.PerformanceDistribution.Medium,
		stats.PerformanceDistribution.Low,
	)
	fmt.Fprintf(&b, "- At-risk students: %d", stats.AtRiskCount)
	out := &ChatResponse{
		Response:    b.String(),
		Intent:      IntentAdminStats,
		DataSources: []string{"students", "predictions"},
		FollowUpQuestions: []string{
			"Show high risk students",
			"Performance by cohort",
			"Attendance vs GPA",
		},
	}
	setConfidence(out, stats.TotalStudents > 0)
	return out, nil
}

func (cs *chatService) studentAnswer(intent ChatIntent, s *types.Student, p *types.Prediction) string {
	switch intent {
	case IntentGreeting:
		if s != nil {
			return fmt.Sprintf("Hello %s! Ask me about your risk score, your predicted performance or how to improve.", s.Name)
		}
		return "Hello! Ask me about your risk score, your predicted performance or how to improve."
	case IntentGeneral:
		return "I can answer questions about your risk score, predicted performance and recommendations."
	}
	if s == nil {
		return "No student record is linked to your account yet. Add your academic details first."
	}
	if p == nil {
		return "No prediction is available for your record yet."
	}
	switch intent {
	case IntentRisk:
		return fmt.Sprintf("Your current risk score is %.2f (%s risk). Predicted performance: %s.",
			p.RiskScore, p.RiskLevel(), p.PredictedPerformance)
	case IntentPerformance:
		f := s.Features()
		return fmt.Sprintf("Your predicted performance is %s.\n- GPA: %.2f\n- Attendance: %.1f%%\n- Study hours: %.1f/week\n- Internal marks: %.1f",
			p.PredictedPerformance, f.PreviousGPA, f.AttendancePercentage, f.StudyHours, f.InternalMarks)
	default:
		recs := storedAdvice(cs.log, p)
		if len(recs) == 0 {
			return "There are no recommendations on your current prediction."
		}
		return "Recommendations:\n- " + strings.Join(recs, "\n- ")
	}
}

func studentFollowUps(intent ChatIntent) []string {
	switch intent {
	case IntentRisk, IntentPerformance, IntentRecommendations:
		return []string{
			"Why is my risk score high?",
			"How can I improve my GPA?",
			"What is my predicted performance?",
		}
	default:
		return []string{"Ask another performance question"}
	}
}

func setConfidence(out *ChatResponse, grounded bool) {
	if grounded {
		out.Confidence = 0.9
		return
	}
	out.Confidence = 0.6
	explanation := limitedDataExplanation
	out.Explanation = &explanation
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
