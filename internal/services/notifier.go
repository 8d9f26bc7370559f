package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
)

// StudentNotifier tells dashboards that a student's state changed. Payloads
// carry ids and headline values only; clients re-read the record.
type StudentNotifier interface {
	PredictionCreated(ctx context.Context, s *types.Student, p *types.Prediction)
	StudentUpdated(ctx context.Context, s *types.Student)
	StudentDeleted(ctx context.Context, studentID uuid.UUID, userID *uuid.UUID)
}

type studentNotifier struct {
	emit    SSEEmitter
	metrics *observability.Metrics
}

func NewStudentNotifier(emit SSEEmitter, metrics *observability.Metrics) StudentNotifier {
	return &studentNotifier{emit: emit, metrics: metrics}
}

func (n *studentNotifier) PredictionCreated(ctx context.Context, s *types.Student, p *types.Prediction) {
	if s == nil || p == nil {
		return
	}
	n.fanout(ctx, s.UserID, realtime.SSEEventPredictionCreated, map[string]any{
		"student_id":            s.ID,
		"prediction_id":         p.ID,
		"predicted_performance": p.PredictedPerformance,
		"risk_score":            p.RiskScore,
		"created_at":            p.CreatedAt,
	})
}

func (n *studentNotifier) StudentUpdated(ctx context.Context, s *types.Student) {
	if s == nil {
		return
	}
	n.fanout(ctx, s.UserID, realtime.SSEEventStudentUpdated, map[string]any{
		"student_id": s.ID,
	})
}

func (n *studentNotifier) StudentDeleted(ctx context.Context, studentID uuid.UUID, userID *uuid.UUID) {
	n.fanout(ctx, userID, realtime.SSEEventStudentDeleted, map[string]any{
		"student_id": studentID,
	})
}

func (n *studentNotifier) fanout(ctx context.Context, userID *uuid.UUID, event realtime.SSEEvent, data map[string]any) {
	if n == nil || n.emit == nil {
		return
	}
	if userID != nil && *userID != uuid.Nil {
		n.emit.Emit(ctx, realtime.SSEMessage{Channel: userID.String(), Event: event, Data: data})
	}
	n.emit.Emit(ctx, realtime.SSEMessage{Channel: realtime.AdminChannel, Event: event, Data: data})
	n.metrics.IncSSEEvent(string(event))
}
