package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/testutil"
	"github.com/yungbote/studentpulse-backend/internal/engine"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
)

func TestGenerateStoresAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	s := testutil.SeedStudent(t, ctx, env.db, "strong@example.edu", testutil.Strong)
	s.UserID = &userID

	p, err := env.predictionSvc.Generate(dbctx.Context{Ctx: ctx}, s, SourceCreate)
	require.NoError(t, err)
	assert.Equal(t, engine.TierHigh, p.PredictedPerformance)
	assert.InDelta(t, 0.1, p.RiskScore, 1e-9)
	recs, err := p.RecommendationList()
	require.NoError(t, err)
	assert.Equal(t, []string{engine.AdvicePraise, engine.AdviceLeadership}, recs)

	current, err := env.predictionSvc.Current(dbctx.Context{Ctx: ctx}, s.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, p.ID, current.ID)

	assert.Equal(t, []realtime.SSEEvent{realtime.SSEEventPredictionCreated}, env.emitter.events(userID.String()))
	assert.Equal(t, []realtime.SSEEvent{realtime.SSEEventPredictionCreated}, env.emitter.events(realtime.AdminChannel))
}

func TestCurrentWithoutPrediction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := testutil.SeedStudent(t, ctx, env.db, "fresh@example.edu", testutil.Average)

	p, err := env.predictionSvc.Current(dbctx.Context{Ctx: ctx}, s.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = env.predictionSvc.Current(dbctx.Context{Ctx: ctx}, uuid.New())
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestCurrentIsNewestAndHistoryOrdered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := testutil.SeedStudent(t, ctx, env.db, "hist@example.edu", testutil.Weak)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	older := testutil.SeedPrediction(t, ctx, env.db, s.ID, testutil.Weak, base)
	newer := testutil.SeedPrediction(t, ctx, env.db, s.ID, testutil.Strong, base.Add(time.Hour))

	current, err := env.predictionSvc.Current(dbctx.Context{Ctx: ctx}, s.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, current.ID)
	assert.Equal(t, engine.TierHigh, current.PredictedPerformance)

	history, err := env.predictionSvc.History(dbctx.Context{Ctx: ctx}, s.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, newer.ID, history[0].ID)
	assert.Equal(t, older.ID, history[1].ID)
}

func TestReadAccessRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	s := testutil.SeedStudent(t, ctx, env.db, "owner@example.edu", testutil.Average)
	s.UserID = &owner
	require.NoError(t, env.students.Update(dbctx.Context{Ctx: ctx}, s))

	_, err := env.predictionSvc.Current(dbctx.Context{Ctx: asStudent(owner, "")}, s.ID)
	assert.NoError(t, err)

	_, err = env.predictionSvc.Current(dbctx.Context{Ctx: asStudent(uuid.New(), "OWNER@example.edu")}, s.ID)
	assert.NoError(t, err, "email match grants access")

	_, err = env.predictionSvc.History(dbctx.Context{Ctx: asStudent(uuid.New(), "other@example.edu")}, s.ID)
	assert.Equal(t, http.StatusForbidden, apierr.StatusOf(err))

	_, err = env.predictionSvc.History(dbctx.Context{Ctx: asAdmin()}, s.ID)
	assert.NoError(t, err)
}

func TestPredictForStudent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := testutil.SeedStudent(t, ctx, env.db, "adhoc@example.edu", testutil.Strong)

	p, err := env.predictionSvc.PredictForStudent(dbctx.Context{Ctx: ctx}, s.ID, map[string]any{
		engine.FeatureAttendance:    50.0,
		engine.FeatureInternalMarks: "40",
		engine.FeatureAssignments:   35,
		engine.FeatureLab:           30,
		engine.FeaturePreviousGPA:   1.2,
		engine.FeatureStudyHours:    5,
		engine.FeatureParticipation: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.TierLow, p.PredictedPerformance)
	assert.InDelta(t, 0.7, p.RiskScore, 1e-9)

	// The stored record is untouched by an ad-hoc run.
	stored, err := env.students.GetByID(dbctx.Context{Ctx: ctx}, s.ID)
	require.NoError(t, err)
	assert.InDelta(t, 95, *stored.AttendancePercentage, 1e-9)

	_, err = env.predictionSvc.PredictForStudent(dbctx.Context{Ctx: ctx}, uuid.New(), nil)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestBackfillMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testutil.SeedStudent(t, ctx, env.db, "a@example.edu", testutil.Strong)
	b := testutil.SeedStudent(t, ctx, env.db, "b@example.edu", testutil.Average)
	c := testutil.SeedStudent(t, ctx, env.db, "c@example.edu", testutil.Weak)
	testutil.SeedPrediction(t, ctx, env.db, a.ID, testutil.Strong, time.Now())

	res, err := env.predictionSvc.BackfillMissing(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Scanned: 2, Generated: 2, Failed: 0}, res)

	current, err := env.predictions.LatestForStudents(dbctx.Context{Ctx: ctx}, []uuid.UUID{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	require.Len(t, current, 3)
	assert.Equal(t, engine.TierMedium, current[b.ID].PredictedPerformance)
	assert.Equal(t, engine.TierLow, current[c.ID].PredictedPerformance)

	again, err := env.predictionSvc.BackfillMissing(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, again.Scanned)
}
