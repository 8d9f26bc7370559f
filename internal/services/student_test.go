package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studentpulse-backend/internal/data/repos/testutil"
	"github.com/yungbote/studentpulse-backend/internal/engine"
	"github.com/yungbote/studentpulse-backend/internal/platform/apierr"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
	"github.com/yungbote/studentpulse-backend/internal/realtime"
)

func weakInput(name, email string) StudentInput {
	f := testutil.Weak
	year := 2023
	return StudentInput{
		Name:           strPtr(name),
		Email:          strPtr(email),
		Major:          strPtr("Physics"),
		EnrollmentYear: &year,
		Metrics: engine.PartialFeatures{
			AttendancePercentage: testutil.PtrFloat(f.AttendancePercentage),
			InternalMarks:        testutil.PtrFloat(f.InternalMarks),
			AssignmentScores:     testutil.PtrFloat(f.AssignmentScores),
			LabPerformance:       testutil.PtrFloat(f.LabPerformance),
			PreviousGPA:          testutil.PtrFloat(f.PreviousGPA),
			StudyHours:           testutil.PtrFloat(f.StudyHours),
			ParticipationMetrics: testutil.PtrFloat(f.ParticipationMetrics),
		},
	}
}

func TestCreateStudentGeneratesPrediction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, err := env.studentSvc.Create(ctx, weakInput("Dana", "Dana@Example.edu"))
	require.NoError(t, err)
	assert.Equal(t, "dana@example.edu", out.Student.Email)
	require.NotNil(t, out.Prediction)
	assert.Equal(t, engine.TierLow, out.Prediction.PredictedPerformance)
	recs, err := out.Prediction.RecommendationList()
	require.NoError(t, err)
	assert.Len(t, recs, 4)

	history, err := env.predictions.ListByStudentID(dbctx.Context{Ctx: ctx}, out.Student.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCreateStudentDefaultsMissingMetrics(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.studentSvc.Create(context.Background(), StudentInput{
		Name:  strPtr("Sparse"),
		Email: strPtr("sparse@example.edu"),
	})
	require.NoError(t, err)
	require.NotNil(t, out.Prediction)
	assert.Equal(t, engine.TierHigh, out.Prediction.PredictedPerformance)
}

func TestCreateStudentRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.studentSvc.Create(ctx, weakInput("First", "dup@example.edu"))
	require.NoError(t, err)

	_, err = env.studentSvc.Create(ctx, weakInput("Second", "DUP@example.edu"))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierr.StatusOf(err))

	n, err := env.students.Count(dbctx.Context{Ctx: ctx})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	all, err := env.predictions.ListAll(dbctx.Context{Ctx: ctx}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateStudentValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.studentSvc.Create(context.Background(), StudentInput{Email: strPtr("x@example.edu")})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
	_, err = env.studentSvc.Create(context.Background(), StudentInput{Name: strPtr("x")})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

func TestUpdateStudentIsPartialAndAppendsPrediction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.studentSvc.Create(ctx, weakInput("Eli", "eli@example.edu"))
	require.NoError(t, err)

	f := testutil.Strong
	out, err := env.studentSvc.Update(ctx, created.Student.ID, StudentInput{
		Metrics: engine.PartialFeatures{
			AttendancePercentage: testutil.PtrFloat(f.AttendancePercentage),
			InternalMarks:        testutil.PtrFloat(f.InternalMarks),
			AssignmentScores:     testutil.PtrFloat(f.AssignmentScores),
			LabPerformance:       testutil.PtrFloat(f.LabPerformance),
			PreviousGPA:          testutil.PtrFloat(f.PreviousGPA),
			StudyHours:           testutil.PtrFloat(f.StudyHours),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Eli", out.Student.Name)
	assert.Equal(t, "Physics", out.Student.Major)
	assert.InDelta(t, testutil.Weak.ParticipationMetrics, *out.Student.ParticipationMetrics, 1e-9)
	require.NotNil(t, out.Prediction)
	assert.Equal(t, engine.TierHigh, out.Prediction.PredictedPerformance)

	history, err := env.predictions.ListByStudentID(dbctx.Context{Ctx: ctx}, created.Student.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	current, err := env.predictionSvc.Current(dbctx.Context{Ctx: ctx}, created.Student.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Prediction.ID, current.ID)
}

func TestUpdateStudentWithNoChangesStillPredicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.studentSvc.Create(ctx, weakInput("Fay", "fay@example.edu"))
	require.NoError(t, err)

	_, err = env.studentSvc.Update(ctx, created.Student.ID, StudentInput{})
	require.NoError(t, err)
	history, err := env.predictions.ListByStudentID(dbctx.Context{Ctx: ctx}, created.Student.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Contains(t, env.emitter.events(realtime.AdminChannel), realtime.SSEEventStudentUpdated)
}

func TestUpdateStudentErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.studentSvc.Create(ctx, weakInput("Gus", "gus@example.edu"))
	require.NoError(t, err)
	other, err := env.studentSvc.Create(ctx, weakInput("Hal", "hal@example.edu"))
	require.NoError(t, err)

	_, err = env.studentSvc.Update(ctx, uuid.New(), StudentInput{})
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))

	_, err = env.studentSvc.Update(ctx, other.Student.ID, StudentInput{Email: strPtr("GUS@example.edu")})
	assert.Equal(t, http.StatusConflict, apierr.StatusOf(err))

	history, err := env.predictions.ListByStudentID(dbctx.Context{Ctx: ctx}, other.Student.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "rejected update must not predict")
}

func TestDeleteStudentRemovesPredictions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created, err := env.studentSvc.Create(ctx, weakInput("Ivy", "ivy@example.edu"))
	require.NoError(t, err)
	_, err = env.studentSvc.Update(ctx, created.Student.ID, StudentInput{})
	require.NoError(t, err)

	require.NoError(t, env.studentSvc.Delete(ctx, created.Student.ID))

	s, err := env.students.GetByID(dbctx.Context{Ctx: ctx}, created.Student.ID)
	require.NoError(t, err)
	assert.Nil(t, s)
	history, err := env.predictions.ListByStudentID(dbctx.Context{Ctx: ctx}, created.Student.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Contains(t, env.emitter.events(realtime.AdminChannel), realtime.SSEEventStudentDeleted)

	err = env.studentSvc.Delete(ctx, created.Student.ID)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestListStudentsWithCurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, err := env.studentSvc.Create(ctx, weakInput("Ann", "ann@example.edu"))
	require.NoError(t, err)
	testutil.SeedStudent(t, ctx, env.db, "bare@example.edu", testutil.Average)

	rows, err := env.studentSvc.List(dbctx.Context{Ctx: ctx}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, a.Student.ID, rows[0].Student.ID)
	require.NotNil(t, rows[0].Prediction)
	assert.Nil(t, rows[1].Prediction)

	page, err := env.studentSvc.List(dbctx.Context{Ctx: ctx}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bare@example.edu", page[0].Student.Email)
}

func TestUpsertMyAcademicDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, ctx, env.db, "self@example.edu", "")
	me := asStudent(u.ID, u.Email)

	created, err := env.studentSvc.UpsertMyAcademicDetails(me, StudentInput{
		Metrics: engine.PartialFeatures{PreviousGPA: testutil.PtrFloat(3.9)},
	})
	require.NoError(t, err)
	assert.Equal(t, "self@example.edu", created.Student.Email)
	assert.Equal(t, u.Name, created.Student.Name)
	require.NotNil(t, created.Student.UserID)
	assert.Equal(t, u.ID, *created.Student.UserID)

	updated, err := env.studentSvc.UpsertMyAcademicDetails(me, StudentInput{
		Email:   strPtr("spoof@example.edu"),
		Metrics: engine.PartialFeatures{StudyHours: testutil.PtrFloat(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, created.Student.ID, updated.Student.ID)
	assert.Equal(t, "self@example.edu", updated.Student.Email)
	assert.InDelta(t, 3.9, *updated.Student.PreviousGPA, 1e-9)

	mine, err := env.studentSvc.GetMine(dbctx.Context{Ctx: me})
	require.NoError(t, err)
	assert.Equal(t, created.Student.ID, mine.ID)
}

func TestUpsertLinksRecordFoundByEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pre := testutil.SeedStudent(t, ctx, env.db, "late@example.edu", testutil.Average)
	u := testutil.SeedUser(t, ctx, env.db, "late@example.edu", "")

	out, err := env.studentSvc.UpsertMyAcademicDetails(asStudent(u.ID, u.Email), StudentInput{})
	require.NoError(t, err)
	assert.Equal(t, pre.ID, out.Student.ID)
	require.NotNil(t, out.Student.UserID)
	assert.Equal(t, u.ID, *out.Student.UserID)
}

func TestGetStudentAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := testutil.SeedStudent(t, ctx, env.db, "mine@example.edu", testutil.Average)

	_, err := env.studentSvc.Get(dbctx.Context{Ctx: asStudent(uuid.New(), "mine@example.edu")}, s.ID)
	assert.NoError(t, err)
	_, err = env.studentSvc.Get(dbctx.Context{Ctx: asStudent(uuid.New(), "else@example.edu")}, s.ID)
	assert.Equal(t, http.StatusForbidden, apierr.StatusOf(err))
	_, err = env.studentSvc.GetWithCurrent(dbctx.Context{Ctx: ctx}, uuid.New())
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}
