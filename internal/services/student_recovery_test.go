package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studentpulse-backend/internal/data/repos"
	"github.com/yungbote/studentpulse-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/dbctx"
)

// rejectingPredictionRepo fails every insert and delegates everything else.
type rejectingPredictionRepo struct {
	repos.PredictionRepo
}

func (rejectingPredictionRepo) Create(dbctx.Context, *types.Prediction) error {
	return errors.New("disk full")
}

func TestStudentWriteSurvivesPredictionFailure(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	metrics := observability.NewMetrics()
	students := repos.NewStudentRepo(db, log)
	history := repos.NewPredictionRepo(db, log)
	failing := rejectingPredictionRepo{PredictionRepo: history}

	notifier := NewStudentNotifier(&recordingEmitter{}, metrics)
	predictionSvc := NewPredictionService(db, log, students, failing, notifier, metrics)
	studentSvc := NewStudentService(db, log, repos.NewGormTxRunner(db), students, failing,
		repos.NewUserRepo(db, log), predictionSvc, notifier, metrics)

	out, err := studentSvc.Create(asAdmin(), weakInput("Rory", "rory@example.edu"))
	require.NoError(t, err)
	require.NotNil(t, out.Student)
	assert.Nil(t, out.Prediction)

	stored, err := students.GetByID(dbctx.Context{Ctx: ctx}, out.Student.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "rory@example.edu", stored.Email)

	out, err = studentSvc.Update(asAdmin(), out.Student.ID, StudentInput{Name: strPtr("Rory Vance")})
	require.NoError(t, err)
	assert.Nil(t, out.Prediction)

	stored, err = students.GetByID(dbctx.Context{Ctx: ctx}, out.Student.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Rory Vance", stored.Name)

	rows, err := history.ListByStudentID(dbctx.Context{Ctx: ctx}, out.Student.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	expected := `
# HELP studentpulse_prediction_failures_total Prediction generations that did not persist.
# TYPE studentpulse_prediction_failures_total counter
studentpulse_prediction_failures_total{source="create"} 1
studentpulse_prediction_failures_total{source="update"} 1
`
	require.NoError(t, promtest.GatherAndCompare(metrics.Registry(), strings.NewReader(expected),
		"studentpulse_prediction_failures_total"))
}
