package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridtrain/eval-api/internal/models"
)

func TestScenarioDeleteCascadesSteps(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScenarioRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM simulator_sessions WHERE scenario_id = $1")).
		WithArgs("sc1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scenario_steps WHERE scenario_id = $1")).WithArgs("sc1").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM simulator_scenarios WHERE id = $1")).WithArgs("sc1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "sc1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScenarioDeleteRefusedWithSessions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScenarioRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM simulator_sessions WHERE scenario_id = $1")).
		WithArgs("sc1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), "sc1"), ErrHasDependents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScenarioCreateWithSteps(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScenarioRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO simulator_scenarios").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO scenario_steps").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO scenario_steps").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	scenario := &models.SimulatorScenario{
		Title:      "Feeder fault",
		Category:   models.CategoryFault,
		Difficulty: models.DifficultyMedium,
		Steps:      []models.ScenarioStep{{StepOrder: 1, Points: 10}, {StepOrder: 2, Points: 5}},
	}
	require.NoError(t, repo.Create(context.Background(), scenario))
	assert.Equal(t, scenario.ID, scenario.Steps[1].ScenarioID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScenarioListIncludesGlobal(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScenarioRepository(db)

	category := models.CategoryOverload
	mock.ExpectQuery(regexp.QuoteMeta("FROM simulator_scenarios WHERE (company_id = $1 OR company_id IS NULL) AND category = $2 ORDER BY title ASC")).
		WithArgs("c1", category).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "title", "category", "difficulty", "passing_score"}).
			AddRow("sc1", nil, "Global overload", "Overload", "Hard", 70))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM simulator_scenarios WHERE (company_id = $1 OR company_id IS NULL) AND category = $2")).
		WithArgs("c1", category).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	scenarios, total, err := repo.List(context.Background(), models.ScenarioFilter{CompanyID: "c1", Category: &category})
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.True(t, scenarios[0].Global())
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStepOrderTaken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScenarioRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM scenario_steps")).
		WithArgs("sc1", 2, "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.StepOrderTaken(context.Background(), "sc1", 2, "")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScenarioUpdatesReportMissingRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScenarioRepository(db)

	mock.ExpectExec("UPDATE simulator_scenarios SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE scenario_steps SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.SimulatorScenario{ID: "sc-gone", Title: "x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	err = repo.UpdateStep(context.Background(), &models.ScenarioStep{ID: "st-gone", Title: "x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaxAwardedForStep(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(points_awarded), 0) FROM session_step_results WHERE step_id = $1")).
		WithArgs("st-3").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(20.0))

	awarded, err := NewScenarioRepository(db).MaxAwardedForStep(context.Background(), "st-3")
	require.NoError(t, err)
	assert.Equal(t, 20.0, awarded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
