package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridtrain/eval-api/internal/models"
)

var (
	lockCycleSQL   = regexp.QuoteMeta("SELECT " + cycleColumns + " FROM cycles WHERE id = $1 FOR UPDATE")
	cycleRowFields = []string{"id", "company_id", "student_id", "trainer_id", "status", "progress", "min_passing_score"}
	eventRowFields = []string{"id", "cycle_id", "sequence", "status", "score", "max_score", "weight"}
)

func lockedCycleRow() *sqlmock.Rows {
	return sqlmock.NewRows(cycleRowFields).AddRow("cy1", "c1", "s1", "t1", "in_progress", 50, 70)
}

func TestEventUpdateLocksCycleAndRecomputesFromCommittedEvents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCycleSQL).WithArgs("cy1").WillReturnRows(lockedCycleRow())
	mock.ExpectExec("UPDATE events SET").WillReturnResult(sqlmock.NewResult(0, 1))
	// e2 was graded by another request that committed first.
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE cycle_id = $1 ORDER BY sequence ASC")).
		WithArgs("cy1").
		WillReturnRows(sqlmock.NewRows(eventRowFields).
			AddRow("e1", "cy1", 1, "pass", 7, 10, 1).
			AddRow("e2", "cy1", 2, "pass", 9, 10, 1))
	mock.ExpectExec("UPDATE cycles SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen []models.Event
	score := 7.0
	cycle, err := repo.UpdateWithCycle(context.Background(),
		&models.Event{ID: "e1", CycleID: "cy1", Status: models.EventStatusPass, Score: &score, MaxScore: 10},
		func(c *models.Cycle, events []models.Event) {
			seen = events
			c.Status = models.CycleStatusCompleted
			c.Progress = 100
		})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, models.EventStatusPass, seen[1].Status)
	assert.Equal(t, "c1", cycle.CompanyID)
	assert.Equal(t, models.CycleStatusCompleted, cycle.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCreateRollsBackWhenCycleWriteFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCycleSQL).WithArgs("cy1").WillReturnRows(lockedCycleRow())
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM events WHERE cycle_id").WillReturnRows(sqlmock.NewRows(eventRowFields))
	mock.ExpectExec("UPDATE cycles SET").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	event := &models.Event{CycleID: "cy1", Status: models.EventStatusPending, MaxScore: 10, Weight: 1, AttemptNumber: 1}
	_, err := repo.CreateWithCycle(context.Background(), event, func(*models.Cycle, []models.Event) {})
	require.Error(t, err)
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventWriteMissingCycle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCycleSQL).WithArgs("gone").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateWithCycle(context.Background(), &models.Event{ID: "e1", CycleID: "gone"}, func(*models.Cycle, []models.Event) {
		t.Fatal("recompute must not run without a cycle")
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteWithCycle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCycleSQL).WithArgs("cy1").WillReturnRows(lockedCycleRow())
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM events WHERE cycle_id").WillReturnRows(sqlmock.NewRows(eventRowFields))
	mock.ExpectExec("UPDATE cycles SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.DeleteWithCycle(context.Background(), &models.Event{ID: "e1", CycleID: "cy1"}, func(*models.Cycle, []models.Event) {})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteAlreadyGone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(lockCycleSQL).WithArgs("cy1").WillReturnRows(lockedCycleRow())
	mock.ExpectExec("DELETE FROM events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.DeleteWithCycle(context.Background(), &models.Event{ID: "e1", CycleID: "cy1"}, func(*models.Cycle, []models.Event) {})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventListByCycleOrdersBySequence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE cycle_id = $1 ORDER BY sequence ASC")).
		WithArgs("cy1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "cycle_id", "sequence", "status", "max_score", "weight"}).
			AddRow("e1", "cy1", 1, "pass", 10, 1).
			AddRow("e2", "cy1", 2, "pending", 10, 2))

	events, err := repo.ListByCycle(context.Background(), "cy1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventStatusPending, events[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
