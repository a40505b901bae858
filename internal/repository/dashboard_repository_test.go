package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardCycleAggregate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM cycles WHERE company_id = $1 AND status = 'completed'")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"completed", "approved", "average_score"}).AddRow(4, 3, 78.5))

	agg, err := repo.CycleAggregate(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 4, agg.Completed)
	assert.Equal(t, 3, agg.Approved)
	assert.Equal(t, 78.5, *agg.AverageScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardUsersByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role AS key, COUNT(*) AS count FROM users")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("student", 12).AddRow("trainer", 2))

	rows, err := repo.UsersByRole(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 12, rows[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
