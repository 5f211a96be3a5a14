package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fqms/fees-queue-api/internal/models"
)

func TestListCounters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	now := time.Now()
	accID := "a1"
	accName := "Meera"
	rows := sqlmock.NewRows([]string{"id", "counter_number", "counter_name", "active", "next_seq", "created_at", "updated_at", "accountant_id", "accountant_name"}).
		AddRow("c1", 1, "Counter A", true, int64(12), now, now, accID, accName).
		AddRow("c2", 2, "Counter B", false, int64(0), now, now, nil, nil)
	mock.ExpectQuery("FROM counters c").WillReturnRows(rows)

	counters, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, counters, 2)
	assert.Equal(t, "Counter A", counters[0].CounterName)
	require.NotNil(t, counters[0].AccountantName)
	assert.Equal(t, "Meera", *counters[0].AccountantName)
	assert.Nil(t, counters[1].AccountantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCounter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectExec("INSERT INTO counters").WillReturnResult(sqlmock.NewResult(1, 1))

	counter := &models.Counter{CounterNumber: 3, CounterName: "Counter C", Active: true}
	err := repo.Create(context.Background(), counter)
	require.NoError(t, err)
	assert.NotEmpty(t, counter.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveMissingCounter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectExec("UPDATE counters SET active").
		WithArgs("missing", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), "missing", false)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAssignAccountant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectExec("UPDATE accountants SET counter_id").
		WithArgs("a1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AssignAccountant(context.Background(), "c1", "a1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAccountantUnknownAccountant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectExec("UPDATE accountants SET counter_id").
		WithArgs("ghost", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM counters").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	err := repo.AssignAccountant(context.Background(), "c1", "ghost")
	assert.ErrorIs(t, err, ErrAccountantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAccountantUnknownCounter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectExec("UPDATE accountants SET counter_id").
		WithArgs("a1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM counters").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	err := repo.AssignAccountant(context.Background(), "missing", "a1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeTypeExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCounterRepository(db)

	mock.ExpectQuery("SELECT 1 FROM fee_types").
		WithArgs("ft1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.FeeTypeExists(context.Background(), "ft1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM fee_types").
		WithArgs("retired").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.FeeTypeExists(context.Background(), "retired")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
