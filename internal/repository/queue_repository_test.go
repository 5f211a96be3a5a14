package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fqms/fees-queue-api/internal/models"
)

func TestQueueInsertDrawsPositionFromCounterSequence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	rows := sqlmock.NewRows([]string{"queue_position"}).AddRow(int64(7))
	mock.ExpectQuery("INSERT INTO payments").
		WithArgs("p1", "s1", "TKN123456001", "c1", "ft1", 1500.0, "tuition", sqlmock.AnyArg()).
		WillReturnRows(rows)

	entry := &models.QueueEntry{
		ID:          "p1",
		StudentID:   "s1",
		TokenNumber: "TKN123456001",
		CounterID:   "c1",
		FeeTypeID:   "ft1",
		Amount:      1500.0,
		Description: "tuition",
	}
	err := repo.Insert(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.QueuePosition)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueInsertInactiveCounter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	// The CTE updates zero counter rows, so the INSERT selects nothing.
	mock.ExpectQuery("INSERT INTO payments").WillReturnError(sql.ErrNoRows)

	entry := &models.QueueEntry{
		ID:          "p1",
		StudentID:   "s1",
		TokenNumber: "TKN123456001",
		CounterID:   "closed",
		FeeTypeID:   "ft1",
		Amount:      100.0,
	}
	err := repo.Insert(context.Background(), entry)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestHasActiveEntry(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	mock.ExpectQuery("SELECT 1 FROM payments").
		WithArgs("s1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.HasActiveEntry(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM payments").
		WithArgs("s1", "c2").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.HasActiveEntry(context.Background(), "s1", "c2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveByCounterCarriesEffectiveRank(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "student_id", "token_number", "counter_id", "fee_type_id", "amount", "description",
		"queue_position", "status", "assigned_to", "removal_reason", "processed_at", "removed_at", "created_at", "updated_at",
		"student_name", "roll_number", "counter_name", "counter_number", "fee_type", "effective_rank",
	}).
		AddRow("p1", "s1", "TKN000001001", "c1", "ft1", 100.0, "", int64(3), "pending", nil, nil, nil, nil, now, now,
			"Asha", "21CS001", "Counter A", 1, "Tuition", int64(1)).
		AddRow("p2", "s2", "TKN000002002", "c1", "ft1", 200.0, "", int64(9), "pending", nil, nil, nil, nil, now, now,
			"Ravi", "21CS002", "Counter A", 1, "Tuition", int64(2))
	mock.ExpectQuery("ROW_NUMBER").WithArgs("c1").WillReturnRows(rows)

	entries, err := repo.ActiveByCounter(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Positions may have gaps; ranks are dense.
	assert.Equal(t, int64(3), entries[0].QueuePosition)
	assert.Equal(t, int64(1), *entries[0].EffectiveRank)
	assert.Equal(t, int64(9), entries[1].QueuePosition)
	assert.Equal(t, int64(2), *entries[1].EffectiveRank)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteLosesRaceOnTerminalEntry(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE payments SET status = 'completed'")).
		WithArgs("p1", "a1", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	err := repo.Complete(context.Background(), "p1", "a1", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestComplete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	at := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE payments SET status = 'completed'")).
		WithArgs("p1", "a1", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))

	err := repo.Complete(context.Background(), "p1", "a1", at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositionDrawsFreshPosition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	at := time.Now().UTC()
	mock.ExpectQuery("UPDATE payments SET queue_position").
		WithArgs("p1", at).
		WillReturnRows(sqlmock.NewRows([]string{"queue_position"}).AddRow(int64(42)))

	position, err := repo.Reposition(context.Background(), "p1", at)
	require.NoError(t, err)
	assert.Equal(t, int64(42), position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveRecordsReason(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	at := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE payments SET status = 'removed'")).
		WithArgs("p1", "student left", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))

	err := repo.Remove(context.Background(), "p1", "student left", at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsForCounter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	dayStart := time.Date(2024, 4, 2, 0, 0, 0, 0, time.Local)
	rows := sqlmock.NewRows([]string{"queue_count", "processed_today", "revenue_today"}).
		AddRow(4, 11, 23750.0)
	mock.ExpectQuery("FROM payments WHERE counter_id").
		WithArgs("c1", dayStart).
		WillReturnRows(rows)

	stats, err := repo.StatsForCounter(context.Background(), "c1", dayStart)
	require.NoError(t, err)
	assert.Equal(t, "c1", stats.CounterID)
	assert.Equal(t, 4, stats.QueueCount)
	assert.Equal(t, 11, stats.ProcessedToday)
	assert.Equal(t, 23750.0, stats.RevenueToday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsForStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	rows := sqlmock.NewRows([]string{"total_payments", "paid_amount", "pending_amount"}).
		AddRow(6, 9000.0, 1500.0)
	mock.ExpectQuery("FROM payments WHERE student_id").
		WithArgs("s1").
		WillReturnRows(rows)

	stats, err := repo.StatsForStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalPayments)
	assert.Equal(t, 9000.0, stats.PaidAmount)
	assert.Equal(t, 1500.0, stats.PendingAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
