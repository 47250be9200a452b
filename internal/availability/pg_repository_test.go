package availability

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slotCols = []string{"doctor_id", "day_of_week", "time_slot", "is_available"}

func micros(h, m int) pgtype.Time {
	return pgtype.Time{Microseconds: int64(h*60+m) * 60_000_000, Valid: true}
}

func TestPgRepositoryListDay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM doctor_availability\s+WHERE doctor_id = \$1 AND day_of_week = \$2\s+ORDER BY time_slot`).
		WithArgs(int64(1), "Mon").
		WillReturnRows(pgxmock.NewRows(slotCols).
			AddRow(int64(1), "Mon", micros(9, 0), true).
			AddRow(int64(1), "Mon", micros(14, 30), false))

	repo := NewPgRepository(mock)
	slots, err := repo.ListDay(context.Background(), 1, time.Monday)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, tod(9, 0), slots[0].Time)
	assert.True(t, slots[0].Open)
	assert.Equal(t, tod(14, 30), slots[1].Time)
	assert.Equal(t, time.Monday, slots[1].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositoryLockSlotMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(1), "Tue", micros(14, 0)).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPgRepository(mock)
	_, err = repo.LockSlot(context.Background(), 1, time.Tuesday, tod(14, 0))
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositorySetOpen(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE doctor_availability\s+SET is_available = \$4`).
		WithArgs(int64(1), "Fri", micros(10, 30), false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE doctor_availability`).
		WithArgs(int64(1), "Sat", micros(10, 30), true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPgRepository(mock)
	ok, err := repo.SetOpen(context.Background(), 1, time.Friday, tod(10, 30), false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetOpen(context.Background(), 1, time.Saturday, tod(10, 30), true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositoryTakeCapacity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE doctors\s+SET capacity = capacity - 1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE doctors\s+SET capacity = capacity - 1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPgRepository(mock)
	require.NoError(t, repo.TakeCapacity(context.Background(), 5))
	assert.ErrorIs(t, repo.TakeCapacity(context.Background(), 5), ErrNoCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositoryHasTemplate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewPgRepository(mock)
	ok, err := repo.HasTemplate(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
