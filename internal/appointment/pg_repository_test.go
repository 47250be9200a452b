package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/patient"
)

var ist = time.FixedZone("IST", 5*3600+1800)

var appointmentCols = []string{
	"id", "patient_id", "doctor_id", "appointment_time", "status", "duration",
	"calendar_event_id", "created_at", "updated_at",
}

func TestPgLatestForPatient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	stored := time.Date(2025, time.May, 30, 14, 0, 0, 0, time.UTC)
	created := time.Date(2025, time.May, 28, 4, 45, 0, 0, time.UTC)
	eventID := "evt-1"

	mock.ExpectQuery(`FROM appointments a\s+JOIN doctors d ON d.id = a.doctor_id\s+WHERE a.patient_id = \$1\s+ORDER BY a.appointment_time DESC`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(append(appointmentCols, "name", "department")).
			AddRow(int64(11), int64(7), int64(1), stored, StatusScheduled, 30, &eventID, created, created, "John Smith", "Cardiology"))

	repo := NewPgRepository(mock, ist)
	d, err := repo.LatestForPatient(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(11), d.ID)
	assert.Equal(t, "John Smith", d.DoctorName)
	assert.Equal(t, "Cardiology", d.Department)
	assert.Equal(t, StatusScheduled, d.Status)
	require.NotNil(t, d.CalendarEventID)
	assert.Equal(t, "evt-1", *d.CalendarEventID)

	// The stored wall clock is kept and placed in the clinic zone.
	assert.Equal(t, 14, d.Time.Hour())
	assert.Equal(t, ist, d.Time.Location())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgLatestForPatientNone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM appointments a`).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPgRepository(mock, ist).LatestForPatient(context.Background(), 7)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgSetCalendarEventIDMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE appointments\s+SET calendar_event_id = \$2`).
		WithArgs(int64(11), "evt-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewPgRepository(mock, ist).SetCalendarEventID(context.Background(), 11, "evt-2")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgWithTxInsertsFirstAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	dob := time.Date(1990, time.January, 2, 0, 0, 0, 0, time.UTC)
	at := time.Date(2025, time.May, 30, 14, 0, 0, 0, ist)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM patients\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "dob", "phone_number", "status", "doctor_id"}).
			AddRow(int64(7), "Asha Verma", dob, "+919876543210", patient.StatusActive, int64(0)))
	mock.ExpectQuery(`FROM appointments\s+WHERE patient_id = \$1\s+FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(int64(7), int64(1), time.Date(2025, time.May, 30, 14, 0, 0, 0, time.UTC), StatusScheduled, 30).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	repo := NewPgRepository(mock, ist)
	var id int64
	err = repo.WithTx(context.Background(), func(tx Tx) error {
		p, err := tx.LockPatient(context.Background(), 7)
		if err != nil {
			return err
		}
		assert.Equal(t, "+919876543210", p.Phone)

		existing, err := tx.LockAppointmentForPatient(context.Background(), 7)
		if err != nil {
			return err
		}
		assert.Nil(t, existing)

		id, err = tx.Insert(context.Background(), &Appointment{
			PatientID: 7, DoctorID: 1, Time: at, Status: StatusScheduled, DurationMinutes: 30,
		})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgWithTxRollsBackWhenExactMatchMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, time.May, 30, 14, 0, 0, 0, ist)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE patient_id = \$1 AND doctor_id = \$2 AND appointment_time = \$3\s+FOR UPDATE`).
		WithArgs(int64(7), int64(1), time.Date(2025, time.May, 30, 14, 0, 0, 0, time.UTC)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err = NewPgRepository(mock, ist).WithTx(context.Background(), func(tx Tx) error {
		_, err := tx.LockExactAppointment(context.Background(), 7, 1, at)
		return err
	})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRescheduleAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, time.June, 2, 14, 30, 0, 0, ist)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE appointments\s+SET doctor_id = \$2, appointment_time = \$3, status = \$4`).
		WithArgs(int64(11), int64(2), time.Date(2025, time.June, 2, 14, 30, 0, 0, time.UTC), StatusScheduled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM appointments WHERE id = \$1`).
		WithArgs(int64(11)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err = NewPgRepository(mock, ist).WithTx(context.Background(), func(tx Tx) error {
		if err := tx.Reschedule(context.Background(), 11, 2, at); err != nil {
			return err
		}
		return tx.Delete(context.Background(), 11)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgHasTemplateOutsideTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM doctor_availability WHERE doctor_id = \$1\)`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewPgRepository(mock, ist)
	ok, err := repo.HasTemplate(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
