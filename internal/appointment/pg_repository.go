package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/patient"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// PgRepository stores appointments in Postgres. appointment_time is a
// timestamp without time zone; pgx hands it back in UTC, so reads re-attach
// the clinic location.
type PgRepository struct {
	db  db.Querier
	loc *time.Location
}

func NewPgRepository(q db.Querier, loc *time.Location) *PgRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PgRepository{db: q, loc: loc}
}

const appointmentColumns = `id, patient_id, doctor_id, appointment_time, status, duration, calendar_event_id, created_at, updated_at`

func wallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// naive drops the zone so the wall clock is what lands in the column.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func scanAppointment(row pgx.Row, loc *time.Location) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Time,
		&a.Status,
		&a.DurationMinutes,
		&a.CalendarEventID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.Time = wallClock(a.Time, loc)
	return &a, nil
}

func (r *PgRepository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.InTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&pgTx{
			tx:     tx,
			loc:    r.loc,
			slots:  availability.NewPgRepository(tx),
			people: patient.NewPgRepository(tx),
		})
	})
}

func (r *PgRepository) HasTemplate(ctx context.Context, doctorID int64) (bool, error) {
	return availability.NewPgRepository(r.db).HasTemplate(ctx, doctorID)
}

func (r *PgRepository) LatestForPatient(ctx context.Context, patientID int64) (*Detail, error) {
	row := r.db.QueryRow(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.appointment_time, a.status, a.duration,
		       a.calendar_event_id, a.created_at, a.updated_at, d.name, d.department
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_time DESC, a.id DESC
		LIMIT 1
	`, patientID)

	var d Detail
	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorID,
		&d.Time,
		&d.Status,
		&d.DurationMinutes,
		&d.CalendarEventID,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.DoctorName,
		&d.Department,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	d.Time = wallClock(d.Time, r.loc)
	return &d, nil
}

func (r *PgRepository) SetCalendarEventID(ctx context.Context, appointmentID int64, eventID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET calendar_event_id = $2, updated_at = now()
		WHERE id = $1
	`, appointmentID, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// pgTx binds the availability and patient repositories to one pgx.Tx.
type pgTx struct {
	tx     pgx.Tx
	loc    *time.Location
	slots  *availability.PgRepository
	people *patient.PgRepository
}

func (t *pgTx) LockPatient(ctx context.Context, patientID int64) (*patient.Patient, error) {
	return t.people.LockByID(ctx, patientID)
}

func (t *pgTx) LockAppointmentForPatient(ctx context.Context, patientID int64) (*Appointment, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		FOR UPDATE
	`, patientID)
	a, err := scanAppointment(row, t.loc)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, nil
	}
	return a, err
}

func (t *pgTx) LockExactAppointment(ctx context.Context, patientID, doctorID int64, at time.Time) (*Appointment, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1 AND doctor_id = $2 AND appointment_time = $3
		FOR UPDATE
	`, patientID, doctorID, naive(at))
	return scanAppointment(row, t.loc)
}

func (t *pgTx) HasTemplate(ctx context.Context, doctorID int64) (bool, error) {
	return t.slots.HasTemplate(ctx, doctorID)
}

func (t *pgTx) LockSlot(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (*availability.Slot, error) {
	return t.slots.LockSlot(ctx, doctorID, day, at)
}

func (t *pgTx) SetSlotOpen(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay, open bool) (bool, error) {
	return t.slots.SetOpen(ctx, doctorID, day, at, open)
}

func (t *pgTx) TakeCapacity(ctx context.Context, doctorID int64) error {
	return t.slots.TakeCapacity(ctx, doctorID)
}

func (t *pgTx) ReleaseCapacity(ctx context.Context, doctorID int64) error {
	return t.slots.ReleaseCapacity(ctx, doctorID)
}

func (t *pgTx) Insert(ctx context.Context, a *Appointment) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_time, status, duration, calendar_event_id)
		VALUES ($1, $2, $3, $4, $5, NULL)
		RETURNING id
	`, a.PatientID, a.DoctorID, naive(a.Time), a.Status, a.DurationMinutes).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (t *pgTx) Reschedule(ctx context.Context, appointmentID, doctorID int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments
		SET doctor_id = $2, appointment_time = $3, status = $4, updated_at = now()
		WHERE id = $1
	`, appointmentID, doctorID, naive(at), StatusScheduled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, appointmentID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, appointmentID)
	return err
}

func (t *pgTx) AssignDoctor(ctx context.Context, patientID, doctorID int64, phone string) error {
	return t.people.AssignDoctor(ctx, patientID, doctorID, phone)
}

func (t *pgTx) UnassignDoctor(ctx context.Context, patientID int64) error {
	return t.people.UnassignDoctor(ctx, patientID)
}
