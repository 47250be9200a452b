package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// PgRepository works against a pool or, for the write methods, against the
// pgx.Tx of the caller's transaction.
type PgRepository struct {
	db db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{db: q}
}

const slotColumns = `doctor_id, day_of_week, time_slot, is_available`

func pgTime(t textnorm.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Micros(), Valid: true}
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var (
		s   Slot
		day string
		ts  pgtype.Time
	)
	if err := row.Scan(&s.DoctorID, &day, &ts, &s.Open); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	wd, err := ParseDayAbbrev(day)
	if err != nil {
		return nil, err
	}
	s.Day = wd
	s.Time = textnorm.TimeOfDayFromMicros(ts.Microseconds)
	return &s, nil
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListTemplate(ctx context.Context, doctorID int64) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1
		ORDER BY array_position(ARRAY['Sun','Mon','Tue','Wed','Thu','Fri','Sat'], day_of_week), time_slot
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *PgRepository) ListDay(ctx context.Context, doctorID int64, day time.Weekday) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1 AND day_of_week = $2
		ORDER BY time_slot
	`, doctorID, DayAbbrev(day))
	if err != nil {
		return nil, err
	}
	return collectSlots(rows)
}

func (r *PgRepository) GetSlot(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1 AND day_of_week = $2 AND time_slot = $3
	`, doctorID, DayAbbrev(day), pgTime(at))
	return scanSlot(row)
}

// LockSlot reads the slot row with FOR UPDATE. Only meaningful inside a
// transaction.
func (r *PgRepository) LockSlot(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM doctor_availability
		WHERE doctor_id = $1 AND day_of_week = $2 AND time_slot = $3
		FOR UPDATE
	`, doctorID, DayAbbrev(day), pgTime(at))
	return scanSlot(row)
}

// SetOpen flips the slot flag. A missing row is not an error; the caller
// decides whether that matters.
func (r *PgRepository) SetOpen(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay, open bool) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE doctor_availability
		SET is_available = $4
		WHERE doctor_id = $1 AND day_of_week = $2 AND time_slot = $3
	`, doctorID, DayAbbrev(day), pgTime(at), open)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRepository) HasTemplate(ctx context.Context, doctorID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doctor_availability WHERE doctor_id = $1)
	`, doctorID).Scan(&exists)
	return exists, err
}

// UpsertSlot provisions one template row.
func (r *PgRepository) UpsertSlot(ctx context.Context, s Slot) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO doctor_availability (`+slotColumns+`)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doctor_id, day_of_week, time_slot)
		DO UPDATE SET is_available = EXCLUDED.is_available
	`, s.DoctorID, DayAbbrev(s.Day), pgTime(s.Time), s.Open)
	if err != nil {
		return fmt.Errorf("upsert slot %d/%s/%s: %w", s.DoctorID, DayAbbrev(s.Day), s.Time, err)
	}
	return nil
}

// TakeCapacity decrements the legacy capacity counter of a doctor without a
// weekly template. A NULL capacity means unlimited. ErrNoCapacity is returned
// when nothing is left.
func (r *PgRepository) TakeCapacity(ctx context.Context, doctorID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE doctors
		SET capacity = capacity - 1
		WHERE id = $1 AND (capacity IS NULL OR capacity > 0)
	`, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoCapacity
	}
	return nil
}

func (r *PgRepository) ReleaseCapacity(ctx context.Context, doctorID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE doctors
		SET capacity = capacity + 1
		WHERE id = $1 AND capacity IS NOT NULL
	`, doctorID)
	return err
}
