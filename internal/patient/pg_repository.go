package patient

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-scheduling/internal/db"
)

type PgRepository struct {
	db db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{db: q}
}

const patientColumns = `id, full_name, dob, phone_number, status, doctor_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.DOB,
		&p.Phone,
		&p.Status,
		&p.DoctorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

// LockByID reads the patient row with FOR UPDATE. It serialises concurrent
// bookings of the same patient.
func (r *PgRepository) LockByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) FindByPhoneDOB(ctx context.Context, phone string, dob time.Time) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE phone_number = $1 AND dob = $2
		ORDER BY id
		LIMIT 1
	`, phone, dob)
	return scanPatient(row)
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO patients (full_name, dob, phone_number, status, doctor_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, p.FullName, p.DOB, p.Phone, p.Status, p.DoctorID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AssignDoctor points the patient at doctorID. An empty phone keeps the
// stored number.
func (r *PgRepository) AssignDoctor(ctx context.Context, id, doctorID int64, phone string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE patients
		SET doctor_id = $2,
		    phone_number = COALESCE(NULLIF($3, ''), phone_number)
		WHERE id = $1
	`, id, doctorID, phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) UnassignDoctor(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE patients
		SET doctor_id = $2
		WHERE id = $1
	`, id, UnassignedDoctorID)
	return err
}
