package patient

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patientCols = []string{"id", "full_name", "dob", "phone_number", "status", "doctor_id"}

func TestPgRepositoryFindByPhoneDOB(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	dob := time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE phone_number = \$1 AND dob = \$2`).
		WithArgs("+919876543210", dob).
		WillReturnRows(pgxmock.NewRows(patientCols).
			AddRow(int64(7), "Asha Nair", dob, "+919876543210", StatusActive, int64(0)))
	mock.ExpectQuery(`WHERE phone_number = \$1 AND dob = \$2`).
		WithArgs("+919876543211", dob).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPgRepository(mock)
	p, err := repo.FindByPhoneDOB(context.Background(), "+919876543210", dob)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Asha Nair", p.FullName)

	_, err = repo.FindByPhoneDOB(context.Background(), "+919876543211", dob)
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	dob := time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO patients`).
		WithArgs("Asha Nair", dob, "+919876543210", StatusActive, UnassignedDoctorID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(12)))

	repo := NewPgRepository(mock)
	id, err := repo.Create(context.Background(), &Patient{
		FullName: "Asha Nair",
		DOB:      dob,
		Phone:    "+919876543210",
		Status:   StatusActive,
		DoctorID: UnassignedDoctorID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgRepositoryAssignDoctorKeepsPhoneWhenEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`COALESCE\(NULLIF\(\$3, ''\), phone_number\)`).
		WithArgs(int64(7), int64(3), "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE patients`).
		WithArgs(int64(8), int64(3), "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPgRepository(mock)
	require.NoError(t, repo.AssignDoctor(context.Background(), 7, 3, ""))
	assert.ErrorIs(t, repo.AssignDoctor(context.Background(), 8, 3, ""), ErrPatientNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
