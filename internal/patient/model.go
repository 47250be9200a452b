package patient

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

// UnassignedDoctorID marks a patient with no assigned doctor.
const UnassignedDoctorID int64 = 0

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Patient struct {
	ID       int64
	FullName string
	// DOB is a calendar date at UTC midnight.
	DOB      time.Time
	Phone    string
	Status   string
	DoctorID int64
}

var (
	ErrPatientNotFound = apperr.New(apperr.KindNotFound, "patient_not_found", "patient not found")
	ErrInvalidPhone    = apperr.New(apperr.KindValidation, "invalid_phone", "phone number is not a valid number")
	ErrMissingDOB      = apperr.New(apperr.KindValidation, "missing_dob", "date of birth is required")
	ErrMissingName     = apperr.New(apperr.KindValidation, "missing_name", "first_name and last_name are required")
)
