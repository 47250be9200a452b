package doctor

import "github.com/hackgods/clinic-scheduling/internal/apperr"

// Doctor is a roster entry. Email doubles as the doctor's calendar id.
type Doctor struct {
	ID               int64
	Name             string
	Department       string
	Email            string
	AvailableTimings *string
	// Capacity is the legacy counter used when a doctor has no weekly template.
	Capacity *int
}

var (
	ErrDoctorNotFound     = apperr.New(apperr.KindNotFound, "doctor_not_found", "doctor not found")
	ErrDepartmentNotFound = apperr.New(apperr.KindNotFound, "department_not_found", "department not found")
)
