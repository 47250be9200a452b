package appointment

import (
	"context"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/patient"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

var (
	ErrAppointmentNotFound   = apperr.New(apperr.KindNotFound, "appointment_not_found", "appointment not found for the specified details")
	ErrDoctorNotInDepartment = apperr.New(apperr.KindNotFound, "doctor_not_in_department", "doctor not found in the given department")
	ErrSlotBeingBooked       = apperr.New(apperr.KindConflict, "slot_being_booked", "slot is currently being booked, please retry")
	ErrMissingField          = apperr.New(apperr.KindValidation, "missing_field", "required field missing")
)

// Repository is the transactional store behind the coordinator.
type Repository interface {
	// WithTx runs fn in one transaction, committing only when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// LatestForPatient returns the chronologically latest appointment or
	// ErrAppointmentNotFound.
	LatestForPatient(ctx context.Context, patientID int64) (*Detail, error)
	SetCalendarEventID(ctx context.Context, appointmentID int64, eventID string) error

	// HasTemplate reports whether the doctor books by slot rather than capacity.
	HasTemplate(ctx context.Context, doctorID int64) (bool, error)
}

// Tx is the set of reads and writes a booking or cancellation performs.
// Lock order is patient, then appointment, then slot.
type Tx interface {
	LockPatient(ctx context.Context, patientID int64) (*patient.Patient, error)
	// LockAppointmentForPatient returns nil, nil when the patient has none.
	LockAppointmentForPatient(ctx context.Context, patientID int64) (*Appointment, error)
	// LockExactAppointment matches patient, doctor and exact time, or
	// returns ErrAppointmentNotFound.
	LockExactAppointment(ctx context.Context, patientID, doctorID int64, at time.Time) (*Appointment, error)

	HasTemplate(ctx context.Context, doctorID int64) (bool, error)
	LockSlot(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (*availability.Slot, error)
	SetSlotOpen(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay, open bool) (bool, error)
	TakeCapacity(ctx context.Context, doctorID int64) error
	ReleaseCapacity(ctx context.Context, doctorID int64) error

	Insert(ctx context.Context, a *Appointment) (int64, error)
	Reschedule(ctx context.Context, appointmentID, doctorID int64, at time.Time) error
	Delete(ctx context.Context, appointmentID int64) error

	AssignDoctor(ctx context.Context, patientID, doctorID int64, phone string) error
	UnassignDoctor(ctx context.Context, patientID int64) error
}
