package appointment

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/doctor"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	// StatusCancelled is only reported back; cancelled rows are deleted.
	StatusCancelled Status = "cancelled"
)

// Appointment is the single row a patient may hold. Time is wall-clock in
// the clinic location.
type Appointment struct {
	ID              int64
	PatientID       int64
	DoctorID        int64
	Time            time.Time
	Status          Status
	DurationMinutes int
	CalendarEventID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Detail is an appointment joined with its doctor.
type Detail struct {
	Appointment
	DoctorName string
	Department string
}

type SideEffectStatus string

const (
	SideEffectOK      SideEffectStatus = "ok"
	SideEffectSkipped SideEffectStatus = "skipped"
	SideEffectFailed  SideEffectStatus = "failed"
)

const (
	EffectSMS             = "sms"
	EffectCalendar        = "calendar"
	EffectCalendarRecord  = "calendar_event_id"
	EffectCalendarCleanup = "calendar_cleanup"
)

// SideEffect reports one post-commit step. A failed side effect never fails
// the operation that triggered it.
type SideEffect struct {
	Name   string
	Status SideEffectStatus
	Err    string
}

type BookRequest struct {
	DoctorQuery string
	// Date is optional free text; empty means today.
	Date        string
	Time        string
	PatientID   int64
	Phone       string
}

type BookResult struct {
	Appointment Appointment
	Doctor      doctor.Doctor
	Rescheduled bool
	SideEffects []SideEffect
}

func (r BookResult) Message() string {
	if r.Rescheduled {
		return "Appointment rescheduled successfully."
	}
	return "New appointment booked successfully."
}

type CancelRequest struct {
	DoctorName string
	Department string
	Date       string
	Time       string
	PatientID  int64
}

type CancelResult struct {
	AppointmentID int64
	Doctor        doctor.Doctor
	Time          time.Time
	SideEffects   []SideEffect
}
