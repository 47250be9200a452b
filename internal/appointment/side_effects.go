package appointment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/doctor"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

func (s *Service) bookedText(doc *doctor.Doctor, at time.Time) string {
	return fmt.Sprintf("Your appointment with %s from %s department has been booked on %s at %s. Please arrive 10 minutes early. -%s",
		doc.Name, doc.Department, at.Format("2006-01-02"), textnorm.TimeOfDayOf(at).Format12h(), s.cfg.ClinicName)
}

func (s *Service) cancelledText(doc *doctor.Doctor, at time.Time) string {
	return fmt.Sprintf("Your appointment with %s from %s department scheduled on %s at %s has been cancelled successfully. If you have questions, please contact the clinic. -%s",
		doc.Name, doc.Department, at.Format("2006-01-02"), textnorm.TimeOfDayOf(at).Format12h(), s.cfg.ClinicName)
}

func (s *Service) record(ctx context.Context, name string, err error) SideEffect {
	if err != nil {
		s.log.Warn("side effect failed", zap.String("effect", name), zap.Error(err))
		s.metrics.ObserveSideEffect(name, string(SideEffectFailed))
		return SideEffect{Name: name, Status: SideEffectFailed, Err: err.Error()}
	}
	s.metrics.ObserveSideEffect(name, string(SideEffectOK))
	return SideEffect{Name: name, Status: SideEffectOK}
}

func (s *Service) skipped(name, reason string) SideEffect {
	s.metrics.ObserveSideEffect(name, string(SideEffectSkipped))
	return SideEffect{Name: name, Status: SideEffectSkipped, Err: reason}
}

func (s *Service) sendSMS(ctx context.Context, to, body string) SideEffect {
	if s.sms == nil {
		return s.skipped(EffectSMS, "sms disabled")
	}
	if to == "" {
		return s.skipped(EffectSMS, "no phone number on file")
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SideEffectTimeout)
	defer cancel()
	return s.record(ctx, EffectSMS, s.sms.Send(ctx, to, s.cfg.TwilioFromNumber, body))
}

// syncCalendar mirrors a booking into the doctor's calendar. The event moves
// with a same-doctor reschedule; a doctor change deletes it from the old
// calendar and creates a new one. appt.CalendarEventID reflects the outcome.
func (s *Service) syncCalendar(ctx context.Context, appt *Appointment, doc *doctor.Doctor, previous *Appointment) []SideEffect {
	if s.calendar == nil {
		return []SideEffect{s.skipped(EffectCalendar, "calendar disabled")}
	}
	if doc.Email == "" {
		return []SideEffect{s.skipped(EffectCalendar, "doctor has no calendar")}
	}

	var effects []SideEffect
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SideEffectTimeout)
	defer cancel()

	oldID := ""
	if appt.CalendarEventID != nil {
		oldID = *appt.CalendarEventID
	}

	var (
		newID string
		err   error
	)
	switch {
	case oldID != "" && previous != nil && previous.DoctorID == doc.ID:
		newID, err = s.calendar.UpdateEvent(ctx, oldID, doc.Email, appt.Time, s.cfg.AppointmentDuration)
	default:
		if oldID != "" && previous != nil {
			effects = append(effects, s.cleanupEvent(ctx, previous.DoctorID, oldID))
		}
		summary := fmt.Sprintf("Appointment with patient %d", appt.PatientID)
		newID, err = s.calendar.CreateEvent(ctx, doc.Email, summary, appt.Time, s.cfg.AppointmentDuration)
	}
	effects = append(effects, s.record(ctx, EffectCalendar, err))
	if err != nil {
		// The stale id no longer points at a live event after a doctor change.
		if previous == nil || previous.DoctorID != doc.ID {
			appt.CalendarEventID = nil
		}
		return effects
	}

	if newID == oldID {
		return effects
	}
	appt.CalendarEventID = nil
	err = s.repo.SetCalendarEventID(ctx, appt.ID, newID)
	effects = append(effects, s.record(ctx, EffectCalendarRecord, err))
	if err == nil {
		appt.CalendarEventID = &newID
	}
	return effects
}

func (s *Service) cleanupEvent(ctx context.Context, doctorID int64, eventID string) SideEffect {
	old, err := s.roster.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return s.record(ctx, EffectCalendarCleanup, err)
	}
	if old.Email == "" {
		return s.skipped(EffectCalendarCleanup, "doctor has no calendar")
	}
	return s.record(ctx, EffectCalendarCleanup, s.calendar.DeleteEvent(ctx, old.Email, eventID))
}

// deleteEvent removes the calendar event of a cancelled appointment.
func (s *Service) deleteEvent(ctx context.Context, a *Appointment, doc *doctor.Doctor) SideEffect {
	if s.calendar == nil {
		return s.skipped(EffectCalendar, "calendar disabled")
	}
	if a.CalendarEventID == nil || *a.CalendarEventID == "" {
		return s.skipped(EffectCalendar, "no calendar event")
	}
	if doc.Email == "" {
		return s.skipped(EffectCalendar, "doctor has no calendar")
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SideEffectTimeout)
	defer cancel()
	return s.record(ctx, EffectCalendar, s.calendar.DeleteEvent(ctx, doc.Email, *a.CalendarEventID))
}
