package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/doctor"
	"github.com/hackgods/clinic-scheduling/internal/observability/metrics"
	"github.com/hackgods/clinic-scheduling/internal/patient"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// SMSSender delivers a text message.
type SMSSender interface {
	Send(ctx context.Context, to, from, body string) error
}

// Calendar keeps the external calendar event of an appointment.
type Calendar interface {
	CreateEvent(ctx context.Context, calendarID, summary string, start time.Time, d time.Duration) (string, error)
	UpdateEvent(ctx context.Context, eventID, calendarID string, start time.Time, d time.Duration) (string, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// Service coordinates the appointment row, the availability template and
// the patient row in one transaction, then runs SMS and calendar updates
// after commit.
type Service struct {
	repo     Repository
	matcher  *doctor.Matcher
	roster   doctor.Roster
	locker   redisclient.Locker
	cfg      config.Config
	sms      SMSSender
	calendar Calendar
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithSMS(s SMSSender) Option { return func(svc *Service) { svc.sms = s } }

func WithCalendar(c Calendar) Option { return func(svc *Service) { svc.calendar = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(svc *Service) { svc.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(svc *Service) { svc.log = l } }

func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

func NewService(repo Repository, roster doctor.Roster, locker redisclient.Locker, cfg config.Config, opts ...Option) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AppointmentDuration <= 0 {
		cfg.AppointmentDuration = availability.SlotDuration
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = 5 * time.Second
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = "Medical Clinic"
	}
	s := &Service{
		repo:    repo,
		matcher: doctor.NewMatcher(roster),
		roster:  roster,
		locker:  locker,
		cfg:     cfg,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	n := s.now().In(s.cfg.Location)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func (s *Service) resolveDate(raw string, required bool) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		if required {
			return time.Time{}, fmt.Errorf("%w: date", ErrMissingField)
		}
		return s.today(), nil
	}
	d, ok := textnorm.ParseDateAt(raw, s.now().In(s.cfg.Location))
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", textnorm.ErrInvalidDateFormat, raw)
	}
	return d, nil
}

// outcome labels errors for metrics.
func outcome(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}

// persistence classifies an unclassified transaction failure.
func persistence(err error, msg string) error {
	if err == nil || apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Persistence(err, msg)
}

type bookPlan struct {
	existing *Appointment
	phone    string
	id       int64
}

// Book creates the patient's appointment or moves the one they hold. Every
// check runs before the first write, so a rejected booking leaves no trace.
func (s *Service) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	res, err := s.book(ctx, req)
	if err != nil {
		s.metrics.ObserveBooking(outcome(err))
		return nil, err
	}
	if res.Rescheduled {
		s.metrics.ObserveBooking("rescheduled")
	} else {
		s.metrics.ObserveBooking("booked")
	}
	return res, nil
}

func (s *Service) book(ctx context.Context, req BookRequest) (*BookResult, error) {
	if strings.TrimSpace(req.DoctorQuery) == "" || strings.TrimSpace(req.Time) == "" || req.PatientID <= 0 {
		return nil, fmt.Errorf("%w: dname, sslot and pid are required", ErrMissingField)
	}

	phone := textnorm.NormalizePhoneRegion(req.Phone, s.cfg.PhoneRegion)

	date, err := s.resolveDate(req.Date, false)
	if err != nil {
		return nil, err
	}
	tod, err := textnorm.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, err
	}
	at := tod.On(date)
	day := at.Weekday()

	doc, err := s.matcher.FindDoctor(ctx, req.DoctorQuery)
	if err != nil {
		return nil, err
	}

	// Capacity doctors have no slot to serialise on; the counter row lock
	// is enough, and a shared key would turn spare capacity into a 409.
	hasTemplate, err := s.repo.HasTemplate(ctx, doc.ID)
	if err != nil {
		return nil, persistence(err, "failed to book appointment")
	}

	var plan bookPlan
	run := func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(tx Tx) error {
			var err error
			plan, err = s.bookTx(ctx, tx, req.PatientID, doc, at, phone)
			return err
		})
	}
	if hasTemplate {
		err = s.locker.WithSlotLock(ctx, redisclient.SlotKey(doc.ID, day, tod), run)
		if errors.Is(err, redisclient.ErrLockUnavailable) {
			// The row locks in bookTx still serialise the slot.
			s.log.Warn("slot lock unavailable, relying on row locks",
				zap.Int64("doctor_id", doc.ID),
				zap.Error(err))
			s.metrics.ObserveLockBypass()
			err = run(ctx)
		}
	} else {
		err = run(ctx)
	}
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, persistence(err, "failed to book appointment")
	}

	appt := Appointment{
		ID:              plan.id,
		PatientID:       req.PatientID,
		DoctorID:        doc.ID,
		Time:            at,
		Status:          StatusScheduled,
		DurationMinutes: int(s.cfg.AppointmentDuration / time.Minute),
	}
	res := &BookResult{Doctor: *doc, Rescheduled: plan.existing != nil}
	if plan.existing != nil {
		appt.CalendarEventID = plan.existing.CalendarEventID
		appt.CreatedAt = plan.existing.CreatedAt
	}

	s.log.Info("appointment booked",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("patient_id", appt.PatientID),
		zap.Int64("doctor_id", doc.ID),
		zap.Time("at", at),
		zap.Bool("rescheduled", res.Rescheduled))

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*s.cfg.SideEffectTimeout)
	defer cancel()

	res.SideEffects = append(res.SideEffects, s.sendSMS(sctx, plan.phone, s.bookedText(doc, at)))
	res.SideEffects = append(res.SideEffects, s.syncCalendar(sctx, &appt, doc, plan.existing)...)
	res.Appointment = appt
	return res, nil
}

func (s *Service) bookTx(ctx context.Context, tx Tx, patientID int64, doc *doctor.Doctor, at time.Time, phone string) (bookPlan, error) {
	var plan bookPlan
	tod := textnorm.TimeOfDayOf(at)
	day := at.Weekday()

	p, err := tx.LockPatient(ctx, patientID)
	if err != nil {
		return plan, err
	}
	plan.phone = phone
	if plan.phone == "" {
		plan.phone = p.Phone
	}

	existing, err := tx.LockAppointmentForPatient(ctx, patientID)
	if err != nil {
		return plan, err
	}
	plan.existing = existing

	// Moving within the slot the patient already holds is not a conflict.
	holdsSlot := existing != nil && existing.DoctorID == doc.ID &&
		existing.Time.Weekday() == day && textnorm.TimeOfDayOf(existing.Time) == tod

	hasTemplate, err := tx.HasTemplate(ctx, doc.ID)
	if err != nil {
		return plan, err
	}

	if hasTemplate {
		slot, err := tx.LockSlot(ctx, doc.ID, day, tod)
		if errors.Is(err, availability.ErrSlotNotFound) {
			return plan, availability.ErrSlotUnavailable
		}
		if err != nil {
			return plan, err
		}
		if !slot.Open && !holdsSlot {
			return plan, availability.ErrSlotUnavailable
		}
	} else if existing == nil || existing.DoctorID != doc.ID {
		if err := tx.TakeCapacity(ctx, doc.ID); err != nil {
			return plan, err
		}
	}

	if existing != nil && !holdsSlot {
		if err := s.releaseSlot(ctx, tx, existing, doc.ID); err != nil {
			return plan, err
		}
	}

	if existing != nil {
		if err := tx.Reschedule(ctx, existing.ID, doc.ID, at); err != nil {
			return plan, err
		}
		plan.id = existing.ID
	} else {
		id, err := tx.Insert(ctx, &Appointment{
			PatientID:       patientID,
			DoctorID:        doc.ID,
			Time:            at,
			Status:          StatusScheduled,
			DurationMinutes: int(s.cfg.AppointmentDuration / time.Minute),
		})
		if err != nil {
			return plan, err
		}
		plan.id = id
	}

	if hasTemplate {
		if _, err := tx.SetSlotOpen(ctx, doc.ID, day, tod, false); err != nil {
			return plan, err
		}
	}

	if err := tx.AssignDoctor(ctx, patientID, doc.ID, phone); err != nil {
		return plan, err
	}
	return plan, nil
}

// releaseSlot gives back what old held: its template slot, or one unit of
// capacity when its doctor has no template and is not the new doctor.
func (s *Service) releaseSlot(ctx context.Context, tx Tx, old *Appointment, newDoctorID int64) error {
	hasTemplate, err := tx.HasTemplate(ctx, old.DoctorID)
	if err != nil {
		return err
	}
	if hasTemplate {
		_, err := tx.SetSlotOpen(ctx, old.DoctorID, old.Time.Weekday(), textnorm.TimeOfDayOf(old.Time), true)
		return err
	}
	if old.DoctorID != newDoctorID {
		return tx.ReleaseCapacity(ctx, old.DoctorID)
	}
	return nil
}

// Cancel deletes the appointment booked at exactly the given date and time
// with the named doctor, and reopens its slot.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	res, err := s.cancel(ctx, req)
	if err != nil {
		s.metrics.ObserveCancellation(outcome(err))
		return nil, err
	}
	s.metrics.ObserveCancellation("cancelled")
	return res, nil
}

func (s *Service) cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	if strings.TrimSpace(req.DoctorName) == "" || strings.TrimSpace(req.Department) == "" ||
		strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" || req.PatientID <= 0 {
		return nil, fmt.Errorf("%w: doctor_name, department, date, time and pid are required", ErrMissingField)
	}

	date, err := s.resolveDate(req.Date, true)
	if err != nil {
		return nil, err
	}
	tod, err := textnorm.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, err
	}
	at := tod.On(date)

	doc, err := s.matcher.FindDoctor(ctx, req.DoctorName)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(doc.Department), strings.TrimSpace(req.Department)) {
		return nil, fmt.Errorf("%w: %s is not in %s", ErrDoctorNotInDepartment, doc.Name, req.Department)
	}

	var (
		removed *Appointment
		phone   string
	)
	err = s.repo.WithTx(ctx, func(tx Tx) error {
		p, err := tx.LockPatient(ctx, req.PatientID)
		if err != nil {
			if errors.Is(err, patient.ErrPatientNotFound) {
				return ErrAppointmentNotFound
			}
			return err
		}
		phone = p.Phone

		a, err := tx.LockExactAppointment(ctx, req.PatientID, doc.ID, at)
		if err != nil {
			return err
		}

		hasTemplate, err := tx.HasTemplate(ctx, doc.ID)
		if err != nil {
			return err
		}
		if hasTemplate {
			if _, err := tx.SetSlotOpen(ctx, doc.ID, at.Weekday(), tod, true); err != nil {
				return err
			}
		} else if err := tx.ReleaseCapacity(ctx, doc.ID); err != nil {
			return err
		}

		if err := tx.Delete(ctx, a.ID); err != nil {
			return err
		}
		if err := tx.UnassignDoctor(ctx, req.PatientID); err != nil {
			return err
		}
		removed = a
		return nil
	})
	if err != nil {
		return nil, persistence(err, "failed to cancel appointment")
	}

	s.log.Info("appointment cancelled",
		zap.Int64("appointment_id", removed.ID),
		zap.Int64("patient_id", req.PatientID),
		zap.Int64("doctor_id", doc.ID))

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*s.cfg.SideEffectTimeout)
	defer cancel()

	res := &CancelResult{AppointmentID: removed.ID, Doctor: *doc, Time: at}
	res.SideEffects = append(res.SideEffects, s.deleteEvent(sctx, removed, doc))
	res.SideEffects = append(res.SideEffects, s.sendSMS(sctx, phone, s.cancelledText(doc, at)))
	return res, nil
}

// LatestAppointment returns the patient's chronologically latest
// appointment, or nil when there is none.
func (s *Service) LatestAppointment(ctx context.Context, patientID int64) (*Detail, error) {
	if patientID <= 0 {
		return nil, fmt.Errorf("%w: pid", ErrMissingField)
	}
	d, err := s.repo.LatestForPatient(ctx, patientID)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load appointment")
	}
	return d, nil
}
