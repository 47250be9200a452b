package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// Scheduler is the appointment coordinator as seen by the HTTP layer.
type Scheduler interface {
	Book(ctx context.Context, req appointment.BookRequest) (*appointment.BookResult, error)
	Cancel(ctx context.Context, req appointment.CancelRequest) (*appointment.CancelResult, error)
	LatestAppointment(ctx context.Context, patientID int64) (*appointment.Detail, error)
}

const dateLayout = "2006-01-02"

func bookAppointmentHandler(svc Scheduler, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}

		res, err := svc.Book(r.Context(), appointment.BookRequest{
			DoctorQuery: req.DoctorName,
			Date:        req.Date,
			Time:        req.Time,
			PatientID:   int64(req.PatientID),
			Phone:       req.Phone,
		})
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		a := res.Appointment
		writeJSON(w, http.StatusOK, BookAppointmentResponse{
			Message:         res.Message(),
			AppointmentID:   a.ID,
			DoctorName:      res.Doctor.Name,
			PatientID:       a.PatientID,
			AppointmentDate: a.Time.Format(dateLayout),
			AppointmentTime: textnorm.TimeOfDayOf(a.Time).Format12h(),
			Status:          string(appointment.StatusScheduled),
			DurationMinutes: a.DurationMinutes,
			CalendarEventID: a.CalendarEventID,
			SideEffects:     sideEffects(res.SideEffects),
		})
	}
}

func latestAppointmentHandler(svc Scheduler, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LatestAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := svc.LatestAppointment(r.Context(), int64(req.PatientID))
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		if d == nil {
			writeJSON(w, http.StatusOK, LatestAppointmentResponse{})
			return
		}

		date := d.Time.Format(dateLayout)
		at := textnorm.TimeOfDayOf(d.Time).Format12h()
		writeJSON(w, http.StatusOK, LatestAppointmentResponse{
			Appointment:   true,
			AppointmentID: &d.ID,
			DoctorName:    &d.DoctorName,
			Department:    &d.Department,
			Date:          &date,
			Time:          &at,
		})
	}
}

func cancelAppointmentHandler(svc Scheduler, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CancelAppointmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}

		res, err := svc.Cancel(r.Context(), appointment.CancelRequest{
			DoctorName: req.DoctorName,
			Department: req.Department,
			Date:       req.Date,
			Time:       req.Time,
			PatientID:  int64(req.PatientID),
		})
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		// date and time echo what the caller sent.
		writeJSON(w, http.StatusOK, CancelAppointmentResponse{
			Message:       "Appointment cancelled successfully.",
			AppointmentID: res.AppointmentID,
			DoctorName:    res.Doctor.Name,
			Department:    res.Doctor.Department,
			Date:          req.Date,
			Time:          req.Time,
			Status:        string(appointment.StatusCancelled),
			SideEffects:   sideEffects(res.SideEffects),
		})
	}
}

// handleError maps the error taxonomy onto status codes.
func handleError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
	}

	writeError(w, status, apperr.CodeOf(err), err.Error())
}
