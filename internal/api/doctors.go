package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/doctor"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

// Directory resolves free-text doctor and department names.
type Directory interface {
	FindDoctor(ctx context.Context, query string) (*doctor.Doctor, error)
	DoctorsInDepartment(ctx context.Context, query string) (string, []doctor.Doctor, []string, error)
}

// Availability answers slot and date questions from the weekly template.
type Availability interface {
	Today() time.Time
	IsOpen(ctx context.Context, doctorID int64, day time.Weekday, at textnorm.TimeOfDay) (bool, error)
	ListOpenSlots(ctx context.Context, doctorID int64, day time.Weekday) ([]textnorm.TimeOfDay, error)
	ListOpenDays(ctx context.Context, doctorID int64, n int) ([]time.Time, error)
	CheckDate(ctx context.Context, doctorID int64, date time.Time) (availability.DateCheck, error)
}

func formatSlots(slots []textnorm.TimeOfDay) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format12h())
	}
	return out
}

func formatDates(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(dateLayout))
	}
	return out
}

// doctorAndDate validates the shared {d_name, S_date} input.
func doctorAndDate(ctx context.Context, dir Directory, avail Availability, req DoctorDateRequest) (*doctor.Doctor, time.Time, error) {
	if strings.TrimSpace(req.DoctorName) == "" || strings.TrimSpace(req.Date) == "" {
		return nil, time.Time{}, fmt.Errorf("%w: d_name and S_date are required", appointment.ErrMissingField)
	}
	date, ok := textnorm.ParseDateAt(req.Date, avail.Today())
	if !ok {
		return nil, time.Time{}, fmt.Errorf("%w: %q", textnorm.ErrInvalidDateFormat, req.Date)
	}
	doc, err := dir.FindDoctor(ctx, req.DoctorName)
	if err != nil {
		return nil, time.Time{}, err
	}
	return doc, date, nil
}

func doctorsByDepartmentHandler(dir Directory, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DepartmentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.Department) == "" {
			handleError(w, r, log, fmt.Errorf("%w: department", appointment.ErrMissingField))
			return
		}

		dept, doctors, known, err := dir.DoctorsInDepartment(r.Context(), req.Department)
		if errors.Is(err, doctor.ErrDepartmentNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{
				Error:                "department_not_found",
				Details:              fmt.Sprintf("no doctors found in department %q", req.Department),
				AvailableDepartments: known,
			})
			return
		}
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		resp := DepartmentResponse{Department: dept}
		names := make([]string, 0, len(doctors))
		for _, d := range doctors {
			names = append(names, d.Name)
			resp.Doctors = append(resp.Doctors, DoctorSummary{ID: d.ID, Name: d.Name, Email: d.Email})
		}
		resp.DoctorName = strings.Join(names, ", ")
		writeJSON(w, http.StatusOK, resp)
	}
}

func timeSlotsHandler(dir Directory, avail Availability, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorDateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}

		doc, date, err := doctorAndDate(r.Context(), dir, avail, req)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		slots, err := avail.ListOpenSlots(r.Context(), doc.ID, date.Weekday())
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		resp := TimeSlotsResponse{
			DoctorName:     doc.Name,
			Date:           date.Format(dateLayout),
			AvailableSlots: formatSlots(slots),
			Availability:   "Not Available",
		}
		if len(slots) > 0 {
			resp.AvailableString = strings.Join(resp.AvailableSlots, ", ")
			resp.Availability = "Available"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func checkAvailabilityHandler(dir Directory, avail Availability, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DoctorDateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}

		doc, date, err := doctorAndDate(r.Context(), dir, avail, req)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		check, err := avail.CheckDate(r.Context(), doc.ID, date)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		resp := CheckAvailabilityResponse{
			DoctorName:    doc.Name,
			RequestedDate: date.Format(dateLayout),
			Available:     check.Available(),
		}
		if strings.TrimSpace(req.Time) != "" {
			tod, err := textnorm.ParseTimeOfDay(req.Time)
			if err != nil {
				handleError(w, r, log, err)
				return
			}
			open, err := avail.IsOpen(r.Context(), doc.ID, date.Weekday(), tod)
			if err != nil {
				handleError(w, r, log, err)
				return
			}
			resp.RequestedSlot = tod.Format12h()
			resp.SlotOpen = &open
		}
		switch {
		case check.Available():
			resp.AvailableSlots = formatSlots(check.Slots)
			resp.SlotsString = strings.Join(resp.AvailableSlots, ", ")
		case len(check.Alternatives) == 0:
			resp.Message = "No available dates found for this doctor"
		default:
			resp.Message = fmt.Sprintf("No slots available on %s, but available on other dates", resp.RequestedDate)
			resp.AvailableDates = formatDates(check.Alternatives)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func availableDatesHandler(dir Directory, avail Availability, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AvailableDatesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.DoctorName) == "" {
			handleError(w, r, log, fmt.Errorf("%w: d_name", appointment.ErrMissingField))
			return
		}

		doc, err := dir.FindDoctor(r.Context(), req.DoctorName)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		days, err := avail.ListOpenDays(r.Context(), doc.ID, availability.OpenDaysHorizon)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		if len(days) == 0 {
			writeError(w, http.StatusNotFound, "no_available_slots",
				fmt.Sprintf("no available slots found for %s", doc.Name))
			return
		}

		dates := formatDates(days)
		writeJSON(w, http.StatusOK, AvailableDatesResponse{
			DoctorName:     doc.Name,
			AvailableDates: dates,
			DatesString:    strings.Join(dates, ", "),
		})
	}
}
