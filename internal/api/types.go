package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
)

// PatientID accepts either a JSON number or a numeric string, since voice
// agents send both.
type PatientID int64

func (p *PatientID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if strings.TrimSpace(s) == "" {
		*p = 0
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("pid must be an integer, got %s", b)
	}
	*p = PatientID(n)
	return nil
}

type BookAppointmentRequest struct {
	DoctorName string    `json:"dname"`
	Date       string    `json:"date"`
	Time       string    `json:"sslot"`
	PatientID  PatientID `json:"pid"`
	Phone      string    `json:"phone"`
}

type SideEffectResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type BookAppointmentResponse struct {
	Message         string               `json:"message"`
	AppointmentID   int64                `json:"appointment_id"`
	DoctorName      string               `json:"doctor_name"`
	PatientID       int64                `json:"patient_id"`
	AppointmentDate string               `json:"appointment_date"`
	AppointmentTime string               `json:"appointment_time"`
	Status          string               `json:"status"`
	DurationMinutes int                  `json:"duration_minutes"`
	CalendarEventID *string              `json:"calendar_event_id"`
	SideEffects     []SideEffectResponse `json:"side_effects"`
}

type LatestAppointmentRequest struct {
	PatientID PatientID `json:"pid"`
}

// LatestAppointmentResponse keeps every key present; absent values are null.
type LatestAppointmentResponse struct {
	Appointment   bool    `json:"appointment"`
	AppointmentID *int64  `json:"appointment_id"`
	DoctorName    *string `json:"doctor_name"`
	Department    *string `json:"department"`
	Date          *string `json:"Sdate"`
	Time          *string `json:"Stime"`
}

type CancelAppointmentRequest struct {
	DoctorName string    `json:"doctor_name"`
	Department string    `json:"department"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	PatientID  PatientID `json:"pid"`
}

type CancelAppointmentResponse struct {
	Message       string               `json:"message"`
	AppointmentID int64                `json:"appointment_id"`
	DoctorName    string               `json:"doctor_name"`
	Department    string               `json:"department"`
	Date          string               `json:"date"`
	Time          string               `json:"time"`
	Status        string               `json:"status"`
	SideEffects   []SideEffectResponse `json:"side_effects"`
}

type DepartmentRequest struct {
	Department string `json:"department"`
}

type DoctorSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type DepartmentResponse struct {
	Department string          `json:"department"`
	DoctorName string          `json:"doctor_name"`
	Doctors    []DoctorSummary `json:"doctors"`
}

type DoctorDateRequest struct {
	DoctorName string `json:"d_name"`
	Date       string `json:"S_date"`
	// Time is only read by check-availability.
	Time       string `json:"sslot,omitempty"`
}

type TimeSlotsResponse struct {
	DoctorName      string   `json:"doctor_name"`
	Date            string   `json:"date"`
	AvailableSlots  []string `json:"available_slots"`
	AvailableString string   `json:"available_string,omitempty"`
	Availability    string   `json:"availability"`
}

type CheckAvailabilityResponse struct {
	DoctorName     string   `json:"doctor_name"`
	RequestedDate  string   `json:"requested_date"`
	Available      bool     `json:"available"`
	RequestedSlot  string   `json:"requested_slot,omitempty"`
	SlotOpen       *bool    `json:"slot_open,omitempty"`
	AvailableSlots []string `json:"available_slots,omitempty"`
	SlotsString    string   `json:"slots_string,omitempty"`
	Message        string   `json:"message,omitempty"`
	AvailableDates []string `json:"available_dates,omitempty"`
}

type AvailableDatesRequest struct {
	DoctorName string `json:"d_name"`
}

type AvailableDatesResponse struct {
	DoctorName     string   `json:"doctor_name"`
	AvailableDates []string `json:"available_dates"`
	DatesString    string   `json:"dates_string"`
}

type ValidatePatientRequest struct {
	DOB   string `json:"dob"`
	Phone string `json:"phone"`
}

type ValidatePatientResponse struct {
	Message   string `json:"message"`
	Name      string `json:"name,omitempty"`
	PatientID int64  `json:"patient_id,omitempty"`
}

type CreatePatientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
	Phone     string `json:"phone"`
}

type CreatePatientResponse struct {
	Message   string `json:"message"`
	PatientID int64  `json:"patient_id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	// AvailableDepartments is set when a department lookup misses.
	AvailableDepartments []string `json:"available_departments,omitempty"`
}

func sideEffects(in []appointment.SideEffect) []SideEffectResponse {
	out := make([]SideEffectResponse, 0, len(in))
	for _, e := range in {
		out = append(out, SideEffectResponse{Name: e.Name, Status: string(e.Status), Error: e.Err})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
