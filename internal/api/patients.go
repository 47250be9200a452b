package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/patient"
)

// Patients is the registration service.
type Patients interface {
	Validate(ctx context.Context, rawDOB, rawPhone string) (*patient.Patient, error)
	Create(ctx context.Context, in patient.CreateInput) (patient.CreateResult, error)
}

func validatePatientHandler(svc Patients, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidatePatientRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := svc.Validate(r.Context(), req.DOB, req.Phone)
		if errors.Is(err, patient.ErrPatientNotFound) {
			writeJSON(w, http.StatusOK, ValidatePatientResponse{Message: "Patient does not exist."})
			return
		}
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, ValidatePatientResponse{
			Message:   "Patient exists.",
			Name:      p.FullName,
			PatientID: p.ID,
		})
	}
}

func createPatientHandler(svc Patients, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_request_body", "could not parse JSON")
			return
		}

		res, err := svc.Create(r.Context(), patient.CreateInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			DOB:       req.DOB,
			Phone:     req.Phone,
		})
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		if !res.Created {
			writeJSON(w, http.StatusOK, CreatePatientResponse{Message: "Patient already exists.", PatientID: res.PatientID})
			return
		}
		writeJSON(w, http.StatusCreated, CreatePatientResponse{Message: "New patient created.", PatientID: res.PatientID})
	}
}
