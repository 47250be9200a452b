package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/textnorm"
)

type Service struct {
	repo   Repository
	region string
	log    *zap.Logger
}

func NewService(repo Repository, region string, log *zap.Logger) *Service {
	if region == "" {
		region = textnorm.DefaultRegion
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, region: region, log: log}
}

// Validate looks a patient up by date of birth and phone. A miss is
// reported as ErrPatientNotFound.
func (s *Service) Validate(ctx context.Context, rawDOB, rawPhone string) (*Patient, error) {
	dob, phone, err := s.identity(rawDOB, rawPhone)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByPhoneDOB(ctx, phone, dob)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			s.log.Info("patient not found", zap.String("phone", phone), zap.Time("dob", dob))
			return nil, err
		}
		return nil, apperr.Persistence(err, "failed to look up patient")
	}
	return p, nil
}

type CreateInput struct {
	FirstName string
	LastName  string
	DOB       string
	Phone     string
}

type CreateResult struct {
	PatientID int64
	// Created is false when a patient with the same phone and date of birth
	// already existed.
	Created bool
}

// Create registers a patient. It is idempotent on (phone, dob).
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return CreateResult{}, ErrMissingName
	}

	dob, phone, err := s.identity(in.DOB, in.Phone)
	if err != nil {
		return CreateResult{}, err
	}

	existing, err := s.repo.FindByPhoneDOB(ctx, phone, dob)
	switch {
	case err == nil:
		return CreateResult{PatientID: existing.ID}, nil
	case !errors.Is(err, ErrPatientNotFound):
		return CreateResult{}, apperr.Persistence(err, "failed to look up patient")
	}

	title := cases.Title(language.English)
	p := &Patient{
		FullName: title.String(first) + " " + title.String(last),
		DOB:      dob,
		Phone:    phone,
		Status:   StatusActive,
		DoctorID: UnassignedDoctorID,
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return CreateResult{}, apperr.Persistence(err, "failed to create patient")
	}

	s.log.Info("patient created", zap.Int64("patient_id", id))
	return CreateResult{PatientID: id, Created: true}, nil
}

func (s *Service) identity(rawDOB, rawPhone string) (time.Time, string, error) {
	if strings.TrimSpace(rawDOB) == "" {
		return time.Time{}, "", ErrMissingDOB
	}
	d, ok := textnorm.ParseDate(rawDOB)
	if !ok {
		return time.Time{}, "", fmt.Errorf("%w: %q", textnorm.ErrInvalidDateFormat, rawDOB)
	}
	dob := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	phone := textnorm.NormalizePhoneRegion(rawPhone, s.region)
	if phone == "" {
		return time.Time{}, "", ErrInvalidPhone
	}
	return dob, phone, nil
}
