package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	"github.com/jwalitptl/clinic-desk/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/validator"
)

type Service struct {
	repo    repository.AppointmentRepository
	doctors repository.DoctorRepository
	loc     *time.Location
	logger  zerolog.Logger
}

// NewService builds the appointment service. loc is the clinic's time zone,
// used to read the date and time the desk enters.
func NewService(repo repository.AppointmentRepository, doctors repository.DoctorRepository, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:    repo,
		doctors: doctors,
		loc:     loc,
		logger:  logger.With().Str("service", "appointment").Logger(),
	}
}

// CreateAppointment books req. A doctor always books for themselves, so the
// doctor is only sent when someone else is booking.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, s.loc)
	if err != nil {
		return nil, apperrors.NewValidation("date", "Invalid appointment date or time")
	}

	input := &model.AppointmentInput{AppointmentDatetime: at}
	caller, _ := auth.FromContext(ctx)
	if !caller.IsDoctor() {
		if req.DoctorID.IsZero() {
			return nil, apperrors.NewValidation("doctor_id", "Please select a doctor")
		}
		id := req.DoctorID
		input.DoctorID = &id
	}

	apt, err := s.repo.Create(ctx, req.PatientID, input)
	if err != nil {
		return nil, apperrors.WithFallback(fmt.Errorf("failed to create appointment: %w", err), "Failed to create appointment")
	}
	s.logger.Info().
		Str("appointment_id", apt.ID.String()).
		Str("patient_id", req.PatientID.String()).
		Time("at", at).
		Msg("appointment created")
	return apt, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id model.ID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	apt, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, apperrors.WithFallback(fmt.Errorf("failed to update appointment: %w", err), "Failed to update status")
	}
	return apt, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, apperrors.WithFallback(fmt.Errorf("failed to list doctors: %w", err), "Failed to load doctors")
	}
	return doctors, nil
}
