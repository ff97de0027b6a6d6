package printout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/internal/email"
	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	"github.com/jwalitptl/clinic-desk/internal/session"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

const msgLoadVisit = "Failed to load visit data"

type Service struct {
	patients repository.PatientRepository
	visits   repository.VisitRepository
	store    session.VisitStore
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	mailer   email.Sender
	now      func() time.Time
}

func NewService(patients repository.PatientRepository, visits repository.VisitRepository, store session.VisitStore, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		patients: patients,
		visits:   visits,
		store:    store,
		metrics:  m,
		logger:   logger.With().Str("service", "printout").Logger(),
		mailer:   email.NewSender(email.Config{}),
		now:      time.Now,
	}
}

// WithMailer sets the sender used by Share.
func (s *Service) WithMailer(m email.Sender) *Service {
	s.mailer = m
	return s
}

func errNoVisit(err error) error {
	return &apperrors.AppError{Code: apperrors.ErrNotFound, Message: "No visit data found", Err: err}
}

// Load fetches the patient, then the visit.
func (s *Service) Load(ctx context.Context, patientID, visitID model.ID) (*model.Patient, *model.Visit, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("Patient", err)
		}
		return nil, nil, apperrors.WithFallback(fmt.Errorf("failed to load patient: %w", err), msgLoadVisit)
	}

	visit, err := s.visits.Get(ctx, patientID, visitID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, errNoVisit(err)
		}
		return nil, nil, apperrors.WithFallback(fmt.Errorf("failed to load visit: %w", err), msgLoadVisit)
	}
	return patient, visit, nil
}

// LatestID resolves the visit to print right after a save: the one
// remembered for scope, or else the patient's most recent visit.
func (s *Service) LatestID(ctx context.Context, scope string, patientID model.ID) (model.ID, error) {
	visitID, ok, err := s.store.Take(ctx, scope, patientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", patientID.String()).Msg("session store unavailable, using latest visit")
	}
	if ok {
		return visitID, nil
	}

	visits, err := s.visits.ListByPatient(ctx, patientID)
	if err != nil {
		return "", apperrors.WithFallback(fmt.Errorf("failed to list visits: %w", err), msgLoadVisit)
	}
	if len(visits) == 0 {
		return "", errNoVisit(fmt.Errorf("patient %s has no visits", patientID))
	}
	return visits[0].ID, nil
}

// Document loads and renders one visit.
func (s *Service) Document(ctx context.Context, patientID, visitID model.ID) (*Document, error) {
	patient, visit, err := s.Load(ctx, patientID, visitID)
	if err != nil {
		return nil, err
	}
	doc := Render(*patient, *visit, s.now())
	return &doc, nil
}

// Write renders doc in format to w.
func (s *Service) Write(w io.Writer, doc Document, format string) error {
	var err error
	switch format {
	case "", FormatText:
		format = FormatText
		err = WriteText(w, doc)
	case FormatXLSX:
		err = WriteXLSX(w, doc)
	default:
		return apperrors.NewBadRequest(fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return err
	}
	s.metrics.PrintsRendered.WithLabelValues(format).Inc()
	return nil
}

// Share e-mails the prescription to the given address as text with the
// workbook attached.
func (s *Service) Share(ctx context.Context, patientID, visitID model.ID, to string) error {
	doc, err := s.Document(ctx, patientID, visitID)
	if err != nil {
		return err
	}

	var body, sheet bytes.Buffer
	if err := s.Write(&body, *doc, FormatText); err != nil {
		return err
	}
	if err := s.Write(&sheet, *doc, FormatXLSX); err != nil {
		return err
	}

	subject := "Prescription"
	if doc.VisitDate != "" {
		subject += " - " + doc.VisitDate
	}
	err = s.mailer.Send(ctx, email.Message{
		To:      to,
		Subject: subject,
		Body:    body.String(),
		Attachments: []email.Attachment{
			{Name: "prescription-" + visitID.String() + ".xlsx", Data: sheet.Bytes()},
		},
	})
	if errors.Is(err, email.ErrDisabled) {
		return apperrors.NewBadRequest("Sharing by e-mail is not configured", err)
	}
	if err != nil {
		return apperrors.NewUpstream("", "Failed to send prescription", 0, fmt.Errorf("failed to send prescription: %w", err))
	}
	s.logger.Info().Str("visit_id", visitID.String()).Msg("prescription shared")
	return nil
}
