package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/validator"
)

// lastVisitLookups bounds the concurrent visit lookups of one search page.
const lastVisitLookups = 4

type PatientService interface {
	GetPatient(ctx context.Context, id model.ID) (*model.Patient, error)
	SearchPatients(ctx context.Context, filters model.PatientFilters) (*model.PatientPage, error)
	RegisterPatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
}

type Service struct {
	repo   repository.PatientRepository
	visits repository.VisitRepository
	logger zerolog.Logger
}

func NewService(repo repository.PatientRepository, visits repository.VisitRepository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		visits: visits,
		logger: logger.With().Str("service", "patient").Logger(),
	}
}

func (s *Service) GetPatient(ctx context.Context, id model.ID) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("Patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

// SearchPatients returns one page of patients. Patients the backend sent
// without a last visit date get it from their most recent visit; a failed
// lookup leaves the date empty.
func (s *Service) SearchPatients(ctx context.Context, filters model.PatientFilters) (*model.PatientPage, error) {
	filters.Query = strings.TrimSpace(filters.Query)
	filters.Pagination = filters.Pagination.Normalize()

	page, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.WithFallback(fmt.Errorf("failed to list patients: %w", err), "Failed to load patients")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lastVisitLookups)
	for i := range page.Patients {
		p := &page.Patients[i]
		if p.LastVisitAt != nil {
			continue
		}
		g.Go(func() error {
			visits, err := s.visits.ListByPatient(gctx, p.ID)
			if err != nil {
				s.logger.Debug().Err(err).Str("patient_id", p.ID.String()).Msg("last visit lookup failed")
				return nil
			}
			if len(visits) > 0 && visits[0].VisitDate != nil {
				at := *visits[0].VisitDate
				p.LastVisitAt = &at
			}
			return nil
		})
	}
	_ = g.Wait()

	return page, nil
}

func (s *Service) RegisterPatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Address = strings.TrimSpace(req.Address)
	req.Mobile = strings.TrimSpace(req.Mobile)

	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, apperrors.WithFallback(fmt.Errorf("failed to register patient: %w", err), "Failed to register patient")
	}
	s.logger.Info().Str("patient_id", p.ID.String()).Msg("patient registered")
	return p, nil
}
