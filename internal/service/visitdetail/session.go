package visitdetail

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

const msgSaveMedicines = "Failed to save medicines"

// Editable medicine fields.
const (
	FieldDosage     = "dosage"
	FieldWhenToTake = "when_to_take"
	FieldFrequency  = "frequency"
)

// visitState is one loaded visit and its local edits. mu is held for the
// whole of a save, so readers never see the list from before the response
// was applied.
type visitState struct {
	mu      sync.Mutex
	visit   model.Visit
	saveErr string
}

// Session is one patient's chart as held by one desk session. Local edits
// of every visit survive selection changes until they are saved or the
// session expires.
type Session struct {
	patients repository.PatientRepository
	visits   repository.VisitRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu       sync.RWMutex
	patient  *model.Patient
	states   []*visitState
	selected model.ID
}

func newSession(patients repository.PatientRepository, visits repository.VisitRepository, m *metrics.Metrics, logger zerolog.Logger) *Session {
	return &Session{patients: patients, visits: visits, metrics: m, logger: logger}
}

// Load fetches the patient and their visits together and selects the most
// recent visit.
func (s *Session) Load(ctx context.Context, patientID model.ID) error {
	var (
		patient *model.Patient
		visits  []model.Visit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.patients.Get(gctx, patientID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewNotFound("Patient", err)
			}
			return fmt.Errorf("failed to load patient: %w", err)
		}
		patient = p
		return nil
	})
	g.Go(func() error {
		v, err := s.visits.ListByPatient(gctx, patientID)
		if err != nil {
			return fmt.Errorf("failed to load visits: %w", err)
		}
		visits = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	states := make([]*visitState, 0, len(visits))
	for _, v := range visits {
		states = append(states, &visitState{visit: v.Clone()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patient = patient
	s.states = states
	s.selected = ""
	if len(states) > 0 {
		s.selected = states[0].visit.ID
	}
	return nil
}

func (s *Session) Patient() *model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patient
}

func (s *Session) Selected() model.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Session) state(visitID model.ID) (*visitState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.states {
		if st.visit.ID == visitID {
			return st, nil
		}
	}
	return nil, &apperrors.AppError{
		Code:    apperrors.ErrNotFound,
		Message: "No visit data found",
		Err:     fmt.Errorf("visit %s is not in this chart", visitID),
	}
}

// Select makes visitID the active visit. Edits of the previous selection
// are kept.
func (s *Session) Select(visitID model.ID) error {
	if _, err := s.state(visitID); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = visitID
	s.mu.Unlock()
	return nil
}

// Edit changes one selection field of row index. An index equal to the row
// count starts a new, unsaved row.
func (s *Session) Edit(visitID model.ID, index int, field, value string) error {
	if err := checkSelection(field, value); err != nil {
		return err
	}
	st, err := s.state(visitID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	rows := st.visit.Medicines
	switch {
	case index == len(rows):
		rows = append(rows, model.NewMedicine(model.Medicine{}))
	case index < 0 || index > len(rows):
		return apperrors.NewValidation("index", fmt.Sprintf("no medicine row %d", index))
	}

	row := &rows[index]
	switch field {
	case FieldDosage:
		row.Dosage = value
	case FieldWhenToTake:
		row.WhenToTake = value
	case FieldFrequency:
		row.Frequency = value
	}
	st.visit.Medicines = rows
	return nil
}

func checkSelection(field, value string) error {
	var ok bool
	switch field {
	case FieldDosage:
		ok = model.IsDosage(value)
	case FieldWhenToTake:
		ok = model.IsWhen(value)
	case FieldFrequency:
		ok = model.IsFrequency(value)
	default:
		return apperrors.NewValidation(field, fmt.Sprintf("%s cannot be edited here", field))
	}
	if !ok {
		return apperrors.NewValidation(field, fmt.Sprintf("%q is not a valid %s", value, field))
	}
	return nil
}

// Add appends a new prescription line to the visit. It stays local until
// the next save.
func (s *Session) Add(visitID model.ID, m model.Medicine) error {
	if !m.IsSubmittable() {
		return apperrors.NewValidation("name", "Medicine name is required")
	}
	st, err := s.state(visitID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.visit.Medicines = append(st.visit.Medicines, model.NewMedicine(m))
	return nil
}

// Dirty reports whether the visit holds a named row the backend has not
// seen yet.
func (s *Session) Dirty(visitID model.ID) (bool, error) {
	st, err := s.state(visitID)
	if err != nil {
		return false, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return dirty(st.visit.Medicines), nil
}

func dirty(rows []model.MedicineRow) bool {
	for _, r := range rows {
		if !r.Persisted() && model.IsSubmittable(r) {
			return true
		}
	}
	return false
}

// SaveSelected replaces the selected visit's prescription on the backend
// with its complete local list and adopts the list the backend returns.
// On failure the local rows stay as they were and the error is kept on the
// visit for display.
func (s *Session) SaveSelected(ctx context.Context) error {
	visitID := s.Selected()
	if visitID.IsZero() {
		return apperrors.NewBadRequest("No visit selected", nil)
	}
	return s.Save(ctx, visitID)
}

// Save is SaveSelected for an explicit visit.
func (s *Session) Save(ctx context.Context, visitID model.ID) error {
	st, err := s.state(visitID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	list := model.CompleteList(st.visit.Medicines)
	saved, err := s.visits.ReplaceMedicines(ctx, visitID, list)
	if err != nil {
		err = apperrors.WithFallback(err, msgSaveMedicines)
		st.saveErr = apperrors.Message(err, msgSaveMedicines)
		s.metrics.MedicineSaves.WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).Str("visit_id", visitID.String()).Msg("medicine save failed")
		return err
	}

	if saved == nil {
		saved = model.FilterSubmittable(st.visit.Medicines)
	}
	st.visit = st.visit.WithMedicines(saved)
	st.saveErr = ""
	s.metrics.MedicineSaves.WithLabelValues("saved").Inc()
	s.logger.Info().Str("visit_id", visitID.String()).Int("medicines", list.Len()).Msg("medicines saved")
	return nil
}

// Visit returns a copy of the visit with its local edits.
func (s *Session) Visit(visitID model.ID) (model.Visit, error) {
	st, err := s.state(visitID)
	if err != nil {
		return model.Visit{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.visit.Clone(), nil
}
