package visitform

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	"github.com/jwalitptl/clinic-desk/internal/session"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

const msgSaveVisit = "Failed to save visit"

// Where the desk goes after a successful save.
const (
	NextPrint   = "print"
	NextPatient = "patient"
)

// Target names the screen to open next.
type Target struct {
	Kind      string   `json:"kind"`
	PatientID model.ID `json:"patient_id"`
	Path      string   `json:"path"`
}

// Prefill is what the entry form opens with.
type Prefill struct {
	Patient *model.Patient        `json:"patient"`
	Form    *Form                 `json:"form"`
	Options model.MedicineOptions `json:"options"`
}

type Result struct {
	Visit *model.Visit `json:"visit"`
	Next  Target       `json:"next"`
}

type Controller struct {
	patients repository.PatientRepository
	visits   repository.VisitRepository
	store    session.VisitStore
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewController(patients repository.PatientRepository, visits repository.VisitRepository, store session.VisitStore, m *metrics.Metrics, logger zerolog.Logger) *Controller {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Controller{
		patients: patients,
		visits:   visits,
		store:    store,
		metrics:  m,
		logger:   logger.With().Str("service", "visitform").Logger(),
	}
}

// Load fetches the patient the new visit belongs to.
func (c *Controller) Load(ctx context.Context, patientID model.ID) (*Prefill, error) {
	patient, err := c.patients.Get(ctx, patientID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("Patient", err)
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	return &Prefill{
		Patient: patient,
		Form:    NewForm(),
		Options: model.Options(),
	}, nil
}

// Submit creates the visit. On success the new visit id is remembered for
// scope so the print view can open it without a lookup. On failure form is
// left as it was and no target is returned.
func (c *Controller) Submit(ctx context.Context, scope string, patientID model.ID, form *Form, printAfterSave bool) (*Result, error) {
	input, err := form.Payload()
	if err != nil {
		return nil, err
	}

	visit, err := c.visits.Create(ctx, patientID, input)
	if err != nil {
		return nil, apperrors.WithFallback(err, msgSaveVisit)
	}
	c.metrics.VisitsCreated.Inc()

	if err := c.store.Remember(ctx, scope, patientID, visit.ID); err != nil {
		// The print view fetches the latest visit when nothing is remembered.
		c.logger.Warn().Err(err).Str("patient_id", patientID.String()).Msg("failed to remember created visit")
	}

	c.logger.Info().
		Str("patient_id", patientID.String()).
		Str("visit_id", visit.ID.String()).
		Int("medicines", len(input.Medicines)).
		Msg("visit created")

	next := Target{Kind: NextPatient, PatientID: patientID, Path: "/patients/" + patientID.String() + "/chart"}
	if printAfterSave {
		next = Target{Kind: NextPrint, PatientID: patientID, Path: "/patients/" + patientID.String() + "/visits/latest/print"}
	}
	return &Result{Visit: visit, Next: next}, nil
}
