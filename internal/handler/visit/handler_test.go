package visit

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk/internal/handler/handlertest"
	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository/repotest"
	"github.com/jwalitptl/clinic-desk/internal/service/printout"
	"github.com/jwalitptl/clinic-desk/internal/service/visitform"
	"github.com/jwalitptl/clinic-desk/internal/session"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

type fixture struct {
	engine  *gin.Engine
	visits  *repotest.VisitRepository
	created []*model.VisitInput
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	patients := &repotest.PatientRepository{
		GetFunc: func(ctx context.Context, id model.ID) (*model.Patient, error) {
			if id != "p1" {
				return nil, apperrors.NewUpstream("", "", http.StatusNotFound, nil)
			}
			return &model.Patient{ID: id, FullName: "Asha Rao", RegNo: "R-17", Gender: "F"}, nil
		},
	}
	at := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	f.visits = &repotest.VisitRepository{
		CreateFunc: func(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
			f.created = append(f.created, input)
			return &model.Visit{ID: "v9", PatientID: patientID}, nil
		},
		GetFunc: func(ctx context.Context, patientID, visitID model.ID) (*model.Visit, error) {
			if visitID != "v9" && visitID != "v1" {
				return nil, apperrors.NewUpstream("", "", http.StatusNotFound, nil)
			}
			return &model.Visit{
				ID: visitID, PatientID: patientID, VisitDate: &at,
				Medicines: []model.MedicineRow{
					model.PersistedMedicine("m1", model.Medicine{Name: "Paracetamol", Dosage: "1-0-1"}),
				},
			}, nil
		},
		ListByPatientFunc: func(ctx context.Context, patientID model.ID) ([]model.Visit, error) {
			return []model.Visit{{ID: "v1", PatientID: patientID}}, nil
		},
	}

	store := session.NewMemoryStore(time.Minute, nil)
	m := metrics.NewNop()
	forms := visitform.NewController(patients, f.visits, store, m, zerolog.Nop())
	printer := printout.NewService(patients, f.visits, store, m, zerolog.Nop())

	h := NewHandler(forms, printer)
	f.engine = handlertest.NewEngine(t, h.RegisterRoutes)
	return f
}

func TestHandler_MedicineOptions(t *testing.T) {
	f := newFixture(t)

	w := handlertest.Do(f.engine, http.MethodGet, "/medicine-options", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var opts model.MedicineOptions
	handlertest.Parse(t, w).Decode(t, &opts)
	assert.Equal(t, model.DosageOptions, opts.Dosage)
	assert.Contains(t, opts.Frequency, "Alternate Day")
}

func TestHandler_NewVisit(t *testing.T) {
	f := newFixture(t)

	w := handlertest.Do(f.engine, http.MethodGet, "/patients/p1/visits/new", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var prefill visitform.Prefill
	handlertest.Parse(t, w).Decode(t, &prefill)
	assert.Equal(t, "Asha Rao", prefill.Patient.FullName)
	assert.Len(t, prefill.Form.Medicines, visitform.InitialMedicineRows)

	w = handlertest.Do(f.engine, http.MethodGet, "/patients/p404/visits/new", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Patient not found", handlertest.Parse(t, w).Message)
}

func TestHandler_PreviewBMI(t *testing.T) {
	f := newFixture(t)

	w := handlertest.Do(f.engine, http.MethodPost, "/patients/p1/visits/bmi", gin.H{"weight_kg": "70", "height_cm": "175"})
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]string
	handlertest.Parse(t, w).Decode(t, &out)
	assert.Equal(t, "22.9", out["bmi"])
}

func TestHandler_CreateVisitThenPrintLatest(t *testing.T) {
	f := newFixture(t)

	form := gin.H{
		"fields": gin.H{"pulse": "72", "diagnosis": "Viral fever", "test_requested_text": "CBC, CRP"},
		"medicines": []gin.H{
			{"name": "Paracetamol", "dosage": "1-0-1", "qty": "10"},
			{"name": ""},
		},
	}
	w := handlertest.Do(f.engine, http.MethodPost, "/patients/p1/visits?print=true", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result visitform.Result
	handlertest.Parse(t, w).Decode(t, &result)
	assert.Equal(t, visitform.NextPrint, result.Next.Kind)
	assert.Equal(t, model.ID("v9"), result.Visit.ID)

	require.Len(t, f.created, 1)
	assert.Len(t, f.created[0].Medicines, 1, "blank rows are dropped")
	assert.Equal(t, model.TestList{"CBC", "CRP"}, f.created[0].TestRequested)

	w = handlertest.Do(f.engine, http.MethodGet, "/patients/p1/visits/latest/print", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v9", w.Header().Get(headerVisit), "the visit just saved is printed")
	assert.Contains(t, w.Body.String(), "Asha Rao")
	assert.Contains(t, w.Body.String(), "Paracetamol")

	w = handlertest.Do(f.engine, http.MethodGet, "/patients/p1/visits/latest/print", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", w.Header().Get(headerVisit), "the remembered id is read once")
}

func TestHandler_CreateVisitInvalid(t *testing.T) {
	f := newFixture(t)

	w := handlertest.Do(f.engine, http.MethodPost, "/patients/p1/visits?print=maybe", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = handlertest.Do(f.engine, http.MethodPost, "/patients/p1/visits", gin.H{"fields": gin.H{"pulse": "72 bpm", "lmp": "last month"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "lmp", handlertest.Parse(t, w).Field)
	assert.Empty(t, f.created)
}

func TestHandler_CreateVisitUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.visits.CreateFunc = func(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
		return nil, apperrors.NewUpstream("", "", http.StatusInternalServerError, nil)
	}

	w := handlertest.Do(f.engine, http.MethodPost, "/patients/p1/visits", gin.H{})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to save visit", handlertest.Parse(t, w).Message)
}

func TestHandler_PrintFormats(t *testing.T) {
	f := newFixture(t)

	w := handlertest.Do(f.engine, http.MethodGet, "/patients/p1/visits/v1/print?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "prescription-v1.xlsx")
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"), "xlsx is a zip archive")

	w = handlertest.Do(f.engine, http.MethodGet, "/patients/p1/visits/v1/print?format=json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc printout.Document
	handlertest.Parse(t, w).Decode(t, &doc)
	assert.Equal(t, "Asha Rao", doc.PatientName)
	require.Len(t, doc.Medicines, 1)

	w = handlertest.Do(f.engine, http.MethodGet, "/patients/p1/visits/v1/print?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_PrintMissingVisit(t *testing.T) {
	f := newFixture(t)

	w := handlertest.Do(f.engine, http.MethodGet, "/patients/p1/visits/v404/print", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No visit data found", handlertest.Parse(t, w).Message)
}

func TestHandler_ShareWithoutMail(t *testing.T) {
	f := newFixture(t)

	w := handlertest.Do(f.engine, http.MethodPost, "/patients/p1/visits/v1/share", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email", handlertest.Parse(t, w).Field)

	w = handlertest.Do(f.engine, http.MethodPost, "/patients/p1/visits/v1/share", gin.H{"email": "asha@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Sharing by e-mail is not configured", handlertest.Parse(t, w).Message)
}
