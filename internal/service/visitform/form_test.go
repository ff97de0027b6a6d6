package visitform

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository/repotest"
	"github.com/jwalitptl/clinic-desk/internal/session"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

func TestNewForm(t *testing.T) {
	f := NewForm()
	assert.Len(t, f.Medicines, InitialMedicineRows)
	assert.Empty(t, f.Fields)
}

func TestForm_BMIFollowsWeightAndHeight(t *testing.T) {
	f := NewForm()

	require.NoError(t, f.Set("weight_kg", "60"))
	assert.Equal(t, "", f.Get("bmi"), "height missing")

	require.NoError(t, f.Set("height_cm", "160"))
	assert.Equal(t, "23.4", f.Get("bmi"))

	require.NoError(t, f.Set("bmi", "25"))
	assert.Equal(t, "25", f.Get("bmi"), "manual bmi is kept")

	require.NoError(t, f.Set("pulse", "80"))
	assert.Equal(t, "25", f.Get("bmi"))

	require.NoError(t, f.Set("height_cm", "0"))
	assert.Equal(t, "", f.Get("bmi"))
}

func TestForm_SetUnknownField(t *testing.T) {
	err := NewForm().Set("blood_group", "O+")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "blood_group", appErr.Field)
}

func TestBMI(t *testing.T) {
	tests := []struct {
		weight, height, want string
	}{
		{"60", "160", "23.4"},
		{"72.5", "175", "23.7"},
		{"", "160", ""},
		{"60", "", ""},
		{"0", "160", ""},
		{"abc", "160", ""},
		{"89", "200", "22.3"},
		{"22.25", "100", "22.3"},
		{"0.25", "100", "0.3"},
		{"0.35", "100", "0.3"},
		{"60kg", "160 cm", "23.4"},
		{"kg60", "160", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BMI(tt.weight, tt.height), "%s/%s", tt.weight, tt.height)
	}
}

func TestForm_Payload(t *testing.T) {
	f := NewForm()
	for name, value := range map[string]string{
		"bp_systolic":         "120",
		"pulse":               "7.9",
		"temp_c":              "37.2",
		"complaints":          "fever",
		"diagnosis":           "",
		"test_requested_text": "CBC, , Urine ,X-Ray",
		"next_visit_days":     "7",
		"lmp":                 "2026-01-10",
	} {
		require.NoError(t, f.Set(name, value))
	}
	f.Medicines[0] = MedicineInput{Name: " Paracetamol ", Dosage: "1-0-1", DurationDays: "5", Qty: ""}
	f.Medicines[2] = MedicineInput{Name: "Cetirizine", WhenToTake: "Before Sleep"}

	in, err := f.Payload()
	require.NoError(t, err)

	require.NotNil(t, in.BPSystolic)
	assert.Equal(t, 120, *in.BPSystolic)
	assert.Nil(t, in.BPDiastolic)
	require.NotNil(t, in.Pulse)
	assert.Equal(t, 7, *in.Pulse)
	require.NotNil(t, in.TempC)
	assert.InDelta(t, 37.2, *in.TempC, 1e-9)
	assert.Equal(t, "fever", model.Deref(in.Complaints))
	assert.Nil(t, in.Diagnosis)
	assert.Equal(t, model.TestList{"CBC", "Urine", "X-Ray"}, in.TestRequested)
	require.NotNil(t, in.NextVisitDays)
	assert.Equal(t, 7, *in.NextVisitDays)
	assert.Nil(t, in.NextVisitDate)
	assert.Equal(t, "2026-01-10", in.LMP.String())

	require.Len(t, in.Medicines, 2)
	assert.Equal(t, "Paracetamol", in.Medicines[0].Name)
	assert.Equal(t, 5, *in.Medicines[0].DurationDays)
	assert.Nil(t, in.Medicines[0].Qty)
	assert.Nil(t, in.Medicines[0].WhenToTake)
	assert.Nil(t, in.Medicines[0].ID)
	assert.Equal(t, "Before Sleep", *in.Medicines[1].WhenToTake)
}

func TestForm_PayloadEmpty(t *testing.T) {
	in, err := NewForm().Payload()
	require.NoError(t, err)
	assert.Nil(t, in.TestRequested)
	assert.NotNil(t, in.Medicines)
	assert.Empty(t, in.Medicines)
	assert.False(t, in.Vitals.Any())
}

func TestForm_PayloadReadsLeadingNumbers(t *testing.T) {
	f := NewForm()
	for name, value := range map[string]string{
		"pulse":     "72 bpm",
		"spo2":      "high",
		"temp_c":    " 98.6F",
		"weight_kg": "-",
		"height_cm": "1.6e2cm",
	} {
		require.NoError(t, f.Set(name, value))
	}
	f.Medicines[1] = MedicineInput{Name: "ORS", Qty: "two", DurationDays: "3 days"}

	in, err := f.Payload()
	require.NoError(t, err)

	require.NotNil(t, in.Pulse)
	assert.Equal(t, 72, *in.Pulse)
	assert.Nil(t, in.SpO2, "no digits means no value")
	require.NotNil(t, in.TempC)
	assert.InDelta(t, 98.6, *in.TempC, 1e-9)
	assert.Nil(t, in.WeightKg)
	require.NotNil(t, in.HeightCm)
	assert.InDelta(t, 160, *in.HeightCm, 1e-9)

	require.Len(t, in.Medicines, 1)
	assert.Nil(t, in.Medicines[0].Qty)
	require.NotNil(t, in.Medicines[0].DurationDays)
	assert.Equal(t, 3, *in.Medicines[0].DurationDays)
}

func TestForm_PayloadRejectsBadDatesAndHugeNumbers(t *testing.T) {
	f := NewForm()
	require.NoError(t, f.Set("edd", "next week"))

	_, err := f.Payload()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "edd", appErr.Field)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	f = NewForm()
	f.Medicines[1] = MedicineInput{Name: "ORS", Qty: "99999999999999999999"}
	_, err = f.Payload()
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "medicines[1].qty", appErr.Field)
}

func TestForm_PayloadIgnoresBlankRowNumbers(t *testing.T) {
	f := NewForm()
	f.Medicines[0] = MedicineInput{Name: "  ", Qty: "two"}

	in, err := f.Payload()
	require.NoError(t, err)
	assert.Empty(t, in.Medicines)
}

func TestForm_RemoveMedicine(t *testing.T) {
	f := NewForm()
	f.AddMedicine()
	f.Medicines[4].Name = "last"
	require.NoError(t, f.RemoveMedicine(0))
	assert.Len(t, f.Medicines, 4)
	assert.Equal(t, "last", f.Medicines[3].Name)
	assert.Error(t, f.RemoveMedicine(9))
}

func newController(patients *repotest.PatientRepository, visits *repotest.VisitRepository) (*Controller, session.VisitStore) {
	store := session.NewMemoryStore(0, metrics.NewNop())
	return NewController(patients, visits, store, metrics.NewNop(), zerolog.Nop()), store
}

func TestController_Load(t *testing.T) {
	patients := &repotest.PatientRepository{
		GetFunc: func(ctx context.Context, id model.ID) (*model.Patient, error) {
			return &model.Patient{ID: id, FullName: "Asha"}, nil
		},
	}
	c, _ := newController(patients, &repotest.VisitRepository{})

	pre, err := c.Load(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Asha", pre.Patient.FullName)
	assert.Len(t, pre.Form.Medicines, InitialMedicineRows)
	assert.Equal(t, model.DosageOptions, pre.Options.Dosage)
}

func TestController_LoadMissingPatient(t *testing.T) {
	patients := &repotest.PatientRepository{
		GetFunc: func(ctx context.Context, id model.ID) (*model.Patient, error) {
			return nil, apperrors.NewUpstream("", "Failed to load patient", 404, errors.New("404"))
		},
	}
	c, _ := newController(patients, &repotest.VisitRepository{})

	_, err := c.Load(context.Background(), "3")
	require.Error(t, err)
	assert.Equal(t, "Patient not found", apperrors.Message(err, ""))
	assert.Equal(t, 404, apperrors.Status(err))
}

func TestController_SubmitRemembersVisit(t *testing.T) {
	var got *model.VisitInput
	visits := &repotest.VisitRepository{
		CreateFunc: func(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
			got = input
			return &model.Visit{ID: "88", PatientID: patientID}, nil
		},
	}
	c, store := newController(&repotest.PatientRepository{}, visits)

	f := NewForm()
	f.Medicines[0].Name = "Amoxicillin"
	res, err := c.Submit(context.Background(), "desk", "3", f, true)
	require.NoError(t, err)

	assert.Len(t, got.Medicines, 1)
	assert.Equal(t, NextPrint, res.Next.Kind)
	assert.Equal(t, "/patients/3/visits/latest/print", res.Next.Path)

	id, ok, err := store.Take(context.Background(), "desk", "3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.ID("88"), id)
}

func TestController_SubmitWithoutPrint(t *testing.T) {
	visits := &repotest.VisitRepository{
		CreateFunc: func(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
			return &model.Visit{ID: "89"}, nil
		},
	}
	c, _ := newController(&repotest.PatientRepository{}, visits)

	res, err := c.Submit(context.Background(), "desk", "3", NewForm(), false)
	require.NoError(t, err)
	assert.Equal(t, NextPatient, res.Next.Kind)
	assert.Equal(t, "/patients/3/chart", res.Next.Path)
}

func TestController_SubmitFailureKeepsForm(t *testing.T) {
	visits := &repotest.VisitRepository{
		CreateFunc: func(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
			return nil, apperrors.NewUpstream("Visit date in future", "Failed to save visit", 422, nil)
		},
	}
	c, store := newController(&repotest.PatientRepository{}, visits)

	f := NewForm()
	require.NoError(t, f.Set("complaints", "cough"))
	f.Medicines[0].Name = "Syrup"

	res, err := c.Submit(context.Background(), "desk", "3", f, true)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, "Visit date in future", apperrors.Message(err, ""))
	assert.Equal(t, "cough", f.Get("complaints"))
	assert.Equal(t, "Syrup", f.Medicines[0].Name)

	_, ok, _ := store.Take(context.Background(), "desk", "3")
	assert.False(t, ok)
}

func TestController_SubmitTransportFailure(t *testing.T) {
	visits := &repotest.VisitRepository{
		CreateFunc: func(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
			return nil, apperrors.NewUpstream("", "", 0, errors.New("connection refused"))
		},
	}
	c, _ := newController(&repotest.PatientRepository{}, visits)

	_, err := c.Submit(context.Background(), "desk", "3", NewForm(), false)
	require.Error(t, err)
	assert.Equal(t, "Failed to save visit", apperrors.Message(err, ""))
}
