package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/pkg/auth"
	"github.com/jwalitptl/clinic-desk/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:         srv.URL,
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}, metrics.NewNop(), zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestPatientRepository_Get(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, `{"patient":{"id":7,"full_name":"Asha Rao","reg_no":"R-12","date_of_birth":"1990-05-14T00:00:00.000Z"}}`)
	})

	ctx := auth.WithCaller(context.Background(), auth.Caller{Token: "tok-1"})
	p, err := NewPatientRepository(client).Get(ctx, "7")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/patients/7", gotPath)
	assert.Equal(t, model.ID("7"), p.ID)
	assert.Equal(t, "Asha Rao", p.FullName)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, "1990-05-14", p.DateOfBirth.String())
}

func TestPatientRepository_GetMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"Patient not found"}`)
	})

	_, err := NewPatientRepository(client).Get(context.Background(), "9")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Patient not found", apperrors.Message(err, ""))
	assert.Equal(t, http.StatusNotFound, apperrors.Status(err))
}

func TestPatientRepository_List(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "asha", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, `{"patients":[{"id":"p1","full_name":"Asha"}],"total":11}`)
	})

	page, err := NewPatientRepository(client).List(context.Background(), model.PatientFilters{
		Query:      "asha",
		Pagination: model.Pagination{Page: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Patients, 1)
}

func TestPatientRepository_CreateAcceptsBareRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusCreated, `{"id":31,"full_name":"Ravi"}`)
	})

	p, err := NewPatientRepository(client).Create(context.Background(), &model.CreatePatientRequest{FullName: "Ravi"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("31"), p.ID)
}

func TestVisitRepository_CreateSurfacesServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"message":"bp_systolic out of range"}`)
	})

	_, err := NewVisitRepository(client).Create(context.Background(), "1", &model.VisitInput{})
	require.Error(t, err)
	assert.Equal(t, "bp_systolic out of range", apperrors.Message(err, ""))
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))
}

func TestVisitRepository_CreateFallbackMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{}`)
	})

	_, err := NewVisitRepository(client).Create(context.Background(), "1", &model.VisitInput{})
	require.Error(t, err)
	assert.Equal(t, "Failed to save visit", apperrors.Message(err, ""))
	assert.Equal(t, http.StatusBadGateway, apperrors.Status(err))
}

func TestVisitRepository_GetFallsBackToFlatLookup(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/visits/patients/1/visits/42" {
			writeJSON(w, http.StatusNotFound, `{"message":"Not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"visit":{"id":42,"patient_id":1,"visit_no":3,"medicines":[{"id":5,"name":"Paracetamol"}]}}`)
	})

	v, err := NewVisitRepository(client).Get(context.Background(), "1", "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"/visits/patients/1/visits/42", "/visits/42"}, paths)
	assert.Equal(t, 3, v.VisitNo)
	require.Len(t, v.Medicines, 1)
	id, ok := v.Medicines[0].ID()
	assert.True(t, ok)
	assert.Equal(t, model.ID("5"), id)
}

func TestVisitRepository_GetEmptyEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := NewVisitRepository(client).Get(context.Background(), "1", "42")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "No visit data found", apperrors.Message(err, ""))
}

func TestVisitRepository_ReplaceMedicinesSendsWholeList(t *testing.T) {
	var body map[string][]map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/visits/42/medicines", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, `{"medicines":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`)
	})

	rows := []model.MedicineRow{
		model.PersistedMedicine("1", model.Medicine{Name: "A"}),
		model.NewMedicine(model.Medicine{Name: " B ", Dosage: "1-0-1"}),
		model.NewMedicine(model.Medicine{Name: "  "}),
	}
	saved, err := NewVisitRepository(client).ReplaceMedicines(context.Background(), "42", model.CompleteList(rows))
	require.NoError(t, err)

	require.Len(t, body["medicines"], 2)
	assert.EqualValues(t, "1", body["medicines"][0]["id"])
	assert.Equal(t, "B", body["medicines"][1]["name"])
	assert.Nil(t, body["medicines"][1]["when_to_take"])
	assert.NotContains(t, body["medicines"][1], "id")
	require.Len(t, saved, 2)
}

func TestVisitRepository_ReplaceMedicinesEchoesNumericIDs(t *testing.T) {
	var bodies []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(data))
		writeJSON(w, http.StatusOK, `{"medicines":[{"id":5,"name":"A"}]}`)
	})
	repo := NewVisitRepository(client)

	saved, err := repo.ReplaceMedicines(context.Background(), "42", model.CompleteList([]model.MedicineRow{
		model.NewMedicine(model.Medicine{Name: "A"}),
	}))
	require.NoError(t, err)

	_, err = repo.ReplaceMedicines(context.Background(), "42", model.CompleteList(saved))
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[1], `"id":5`)
}

func TestVisitRepository_ReplaceMedicinesWithoutEcho(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"ok":true}`)
	})

	saved, err := NewVisitRepository(client).ReplaceMedicines(context.Background(), "42", model.CompleteList(nil))
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestVisitRepository_ReplaceMedicinesRejectsOtherSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	_, err := NewVisitRepository(client).ReplaceMedicines(context.Background(), "42", model.CompleteList(nil))
	require.Error(t, err)
	assert.Equal(t, "Failed to save medicines", apperrors.Message(err, ""))
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusServiceUnavailable, `{"message":"down"}`)
	})
	repo := NewDoctorRepository(client)

	for i := 0; i < 2; i++ {
		_, err := repo.List(context.Background())
		require.Error(t, err)
	}
	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Failed to load doctors", apperrors.Message(err, ""))
}

func TestClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"message":"forbidden"}`)
	})
	repo := NewDoctorRepository(client)

	for i := 0; i < 4; i++ {
		_, err := repo.List(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, circuitbreaker.ErrOpen)
	}
	assert.Equal(t, circuitbreaker.StateClosed, client.breaker.State())
}

func TestAppointmentRepository(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/appointments/patients/3/appointments", r.URL.Path)
			var in map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.NotContains(t, in, "doctor_id")
			writeJSON(w, http.StatusCreated, `{"appointment":{"id":9,"patient_id":3,"status":"scheduled","appointment_datetime":"2026-03-01T10:30:00Z"}}`)
		case http.MethodPut:
			assert.Equal(t, "/appointments/9", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"id":9,"status":"completed","appointment_datetime":"2026-03-01T10:30:00Z"}`)
		}
	})
	repo := NewAppointmentRepository(client)

	a, err := repo.Create(context.Background(), "3", &model.AppointmentInput{
		AppointmentDatetime: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, a.Status)

	a, err = repo.UpdateStatus(context.Background(), "9", model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, a.Status)
}
