package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk/internal/handler/handlertest"
	"github.com/jwalitptl/clinic-desk/internal/middleware"
	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository/repotest"
	"github.com/jwalitptl/clinic-desk/internal/service/appointment"
)

type fixture struct {
	engine *gin.Engine
	inputs []*model.AppointmentInput
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	repo := &repotest.AppointmentRepository{
		CreateFunc: func(ctx context.Context, patientID model.ID, input *model.AppointmentInput) (*model.Appointment, error) {
			f.inputs = append(f.inputs, input)
			return &model.Appointment{ID: "a1", PatientID: patientID, AppointmentDatetime: input.AppointmentDatetime, Status: model.AppointmentStatus("scheduled")}, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id model.ID, status model.AppointmentStatus) (*model.Appointment, error) {
			return &model.Appointment{ID: id, Status: status}, nil
		},
	}
	doctors := &repotest.DoctorRepository{
		ListFunc: func(ctx context.Context) ([]model.Doctor, error) {
			return []model.Doctor{{ID: "d1", Name: "Dr. Mehta"}}, nil
		},
	}
	svc := appointment.NewService(repo, doctors, time.UTC, zerolog.Nop())
	f.engine = handlertest.NewEngine(t, func(r gin.IRouter) {
		g := r.Group("", middleware.Authenticate())
		NewHandler(svc).RegisterRoutes(g)
	})
	return f
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 7, "role": role}).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateAppointment_Receptionist(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "receptionist")

	w := f.do(t, http.MethodPost, "/appointments", tok, gin.H{"patient_id": "p1", "date": "2026-03-10", "time": "09:30"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "doctor_id", handlertest.Parse(t, w).Field)

	w = f.do(t, http.MethodPost, "/appointments", tok, gin.H{"patient_id": "p1", "doctor_id": "d1", "date": "2026-03-10", "time": "09:30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, f.inputs, 1)
	require.NotNil(t, f.inputs[0].DoctorID)
	assert.Equal(t, model.ID("d1"), *f.inputs[0].DoctorID)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), f.inputs[0].AppointmentDatetime)
}

func TestHandler_CreateAppointment_Doctor(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/appointments", token(t, "doctor"), gin.H{"patient_id": "p1", "doctor_id": "d9", "date": "2026-03-10", "time": "09:30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, f.inputs, 1)
	assert.Nil(t, f.inputs[0].DoctorID, "doctors book for themselves")
}

func TestHandler_CreateAppointment_BadTime(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/appointments", token(t, "doctor"), gin.H{"patient_id": "p1", "date": "10/03/2026", "time": "09:30"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "date", handlertest.Parse(t, w).Field)
	assert.Empty(t, f.inputs)
}

func TestHandler_RequiresToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/doctors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/doctors", "opaque-token", nil)
	require.Equal(t, http.StatusOK, w.Code, "unparseable tokens are still forwarded")

	var out struct {
		Doctors []model.Doctor `json:"doctors"`
	}
	handlertest.Parse(t, w).Decode(t, &out)
	require.Len(t, out.Doctors, 1)
	assert.Equal(t, "Dr. Mehta", out.Doctors[0].Name)
}

func TestHandler_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "receptionist")

	w := f.do(t, http.MethodPut, "/appointments/a1/status", tok, gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var apt model.Appointment
	handlertest.Parse(t, w).Decode(t, &apt)
	assert.Equal(t, model.AppointmentStatus("completed"), apt.Status)

	w = f.do(t, http.MethodPut, "/appointments/a1/status", tok, gin.H{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", handlertest.Parse(t, w).Field)
}
