package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk/internal/model"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
)

func validPatient() model.CreatePatientRequest {
	return model.CreatePatientRequest{
		Prefix:   "Mrs",
		FullName: "Asha Rao",
		Gender:   "F",
		Mobile:   "9876543210",
		AgeYears: 34,
		Address:  "12 MG Road",
	}
}

func TestStruct_Patient(t *testing.T) {
	require.NoError(t, Struct(validPatient()))

	tests := []struct {
		name  string
		edit  func(r *model.CreatePatientRequest)
		field string
	}{
		{"blank name", func(r *model.CreatePatientRequest) { r.FullName = "   " }, "full_name"},
		{"short mobile", func(r *model.CreatePatientRequest) { r.Mobile = "98765" }, "mobile"},
		{"mobile prefix", func(r *model.CreatePatientRequest) { r.Mobile = "5876543210" }, "mobile"},
		{"zero age", func(r *model.CreatePatientRequest) { r.AgeYears = 0 }, "age_years"},
		{"negative age", func(r *model.CreatePatientRequest) { r.AgeYears = -2 }, "age_years"},
		{"no address", func(r *model.CreatePatientRequest) { r.Address = "" }, "address"},
		{"gender", func(r *model.CreatePatientRequest) { r.Gender = "X" }, "gender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPatient()
			tt.edit(&req)

			err := Struct(req)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestStruct_MobileMessage(t *testing.T) {
	req := validPatient()
	req.Mobile = "12345"
	assert.Equal(t, "Mobile number must be 10 digits starting with 6, 7, 8 or 9", apperrors.Message(Struct(req), ""))
}

func TestStruct_Vocabulary(t *testing.T) {
	type edit struct {
		Dosage string `json:"dosage" binding:"dosage"`
		When   string `json:"when_to_take" binding:"when"`
	}
	assert.NoError(t, Struct(edit{Dosage: "1-0-1", When: ""}))

	err := Struct(edit{Dosage: "9-9-9"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "dosage", appErr.Field)
}

func TestStruct_Appointment(t *testing.T) {
	ok := model.CreateAppointmentRequest{PatientID: "3", Date: "2026-03-01", Time: "10:30"}
	assert.NoError(t, Struct(ok))

	bad := ok
	bad.Time = "10.30am"
	var appErr *apperrors.AppError
	require.ErrorAs(t, Struct(bad), &appErr)
	assert.Equal(t, "time", appErr.Field)
}

func TestTranslate_PassesOtherErrors(t *testing.T) {
	assert.NoError(t, Translate(nil))
	err := assert.AnError
	assert.Equal(t, err, Translate(err))
}
