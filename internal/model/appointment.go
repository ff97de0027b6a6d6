package model

import (
	"strings"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Label is the capitalised status as shown on badges.
func (s AppointmentStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

type Appointment struct {
	ID                  ID                `json:"id"`
	PatientID           ID                `json:"patient_id"`
	DoctorID            ID                `json:"doctor_id,omitempty"`
	AppointmentDatetime time.Time         `json:"appointment_datetime"`
	Status              AppointmentStatus `json:"status"`
	Patient             *Patient          `json:"patient,omitempty"`
}

// CreateAppointmentRequest is what the scheduling form submits. Date and
// Time are the raw values of the date and time inputs.
type CreateAppointmentRequest struct {
	PatientID ID     `json:"patient_id" binding:"required"`
	DoctorID  ID     `json:"doctor_id"`
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	Time      string `json:"time" binding:"required,datetime=15:04"`
}

// AppointmentInput is the body sent to the backend.
type AppointmentInput struct {
	AppointmentDatetime time.Time `json:"appointment_datetime"`
	DoctorID            *ID       `json:"doctor_id,omitempty"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=scheduled completed cancelled"`
}
