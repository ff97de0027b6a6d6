package rest

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
)

type appointmentRepository struct {
	client *Client
}

func NewAppointmentRepository(client *Client) repository.AppointmentRepository {
	return &appointmentRepository{client: client}
}

func (r *appointmentRepository) Create(ctx context.Context, patientID model.ID, input *model.AppointmentInput) (*model.Appointment, error) {
	resp, err := r.client.call("create_appointment", "Failed to create appointment", func() (*resty.Response, error) {
		return r.client.request(ctx, true).
			SetPathParam("patientId", patientID.String()).
			SetBody(input).
			Post("/appointments/patients/{patientId}/appointments")
	})
	if err != nil {
		return nil, err
	}
	return decodeEnveloped[model.Appointment](resp.Body(), "appointment")
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id model.ID, status model.AppointmentStatus) (*model.Appointment, error) {
	resp, err := r.client.call("update_appointment", "Failed to update status", func() (*resty.Response, error) {
		return r.client.request(ctx, true).
			SetPathParam("id", id.String()).
			SetBody(map[string]model.AppointmentStatus{"status": status}).
			Put("/appointments/{id}")
	})
	if err != nil {
		return nil, err
	}
	return decodeEnveloped[model.Appointment](resp.Body(), "appointment")
}

type doctorRepository struct {
	client *Client
}

func NewDoctorRepository(client *Client) repository.DoctorRepository {
	return &doctorRepository{client: client}
}

func (r *doctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	var out struct {
		Doctors []model.Doctor `json:"doctors"`
	}
	_, err := r.client.call("list_doctors", "Failed to load doctors", func() (*resty.Response, error) {
		return r.client.request(ctx, false).
			SetResult(&out).
			Get("/users/doctors")
	})
	if err != nil {
		return nil, err
	}
	if out.Doctors == nil {
		return []model.Doctor{}, nil
	}
	return out.Doctors, nil
}
