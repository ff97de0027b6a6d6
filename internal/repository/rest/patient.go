package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
)

type patientRepository struct {
	client *Client
}

func NewPatientRepository(client *Client) repository.PatientRepository {
	return &patientRepository{client: client}
}

func (r *patientRepository) Get(ctx context.Context, id model.ID) (*model.Patient, error) {
	var out struct {
		Patient *model.Patient `json:"patient"`
	}
	_, err := r.client.call("get_patient", "Failed to load patient", func() (*resty.Response, error) {
		return r.client.request(ctx, false).
			SetPathParam("id", id.String()).
			SetResult(&out).
			Get("/patients/{id}")
	})
	if err != nil {
		return nil, err
	}
	if out.Patient == nil {
		return nil, apperrors.NewNotFound("Patient", fmt.Errorf("patient %s missing from response", id))
	}
	return out.Patient, nil
}

func (r *patientRepository) List(ctx context.Context, filters model.PatientFilters) (*model.PatientPage, error) {
	p := filters.Pagination.Normalize()
	query := map[string]string{
		"page":  strconv.Itoa(p.Page),
		"limit": strconv.Itoa(p.Limit),
	}
	if filters.Query != "" {
		query["q"] = filters.Query
	}

	var out model.PatientPage
	_, err := r.client.call("list_patients", "Failed to load patients", func() (*resty.Response, error) {
		return r.client.request(ctx, false).
			SetQueryParams(query).
			SetResult(&out).
			Get("/patients")
	})
	if err != nil {
		return nil, err
	}
	if out.Patients == nil {
		out.Patients = []model.Patient{}
	}
	out.Page, out.Limit = p.Page, p.Limit
	return &out, nil
}

func (r *patientRepository) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	resp, err := r.client.call("create_patient", "Failed to register patient", func() (*resty.Response, error) {
		return r.client.request(ctx, true).
			SetBody(req).
			Post("/patients")
	})
	if err != nil {
		return nil, err
	}
	return decodeEnveloped[model.Patient](resp.Body(), "patient")
}

// decodeEnveloped reads {key: T} and falls back to a bare T, since some
// write endpoints echo the record without wrapping it.
func decodeEnveloped[T any](body []byte, key string) (*T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	raw, ok := envelope[key]
	if !ok {
		raw = body
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &out, nil
}
