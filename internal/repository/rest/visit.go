package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
)

const (
	msgSaveVisit     = "Failed to save visit"
	msgSaveMedicines = "Failed to save medicines"
	msgLoadVisit     = "Failed to load visit data"
)

type visitRepository struct {
	client *Client
}

func NewVisitRepository(client *Client) repository.VisitRepository {
	return &visitRepository{client: client}
}

type visitEnvelope struct {
	Visit *model.Visit `json:"visit"`
}

func (r *visitRepository) ListByPatient(ctx context.Context, patientID model.ID) ([]model.Visit, error) {
	var out struct {
		Visits []model.Visit `json:"visits"`
	}
	_, err := r.client.call("list_visits", "Failed to load visits", func() (*resty.Response, error) {
		return r.client.request(ctx, false).
			SetPathParam("patientId", patientID.String()).
			SetResult(&out).
			Get("/visits/patients/{patientId}/visits")
	})
	if err != nil {
		return nil, err
	}
	if out.Visits == nil {
		return []model.Visit{}, nil
	}
	return out.Visits, nil
}

func (r *visitRepository) Create(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
	var out visitEnvelope
	_, err := r.client.call("create_visit", msgSaveVisit, func() (*resty.Response, error) {
		return r.client.request(ctx, true).
			SetPathParam("patientId", patientID.String()).
			SetBody(input).
			SetResult(&out).
			Post("/visits/patients/{patientId}/visits")
	})
	if err != nil {
		return nil, err
	}
	if out.Visit == nil || out.Visit.ID.IsZero() {
		return nil, apperrors.NewUpstream("", msgSaveVisit, http.StatusOK,
			fmt.Errorf("create visit: response carried no visit id"))
	}
	return out.Visit, nil
}

func (r *visitRepository) Get(ctx context.Context, patientID, visitID model.ID) (*model.Visit, error) {
	visit, err := r.getNested(ctx, patientID, visitID)
	if err == nil {
		return visit, nil
	}
	r.client.logger.Debug().Err(err).
		Str("patient_id", patientID.String()).
		Str("visit_id", visitID.String()).
		Msg("nested visit lookup failed, trying flat lookup")

	return r.getFlat(ctx, visitID)
}

func (r *visitRepository) getNested(ctx context.Context, patientID, visitID model.ID) (*model.Visit, error) {
	var out visitEnvelope
	_, err := r.client.call("get_patient_visit", msgLoadVisit, func() (*resty.Response, error) {
		return r.client.request(ctx, false).
			SetPathParams(map[string]string{
				"patientId": patientID.String(),
				"visitId":   visitID.String(),
			}).
			SetResult(&out).
			Get("/visits/patients/{patientId}/visits/{visitId}")
	})
	if err != nil {
		return nil, err
	}
	return visitOrNotFound(out, visitID)
}

func (r *visitRepository) getFlat(ctx context.Context, visitID model.ID) (*model.Visit, error) {
	var out visitEnvelope
	_, err := r.client.call("get_visit", msgLoadVisit, func() (*resty.Response, error) {
		return r.client.request(ctx, false).
			SetPathParam("visitId", visitID.String()).
			SetResult(&out).
			Get("/visits/{visitId}")
	})
	if err != nil {
		return nil, err
	}
	return visitOrNotFound(out, visitID)
}

func visitOrNotFound(out visitEnvelope, visitID model.ID) (*model.Visit, error) {
	if out.Visit == nil {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrNotFound,
			Message: "No visit data found",
			Err:     fmt.Errorf("visit %s missing from response", visitID),
		}
	}
	return out.Visit, nil
}

func (r *visitRepository) ReplaceMedicines(ctx context.Context, visitID model.ID, list model.FullMedicineList) ([]model.MedicineRow, error) {
	var out struct {
		Medicines []model.MedicineRow `json:"medicines"`
	}
	resp, err := r.client.call("replace_medicines", msgSaveMedicines, func() (*resty.Response, error) {
		return r.client.request(ctx, true).
			SetPathParam("visitId", visitID.String()).
			SetBody(list).
			SetResult(&out).
			Post("/visits/{visitId}/medicines")
	})
	if err != nil {
		return nil, err
	}
	if code := resp.StatusCode(); code != http.StatusOK && code != http.StatusCreated {
		return nil, apperrors.NewUpstream("", msgSaveMedicines, code,
			fmt.Errorf("replace medicines: unexpected status %d", code))
	}
	return out.Medicines, nil
}
