// Package repotest provides function-backed repository fakes for tests.
package repotest

import (
	"context"
	"errors"
	"sync"

	"github.com/jwalitptl/clinic-desk/internal/model"
)

var errNotStubbed = errors.New("repotest: call not stubbed")

type PatientRepository struct {
	GetFunc    func(ctx context.Context, id model.ID) (*model.Patient, error)
	ListFunc   func(ctx context.Context, filters model.PatientFilters) (*model.PatientPage, error)
	CreateFunc func(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
}

func (r *PatientRepository) Get(ctx context.Context, id model.ID) (*model.Patient, error) {
	if r.GetFunc == nil {
		return nil, errNotStubbed
	}
	return r.GetFunc(ctx, id)
}

func (r *PatientRepository) List(ctx context.Context, filters model.PatientFilters) (*model.PatientPage, error) {
	if r.ListFunc == nil {
		return nil, errNotStubbed
	}
	return r.ListFunc(ctx, filters)
}

func (r *PatientRepository) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if r.CreateFunc == nil {
		return nil, errNotStubbed
	}
	return r.CreateFunc(ctx, req)
}

type VisitRepository struct {
	ListByPatientFunc    func(ctx context.Context, patientID model.ID) ([]model.Visit, error)
	CreateFunc           func(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error)
	GetFunc              func(ctx context.Context, patientID, visitID model.ID) (*model.Visit, error)
	ReplaceMedicinesFunc func(ctx context.Context, visitID model.ID, list model.FullMedicineList) ([]model.MedicineRow, error)

	mu       sync.Mutex
	Replaced []model.FullMedicineList
}

func (r *VisitRepository) ListByPatient(ctx context.Context, patientID model.ID) ([]model.Visit, error) {
	if r.ListByPatientFunc == nil {
		return nil, errNotStubbed
	}
	return r.ListByPatientFunc(ctx, patientID)
}

func (r *VisitRepository) Create(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error) {
	if r.CreateFunc == nil {
		return nil, errNotStubbed
	}
	return r.CreateFunc(ctx, patientID, input)
}

func (r *VisitRepository) Get(ctx context.Context, patientID, visitID model.ID) (*model.Visit, error) {
	if r.GetFunc == nil {
		return nil, errNotStubbed
	}
	return r.GetFunc(ctx, patientID, visitID)
}

// ReplaceMedicines records every list it is given.
func (r *VisitRepository) ReplaceMedicines(ctx context.Context, visitID model.ID, list model.FullMedicineList) ([]model.MedicineRow, error) {
	r.mu.Lock()
	r.Replaced = append(r.Replaced, list)
	r.mu.Unlock()
	if r.ReplaceMedicinesFunc == nil {
		return nil, errNotStubbed
	}
	return r.ReplaceMedicinesFunc(ctx, visitID, list)
}

type AppointmentRepository struct {
	CreateFunc       func(ctx context.Context, patientID model.ID, input *model.AppointmentInput) (*model.Appointment, error)
	UpdateStatusFunc func(ctx context.Context, id model.ID, status model.AppointmentStatus) (*model.Appointment, error)
}

func (r *AppointmentRepository) Create(ctx context.Context, patientID model.ID, input *model.AppointmentInput) (*model.Appointment, error) {
	if r.CreateFunc == nil {
		return nil, errNotStubbed
	}
	return r.CreateFunc(ctx, patientID, input)
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id model.ID, status model.AppointmentStatus) (*model.Appointment, error) {
	if r.UpdateStatusFunc == nil {
		return nil, errNotStubbed
	}
	return r.UpdateStatusFunc(ctx, id, status)
}

type DoctorRepository struct {
	ListFunc func(ctx context.Context) ([]model.Doctor, error)
}

func (r *DoctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	if r.ListFunc == nil {
		return nil, errNotStubbed
	}
	return r.ListFunc(ctx)
}
