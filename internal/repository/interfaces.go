package repository

import (
	"context"

	"github.com/jwalitptl/clinic-desk/internal/model"
)

type PatientRepository interface {
	Get(ctx context.Context, id model.ID) (*model.Patient, error)
	List(ctx context.Context, filters model.PatientFilters) (*model.PatientPage, error)
	Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
}

type VisitRepository interface {
	// ListByPatient returns the patient's visits, most recent first.
	ListByPatient(ctx context.Context, patientID model.ID) ([]model.Visit, error)
	Create(ctx context.Context, patientID model.ID, input *model.VisitInput) (*model.Visit, error)
	// Get looks the visit up under its patient and falls back to the flat
	// visit lookup when that fails.
	Get(ctx context.Context, patientID, visitID model.ID) (*model.Visit, error)
	// ReplaceMedicines overwrites the visit's whole prescription with list and
	// returns the backend's canonical rows. A nil result means the backend
	// did not echo the list.
	ReplaceMedicines(ctx context.Context, visitID model.ID, list model.FullMedicineList) ([]model.MedicineRow, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, patientID model.ID, input *model.AppointmentInput) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id model.ID, status model.AppointmentStatus) (*model.Appointment, error)
}

type DoctorRepository interface {
	List(ctx context.Context) ([]model.Doctor, error)
}
