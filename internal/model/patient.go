package model

import (
	"time"
)

// Patient is the clinic backend's patient record. clinic-desk only reads it,
// except for registration.
type Patient struct {
	ID          ID         `json:"id"`
	Prefix      string     `json:"prefix,omitempty"`
	FullName    string     `json:"full_name"`
	RegNo       string     `json:"reg_no,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	AgeYears    *int       `json:"age_years,omitempty"`
	AgeMonths   *int       `json:"age_months,omitempty"`
	DateOfBirth *Date      `json:"date_of_birth,omitempty"`
	Mobile      string     `json:"mobile,omitempty"`
	Address     string     `json:"address,omitempty"`
	LastVisitAt *time.Time `json:"last_visit_date,omitempty"`
}

// AgeAt returns whole years elapsed between the date of birth and now, one
// less when now falls before the birthday in its year. ok is false when the
// date of birth is unknown.
func (p Patient) AgeAt(now time.Time) (years int, ok bool) {
	if p.DateOfBirth == nil || p.DateOfBirth.IsZero() {
		return 0, false
	}
	dob := p.DateOfBirth.Time
	years = now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years, true
}

// CreatePatientRequest is the registration form.
type CreatePatientRequest struct {
	Prefix   string `json:"prefix" binding:"omitempty,oneof=Mr Mrs Ms Miss Master Baby Dr"`
	FullName string `json:"full_name" binding:"required,notblank"`
	Gender   string `json:"gender" binding:"omitempty,oneof=M F O"`
	Mobile   string `json:"mobile" binding:"required,mobile"`
	AgeYears int    `json:"age_years" binding:"required,gt=0"`
	Address  string `json:"address" binding:"required,notblank"`
}

// PatientFilters narrows a patient search.
type PatientFilters struct {
	Query string `form:"q"`
	Pagination
}

// PatientPage is one page of search results.
type PatientPage struct {
	Patients []Patient `json:"patients"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// Doctor is a selectable practitioner for appointments and visits.
type Doctor struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
