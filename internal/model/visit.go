package model

import (
	"encoding/json"
	"strings"
	"time"
)

// TestList is the ordered list of requested investigations. A nil list is
// "not set" and encodes as null.
type TestList []string

// UnmarshalJSON accepts an array, null, or a single comma-separated string
// (older records stored the raw text).
func (l *TestList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseTestList(s)
	return nil
}

// ParseTestList splits comma-separated text into trimmed non-empty entries.
// Empty input yields nil.
func ParseTestList(text string) TestList {
	if text == "" {
		return nil
	}
	out := TestList{}
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Vitals are the measurements taken at a visit.
type Vitals struct {
	BPSystolic  *int     `json:"bp_systolic"`
	BPDiastolic *int     `json:"bp_diastolic"`
	Pulse       *int     `json:"pulse"`
	TempC       *float64 `json:"temp_c"`
	SpO2        *int     `json:"spo2"`
	WeightKg    *float64 `json:"weight_kg"`
	HeightCm    *float64 `json:"height_cm"`
	BMI         *float64 `json:"bmi"`
}

// Any reports whether at least one vital was recorded.
func (v Vitals) Any() bool {
	return v.BPSystolic != nil || v.BPDiastolic != nil || v.Pulse != nil || v.TempC != nil ||
		v.SpO2 != nil || v.WeightKg != nil || v.HeightCm != nil || v.BMI != nil
}

// Obstetric holds pregnancy dating.
type Obstetric struct {
	LMP              *Date `json:"lmp"`
	EDD              *Date `json:"edd"`
	GestationalWeeks *int  `json:"gestational_weeks"`
	GestationalDays  *int  `json:"gestational_days"`
}

// ClinicalNotes are the free-text sections of a visit.
type ClinicalNotes struct {
	Complaints        *string `json:"complaints"`
	PastHistory       *string `json:"past_history"`
	RSExam            *string `json:"rs_exam"`
	CVSExam           *string `json:"cvs_exam"`
	PerAbdomen        *string `json:"per_abdomen"`
	CNSExam           *string `json:"cns_exam"`
	BreastExam        *string `json:"breast_exam"`
	PerSpeculum       *string `json:"per_speculum"`
	PerVaginal        *string `json:"per_vaginal"`
	MenstrualInfo     *string `json:"menstrual_info"`
	PastInvestigation *string `json:"past_investigation"`
	Diagnosis         *string `json:"diagnosis"`
	Advice            *string `json:"advice"`
}

// Plan is the follow-up part of a visit. Days and date are independent.
type Plan struct {
	TestRequested TestList `json:"test_requested"`
	NextVisitDays *int     `json:"next_visit_days"`
	NextVisitDate *Date    `json:"next_visit_date"`
}

// HasNextVisit reports whether either follow-up field is set.
func (p Plan) HasNextVisit() bool {
	return p.NextVisitDays != nil || (p.NextVisitDate != nil && !p.NextVisitDate.IsZero())
}

// VisitInput is the body of a create-visit call.
type VisitInput struct {
	Vitals
	Obstetric
	ClinicalNotes
	Plan
	Medicines []MedicinePayload `json:"medicines"`
}

// Visit is one clinical encounter as stored by the backend. Its identity
// (ID, PatientID, VisitNo) never changes after creation; only Medicines are
// replaced afterwards.
type Visit struct {
	ID        ID         `json:"id"`
	PatientID ID         `json:"patient_id"`
	VisitNo   int        `json:"visit_no"`
	VisitDate *time.Time `json:"visit_date"`
	Vitals
	Obstetric
	ClinicalNotes
	Plan
	Medicines []MedicineRow `json:"Medicines"`
}

// UnmarshalJSON also accepts the medicine list under "medicines".
func (v *Visit) UnmarshalJSON(data []byte) error {
	type plain Visit
	var aux struct {
		plain
		Lower []MedicineRow `json:"medicines"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*v = Visit(aux.plain)
	if v.Medicines == nil && aux.Lower != nil {
		v.Medicines = aux.Lower
	}
	return nil
}

// WithMedicines returns a copy of v whose medicine list is rows. No other
// field is touched.
func (v Visit) WithMedicines(rows []MedicineRow) Visit {
	v.Medicines = append([]MedicineRow(nil), rows...)
	return v
}

// Clone returns a copy that shares no medicine slice with v.
func (v Visit) Clone() Visit {
	return v.WithMedicines(v.Medicines)
}
