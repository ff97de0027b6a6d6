package printout

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-desk/internal/model"
)

// NA stands in for a missing value on the printed prescription.
const NA = "N/A"

// Document is a prescription laid out for printing. Empty sections are
// empty strings or nil slices and are not printed.
type Document struct {
	PatientName   string   `json:"patient_name"`
	RegNo         string   `json:"reg_no"`
	Age           string   `json:"age"`
	Gender        string   `json:"gender"`
	VisitDate     string   `json:"visit_date"`
	Vitals        string   `json:"vitals,omitempty"`
	Investigation string   `json:"investigation,omitempty"`
	Complaints    string   `json:"complaints,omitempty"`
	Diagnosis     string   `json:"diagnosis,omitempty"`
	Medicines     []Line   `json:"medicines,omitempty"`
	Advice        string   `json:"advice,omitempty"`
	Tests         []string `json:"tests,omitempty"`
	NextVisit     string   `json:"next_visit,omitempty"`
}

// Line is one row of the Rx table.
type Line struct {
	No          int    `json:"no"`
	Name        string `json:"name"`
	Composition string `json:"composition,omitempty"`
	Note        string `json:"note,omitempty"`
	Dosage      string `json:"dosage"`
	Timing      string `json:"timing"`
	Qty         string `json:"qty"`
}

// Render lays out visit for patient. now is the moment age is computed at.
// It reads its arguments only.
func Render(patient model.Patient, visit model.Visit, now time.Time) Document {
	doc := Document{
		PatientName: patient.FullName,
		RegNo:       orNA(patient.RegNo),
		Gender:      orNA(patient.Gender),
	}
	if years, ok := patient.AgeAt(now); ok {
		doc.Age = strconv.Itoa(years)
	}

	var visitDay string
	if visit.VisitDate != nil {
		doc.VisitDate = visit.VisitDate.Format(model.DisplayDateTime)
		visitDay = visit.VisitDate.Format(model.DisplayDate)
	}

	if visit.Vitals.Any() {
		doc.Vitals = vitalsLine(visit.Vitals)
	}
	if s := model.Deref(visit.PastInvestigation); s != "" {
		doc.Investigation = s
		if visitDay != "" {
			doc.Investigation = "[" + visitDay + "] " + s
		}
	}
	doc.Complaints = model.Deref(visit.Complaints)
	doc.Diagnosis = model.Deref(visit.Diagnosis)
	doc.Advice = model.Deref(visit.Advice)

	for i, m := range visit.Medicines {
		doc.Medicines = append(doc.Medicines, Line{
			No:          i + 1,
			Name:        m.Name,
			Composition: m.Type,
			Note:        m.Note,
			Dosage:      orNA(m.Dosage),
			Timing:      Timing(m.Medicine),
			Qty:         intOrNA(m.Qty),
		})
	}

	if len(visit.TestRequested) > 0 {
		doc.Tests = append([]string(nil), visit.TestRequested...)
	}
	doc.NextVisit = NextVisit(visit.Plan)
	return doc
}

// Timing builds the "when - frequency - duration Days" cell.
func Timing(m model.Medicine) string {
	return fmt.Sprintf("%s - %s - %s Days", orNA(m.WhenToTake), orNA(m.Frequency), intOrNA(m.DurationDays))
}

// NextVisit is the follow-up line, or "" when no follow-up was planned.
func NextVisit(p model.Plan) string {
	var date string
	if p.NextVisitDate != nil && !p.NextVisitDate.IsZero() {
		date = p.NextVisitDate.Format(model.DisplayDate)
	}
	switch {
	case p.NextVisitDays != nil && date != "":
		return fmt.Sprintf("After %d days on %s", *p.NextVisitDays, date)
	case p.NextVisitDays != nil:
		return fmt.Sprintf("After %d days", *p.NextVisitDays)
	default:
		return date
	}
}

// vitalsLine prints the recorded vitals only.
func vitalsLine(v model.Vitals) string {
	var parts []string
	if v.BPSystolic != nil || v.BPDiastolic != nil {
		parts = append(parts, fmt.Sprintf("BP %s/%s mmHg", intOr(v.BPSystolic, "-"), intOr(v.BPDiastolic, "-")))
	}
	if v.Pulse != nil {
		parts = append(parts, "Pulse "+strconv.Itoa(*v.Pulse)+" bpm")
	}
	if v.HeightCm != nil {
		parts = append(parts, "Height "+decimal(*v.HeightCm)+" cm")
	}
	if v.WeightKg != nil {
		parts = append(parts, "Weight "+decimal(*v.WeightKg)+" kg")
	}
	if v.TempC != nil {
		parts = append(parts, "Temperature "+decimal(*v.TempC)+" °F")
	}
	if v.BMI != nil {
		parts = append(parts, "BMI "+decimal(*v.BMI)+" kg/m²")
	}
	if v.SpO2 != nil {
		parts = append(parts, "SpO₂ "+strconv.Itoa(*v.SpO2)+" %")
	}
	return strings.Join(parts, " | ")
}

func orNA(s string) string {
	if s == "" {
		return NA
	}
	return s
}

func intOrNA(n *int) string {
	return intOr(n, NA)
}

func intOr(n *int, blank string) string {
	if n == nil {
		return blank
	}
	return strconv.Itoa(*n)
}

func decimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
