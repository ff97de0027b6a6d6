package visitdetail

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwalitptl/clinic-desk/internal/model"
)

// Blank is shown for a vital that was not recorded.
const Blank = "___"

// NotSet is the next-visit label when no follow-up was planned.
const NotSet = "Not set"

type VitalsView struct {
	BPSystolic  string `json:"bp_systolic"`
	BPDiastolic string `json:"bp_diastolic"`
	Pulse       string `json:"pulse"`
	TempC       string `json:"temp_c"`
	SpO2        string `json:"spo2"`
	WeightKg    string `json:"weight_kg"`
	HeightCm    string `json:"height_cm"`
	BMI         string `json:"bmi"`
}

type ObstetricView struct {
	LMP              string `json:"lmp"`
	EDD              string `json:"edd"`
	GestationalWeeks string `json:"gestational_weeks"`
	GestationalDays  string `json:"gestational_days"`
}

type MedicineView struct {
	Index        int      `json:"index"`
	ID           model.ID `json:"id,omitempty"`
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage"`
	WhenToTake   string   `json:"when_to_take"`
	Frequency    string   `json:"frequency"`
	DurationDays string   `json:"duration_days"`
	Qty          string   `json:"qty"`
	Note         string   `json:"note"`
	Saved        bool     `json:"saved"`
	// Placeholder marks the blank row shown for an empty prescription. It is
	// not part of the visit.
	Placeholder bool `json:"placeholder,omitempty"`
}

// VisitView is a visit laid out for the chart screen.
type VisitView struct {
	ID        model.ID            `json:"id"`
	VisitNo   int                 `json:"visit_no"`
	VisitDate string              `json:"visit_date"`
	Vitals    VitalsView          `json:"vitals"`
	Obstetric ObstetricView       `json:"obstetric"`
	Notes     model.ClinicalNotes `json:"notes"`
	Medicines []MedicineView      `json:"medicines"`
	Tests     string              `json:"tests"`
	NextVisit string              `json:"next_visit"`
	Dirty     bool                `json:"dirty"`
	Error     string              `json:"error,omitempty"`
}

// VisitSummary is one entry of the visit picker.
type VisitSummary struct {
	ID        model.ID `json:"id"`
	VisitNo   int      `json:"visit_no"`
	VisitDate string   `json:"visit_date"`
	Dirty     bool     `json:"dirty"`
}

// Chart is the whole chart screen.
type Chart struct {
	Patient  *model.Patient        `json:"patient"`
	Visits   []VisitSummary        `json:"visits"`
	Selected *VisitView            `json:"selected"`
	Options  model.MedicineOptions `json:"options"`
}

// View lays out one visit with its local edits.
func (s *Session) View(visitID model.ID) (*VisitView, error) {
	st, err := s.state(visitID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	view := project(st.visit)
	view.Error = st.saveErr
	return view, nil
}

// Chart lays out the patient, the visit picker and the selected visit.
func (s *Session) Chart() (*Chart, error) {
	s.mu.RLock()
	patient := s.patient
	states := append([]*visitState(nil), s.states...)
	selected := s.selected
	s.mu.RUnlock()

	chart := &Chart{
		Patient: patient,
		Visits:  make([]VisitSummary, 0, len(states)),
		Options: model.Options(),
	}
	for _, st := range states {
		st.mu.Lock()
		chart.Visits = append(chart.Visits, VisitSummary{
			ID:        st.visit.ID,
			VisitNo:   st.visit.VisitNo,
			VisitDate: formatTime(st.visit),
			Dirty:     dirty(st.visit.Medicines),
		})
		st.mu.Unlock()
	}
	if !selected.IsZero() {
		view, err := s.View(selected)
		if err != nil {
			return nil, err
		}
		chart.Selected = view
	}
	return chart, nil
}

func project(v model.Visit) *VisitView {
	view := &VisitView{
		ID:        v.ID,
		VisitNo:   v.VisitNo,
		VisitDate: formatTime(v),
		Vitals: VitalsView{
			BPSystolic:  intOr(v.BPSystolic, Blank),
			BPDiastolic: intOr(v.BPDiastolic, Blank),
			Pulse:       intOr(v.Pulse, Blank),
			TempC:       floatOr(v.TempC, Blank),
			SpO2:        intOr(v.SpO2, Blank),
			WeightKg:    floatOr(v.WeightKg, Blank),
			HeightCm:    floatOr(v.HeightCm, Blank),
			BMI:         floatOr(v.BMI, Blank),
		},
		Obstetric: ObstetricView{
			LMP:              dateOr(v.LMP, Blank),
			EDD:              dateOr(v.EDD, Blank),
			GestationalWeeks: intOr(v.GestationalWeeks, Blank),
			GestationalDays:  intOr(v.GestationalDays, Blank),
		},
		Notes:     v.ClinicalNotes,
		Tests:     strings.Join(v.TestRequested, ", "),
		NextVisit: NextVisitLabel(v.Plan),
		Dirty:     dirty(v.Medicines),
	}

	view.Medicines = make([]MedicineView, 0, len(v.Medicines))
	for i, r := range v.Medicines {
		id, saved := r.ID()
		view.Medicines = append(view.Medicines, MedicineView{
			Index:        i,
			ID:           id,
			Type:         r.Type,
			Name:         r.Name,
			Dosage:       r.Dosage,
			WhenToTake:   r.WhenToTake,
			Frequency:    r.Frequency,
			DurationDays: intOr(r.DurationDays, ""),
			Qty:          intOr(r.Qty, ""),
			Note:         r.Note,
			Saved:        saved,
		})
	}
	if len(view.Medicines) == 0 {
		view.Medicines = append(view.Medicines, MedicineView{Placeholder: true})
	}
	return view
}

// NextVisitLabel describes the planned follow-up for the chart.
func NextVisitLabel(p model.Plan) string {
	hasDate := p.NextVisitDate != nil && !p.NextVisitDate.IsZero()
	switch {
	case p.NextVisitDays != nil && hasDate:
		return fmt.Sprintf("In %d days or On %s", *p.NextVisitDays, p.NextVisitDate.Format(model.DisplayDate))
	case p.NextVisitDays != nil:
		return fmt.Sprintf("In %d days", *p.NextVisitDays)
	case hasDate:
		return "On " + p.NextVisitDate.Format(model.DisplayDate)
	default:
		return NotSet
	}
}

func formatTime(v model.Visit) string {
	if v.VisitDate == nil {
		return ""
	}
	return v.VisitDate.Format(model.DisplayDateTime)
}

func intOr(v *int, blank string) string {
	if v == nil {
		return blank
	}
	return strconv.Itoa(*v)
}

func floatOr(v *float64, blank string) string {
	if v == nil {
		return blank
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func dateOr(d *model.Date, blank string) string {
	if d == nil || d.IsZero() {
		return blank
	}
	return d.Format(model.DisplayDate)
}
