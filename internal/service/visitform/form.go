package visitform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jwalitptl/clinic-desk/internal/model"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
)

// InitialMedicineRows is how many blank prescription lines a new form shows.
const InitialMedicineRows = 4

type fieldKind int

const (
	kindText fieldKind = iota
	kindInt
	kindDecimal
	kindDate
	kindTests
)

// Field names accepted by Form.Set. They match the payload keys except for
// test_requested_text, which holds the raw comma-separated text.
var fields = map[string]fieldKind{
	"bp_systolic":         kindInt,
	"bp_diastolic":        kindInt,
	"pulse":               kindInt,
	"temp_c":              kindDecimal,
	"spo2":                kindInt,
	"weight_kg":           kindDecimal,
	"height_cm":           kindDecimal,
	"bmi":                 kindDecimal,
	"lmp":                 kindDate,
	"edd":                 kindDate,
	"gestational_weeks":   kindInt,
	"gestational_days":    kindInt,
	"complaints":          kindText,
	"past_history":        kindText,
	"rs_exam":             kindText,
	"cvs_exam":            kindText,
	"per_abdomen":         kindText,
	"cns_exam":            kindText,
	"breast_exam":         kindText,
	"per_speculum":        kindText,
	"per_vaginal":         kindText,
	"menstrual_info":      kindText,
	"past_investigation":  kindText,
	"diagnosis":           kindText,
	"advice":              kindText,
	"test_requested_text": kindTests,
	"next_visit_days":     kindInt,
	"next_visit_date":     kindDate,
}

// MedicineInput is one prescription line exactly as typed.
type MedicineInput struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	WhenToTake   string `json:"when_to_take"`
	Frequency    string `json:"frequency"`
	DurationDays string `json:"duration_days"`
	Qty          string `json:"qty"`
	Note         string `json:"note"`
}

// Form is the raw state of the visit entry form. Every value is the string
// the control holds; nothing is typed until Payload.
type Form struct {
	Fields    map[string]string `json:"fields"`
	Medicines []MedicineInput   `json:"medicines"`
}

func NewForm() *Form {
	return &Form{
		Fields:    map[string]string{},
		Medicines: make([]MedicineInput, InitialMedicineRows),
	}
}

func (f *Form) Get(name string) string {
	return f.Fields[name]
}

// Set records a control change. Changing weight or height re-derives bmi;
// setting bmi itself never does.
func (f *Form) Set(name, value string) error {
	if _, ok := fields[name]; !ok {
		return apperrors.NewValidation(name, fmt.Sprintf("unknown field %q", name))
	}
	if f.Fields == nil {
		f.Fields = map[string]string{}
	}
	f.Fields[name] = value

	if name == "weight_kg" || name == "height_cm" {
		f.Fields["bmi"] = BMI(f.Fields["weight_kg"], f.Fields["height_cm"])
	}
	return nil
}

func (f *Form) AddMedicine() {
	f.Medicines = append(f.Medicines, MedicineInput{})
}

func (f *Form) RemoveMedicine(index int) error {
	if index < 0 || index >= len(f.Medicines) {
		return apperrors.NewValidation("medicines", fmt.Sprintf("no medicine row %d", index))
	}
	f.Medicines = append(f.Medicines[:index], f.Medicines[index+1:]...)
	return nil
}

// BMI returns weight/(height in m)^2 with one decimal, or "" unless both
// values start with a non-zero number.
func BMI(weightKg, heightCm string) string {
	w, okW := leadingDecimal(weightKg)
	h, okH := leadingDecimal(heightCm)
	if !okW || !okH || w == 0 || h == 0 {
		return ""
	}
	m := h / 100
	return oneDecimal(w / (m * m))
}

// oneDecimal formats v with one decimal place, rounding an exact half away
// from zero rather than to even.
func oneDecimal(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	// 40 places is past the last significant digit of any float64 in range.
	exact := strconv.FormatFloat(v, 'f', 40, 64)
	dot := strings.IndexByte(exact, '.')
	tenths, _ := strconv.ParseFloat(exact[:dot+2], 64)
	if exact[dot+2] >= '5' {
		tenths += 0.1
	}
	return sign + strconv.FormatFloat(tenths, 'f', 1, 64)
}

// numericPrefix returns the longest leading number in s: an optional sign
// and digits, plus a fraction and exponent unless whole is set. Trailing
// text such as a unit is ignored. It returns "" when s has no leading digits.
func numericPrefix(s string, whole bool) string {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := func() int {
		n := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			n++
		}
		return n
	}

	n := digits()
	if !whole && i < len(s) && s[i] == '.' {
		i++
		n += digits()
	}
	if n == 0 {
		return ""
	}
	if !whole && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		mark := i
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if digits() == 0 {
			i = mark
		}
	}
	return s[:i]
}

func leadingDecimal(s string) (float64, bool) {
	prefix := numericPrefix(s, false)
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Payload converts the form to the create-visit body. Numbers are read from
// the leading digits of each value and become null when there are none. The
// first date that does not parse, or whole number out of range, is reported
// as a validation error naming the field.
func (f *Form) Payload() (*model.VisitInput, error) {
	p := parser{values: f.Fields}
	in := &model.VisitInput{}

	in.BPSystolic = p.int("bp_systolic")
	in.BPDiastolic = p.int("bp_diastolic")
	in.Pulse = p.int("pulse")
	in.TempC = p.decimal("temp_c")
	in.SpO2 = p.int("spo2")
	in.WeightKg = p.decimal("weight_kg")
	in.HeightCm = p.decimal("height_cm")
	in.BMI = p.decimal("bmi")

	in.LMP = p.date("lmp")
	in.EDD = p.date("edd")
	in.GestationalWeeks = p.int("gestational_weeks")
	in.GestationalDays = p.int("gestational_days")

	in.Complaints = p.text("complaints")
	in.PastHistory = p.text("past_history")
	in.RSExam = p.text("rs_exam")
	in.CVSExam = p.text("cvs_exam")
	in.PerAbdomen = p.text("per_abdomen")
	in.CNSExam = p.text("cns_exam")
	in.BreastExam = p.text("breast_exam")
	in.PerSpeculum = p.text("per_speculum")
	in.PerVaginal = p.text("per_vaginal")
	in.MenstrualInfo = p.text("menstrual_info")
	in.PastInvestigation = p.text("past_investigation")
	in.Diagnosis = p.text("diagnosis")
	in.Advice = p.text("advice")

	in.TestRequested = model.ParseTestList(p.values["test_requested_text"])
	in.NextVisitDays = p.int("next_visit_days")
	in.NextVisitDate = p.date("next_visit_date")

	rows, err := f.medicineRows()
	if err != nil {
		return nil, err
	}
	in.Medicines = model.CompleteList(rows).Rows()
	if in.Medicines == nil {
		in.Medicines = []model.MedicinePayload{}
	}

	if p.err != nil {
		return nil, p.err
	}
	return in, nil
}

// medicineRows types the submittable lines. Blank lines are skipped before
// their numbers are looked at.
func (f *Form) medicineRows() ([]model.MedicineRow, error) {
	rows := make([]model.MedicineRow, 0, len(f.Medicines))
	for i, m := range f.Medicines {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		p := parser{values: map[string]string{
			"duration_days": m.DurationDays,
			"qty":           m.Qty,
		}, prefix: fmt.Sprintf("medicines[%d].", i)}
		row := model.NewMedicine(model.Medicine{
			Type:         m.Type,
			Name:         m.Name,
			Dosage:       m.Dosage,
			WhenToTake:   m.WhenToTake,
			Frequency:    m.Frequency,
			DurationDays: p.int("duration_days"),
			Qty:          p.int("qty"),
			Note:         m.Note,
		})
		if p.err != nil {
			return nil, p.err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parser reads raw values and keeps the first parse failure.
type parser struct {
	values map[string]string
	prefix string
	err    error
}

func (p *parser) fail(name, format string) {
	if p.err == nil {
		p.err = apperrors.NewValidation(p.prefix+name, fmt.Sprintf(format, p.prefix+name))
	}
}

// int takes the leading digits: "7.9" is 7 and "72 bpm" is 72.
func (p *parser) int(name string) *int {
	prefix := numericPrefix(p.values[name], true)
	if prefix == "" {
		return nil
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		p.fail(name, "%s is out of range")
		return nil
	}
	return &n
}

func (p *parser) decimal(name string) *float64 {
	f, ok := leadingDecimal(p.values[name])
	if !ok {
		return nil
	}
	return &f
}

func (p *parser) date(name string) *model.Date {
	raw := strings.TrimSpace(p.values[name])
	if raw == "" {
		return nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		p.fail(name, "%s must be a date (YYYY-MM-DD)")
		return nil
	}
	return &d
}

func (p *parser) text(name string) *string {
	return model.StringPtr(p.values[name])
}
