package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Selection vocabularies for prescription lines. The strings are stored by
// the backend and printed as-is, so they must not change.
var (
	DosageOptions    = []string{"0-0-1", "0-1-0", "0-1-1", "1-0-0", "1-0-1", "1-1-0", "1-1-1"}
	WhenOptions      = []string{"After Food", "Before Food", "After Dinner", "Before Dinner", "Early Morning", "Before Sleep"}
	FrequencyOptions = []string{"Daily", "Alternate Day", "Once in Week"}
)

// MedicineOptions groups the vocabularies for selection controls.
type MedicineOptions struct {
	Dosage    []string `json:"dosage"`
	When      []string `json:"when_to_take"`
	Frequency []string `json:"frequency"`
}

// Options returns copies of the vocabularies.
func Options() MedicineOptions {
	return MedicineOptions{
		Dosage:    append([]string(nil), DosageOptions...),
		When:      append([]string(nil), WhenOptions...),
		Frequency: append([]string(nil), FrequencyOptions...),
	}
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// IsDosage reports whether v is empty or one of DosageOptions.
func IsDosage(v string) bool { return v == "" || contains(DosageOptions, v) }

// IsWhen reports whether v is empty or one of WhenOptions.
func IsWhen(v string) bool { return v == "" || contains(WhenOptions, v) }

// IsFrequency reports whether v is empty or one of FrequencyOptions.
func IsFrequency(v string) bool { return v == "" || contains(FrequencyOptions, v) }

// Medicine is the content of one prescription line.
type Medicine struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	WhenToTake   string `json:"when_to_take"`
	Frequency    string `json:"frequency"`
	DurationDays *int   `json:"duration_days"`
	Qty          *int   `json:"qty"`
	Note         string `json:"note"`
}

// IsSubmittable reports whether the line has a name once whitespace is
// trimmed. Lines without one are placeholders and never leave the client.
func (m Medicine) IsSubmittable() bool {
	return strings.TrimSpace(m.Name) != ""
}

// MedicineRow is a prescription line that is either new (no backend id yet)
// or persisted (carries the backend id).
type MedicineRow struct {
	id ID
	// numericID is set when the backend sent id as a JSON number; it is
	// sent back the same way.
	numericID bool
	Medicine
}

// NewMedicine builds a row that has not been saved.
func NewMedicine(m Medicine) MedicineRow {
	return MedicineRow{Medicine: m}
}

// PersistedMedicine builds a row the backend has assigned id to.
func PersistedMedicine(id ID, m Medicine) MedicineRow {
	return MedicineRow{id: id, Medicine: m}
}

// ID returns the backend id and whether the row is persisted.
func (r MedicineRow) ID() (ID, bool) {
	return r.id, !r.id.IsZero()
}

// Persisted reports whether the backend has assigned the row an id.
func (r MedicineRow) Persisted() bool {
	return !r.id.IsZero()
}

// IsSubmittable is the package-level form of Medicine.IsSubmittable.
func IsSubmittable(r MedicineRow) bool {
	return r.Medicine.IsSubmittable()
}

// FilterSubmittable keeps the submittable rows in order. Applying it to its
// own output returns the same rows.
func FilterSubmittable(rows []MedicineRow) []MedicineRow {
	out := make([]MedicineRow, 0, len(rows))
	for _, r := range rows {
		if IsSubmittable(r) {
			out = append(out, r)
		}
	}
	return out
}

// MedicinePayload is the wire shape of a line sent to the backend. Empty
// optional fields travel as null.
type MedicinePayload struct {
	ID           *ID     `json:"id,omitempty"`
	Type         *string `json:"type"`
	Name         string  `json:"name"`
	Dosage       *string `json:"dosage"`
	WhenToTake   *string `json:"when_to_take"`
	Frequency    *string `json:"frequency"`
	DurationDays *int    `json:"duration_days"`
	Qty          *int    `json:"qty"`
	Note         *string `json:"note"`

	numericID bool
}

func (p MedicinePayload) MarshalJSON() ([]byte, error) {
	type wire MedicinePayload
	out := struct {
		ID json.RawMessage `json:"id,omitempty"`
		wire
	}{wire: wire(p)}
	if p.ID != nil {
		out.ID = idJSON(*p.ID, p.numericID)
	}
	return json.Marshal(out)
}

// idJSON encodes id as a number when it arrived as one, else as a string.
func idJSON(id ID, numeric bool) json.RawMessage {
	if numeric {
		return json.RawMessage(id)
	}
	data, _ := json.Marshal(string(id))
	return data
}

// Payload converts the row to its wire shape.
func (r MedicineRow) Payload() MedicinePayload {
	p := MedicinePayload{
		Type:         StringPtr(r.Type),
		Name:         strings.TrimSpace(r.Name),
		Dosage:       StringPtr(r.Dosage),
		WhenToTake:   StringPtr(r.WhenToTake),
		Frequency:    StringPtr(r.Frequency),
		DurationDays: r.DurationDays,
		Qty:          r.Qty,
		Note:         StringPtr(r.Note),
	}
	if id, ok := r.ID(); ok {
		p.ID = &id
		p.numericID = r.numericID
	}
	return p
}

type medicineRowJSON struct {
	ID           json.RawMessage `json:"id"`
	Type         *string         `json:"type"`
	Name         *string         `json:"name"`
	Dosage       *string         `json:"dosage"`
	WhenToTake   *string         `json:"when_to_take"`
	Frequency    *string         `json:"frequency"`
	DurationDays *int            `json:"duration_days"`
	Qty          *int            `json:"qty"`
	Note         *string         `json:"note"`
}

func (r MedicineRow) MarshalJSON() ([]byte, error) {
	out := struct {
		ID json.RawMessage `json:"id,omitempty"`
		Medicine
	}{Medicine: r.Medicine}
	if id, ok := r.ID(); ok {
		out.ID = idJSON(id, r.numericID)
	}
	return json.Marshal(out)
}

func (r *MedicineRow) UnmarshalJSON(data []byte) error {
	var raw medicineRowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var id ID
	if len(raw.ID) > 0 {
		if err := id.UnmarshalJSON(raw.ID); err != nil {
			return err
		}
	}
	raw.ID = bytes.TrimSpace(raw.ID)
	*r = MedicineRow{
		id:        id,
		numericID: !id.IsZero() && raw.ID[0] != '"',
		Medicine: Medicine{
			Type:         Deref(raw.Type),
			Name:         Deref(raw.Name),
			Dosage:       Deref(raw.Dosage),
			WhenToTake:   Deref(raw.WhenToTake),
			Frequency:    Deref(raw.Frequency),
			DurationDays: raw.DurationDays,
			Qty:          raw.Qty,
			Note:         Deref(raw.Note),
		},
	}
	return nil
}

// FullMedicineList is the complete prescription of one visit, as sent to
// the medicines-replace call. It can only be built from a whole row list;
// the backend treats it as authoritative and drops anything not in it.
type FullMedicineList struct {
	rows []MedicinePayload
}

// CompleteList builds the replace payload from every row currently held for
// a visit. Non-submittable rows are dropped.
func CompleteList(rows []MedicineRow) FullMedicineList {
	kept := FilterSubmittable(rows)
	payload := make([]MedicinePayload, 0, len(kept))
	for _, r := range kept {
		payload = append(payload, r.Payload())
	}
	return FullMedicineList{rows: payload}
}

// Len returns the number of lines in the list.
func (l FullMedicineList) Len() int { return len(l.rows) }

// Rows returns a copy of the wire rows.
func (l FullMedicineList) Rows() []MedicinePayload {
	return append([]MedicinePayload(nil), l.rows...)
}

func (l FullMedicineList) MarshalJSON() ([]byte, error) {
	rows := l.rows
	if rows == nil {
		rows = []MedicinePayload{}
	}
	return json.Marshal(struct {
		Medicines []MedicinePayload `json:"medicines"`
	}{rows})
}
