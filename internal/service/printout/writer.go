package printout

import (
	"fmt"
	"io"
	"strconv"
	"text/template"

	"github.com/xuri/excelize/v2"
)

const (
	FormatText = "text"
	FormatXLSX = "xlsx"
)

var textLayout = template.Must(template.New("prescription").Parse(
	`Name: {{.PatientName}}
Reg. No: {{.RegNo}}
Age: {{if .Age}}{{.Age}} years{{end}} | Gender: {{.Gender}}
Date & Time: {{.VisitDate}}
{{- if .Vitals}}

{{.Vitals}}
{{- end}}
{{- if .Investigation}}

{{.Investigation}}
{{- end}}
{{- if .Complaints}}

Complaints: {{.Complaints}}
{{- end}}
{{- if .Diagnosis}}

Diagnosis: {{.Diagnosis}}
{{- end}}
{{- if .Medicines}}

Rx
{{- range .Medicines}}
{{.No}}) {{.Name}}{{if .Composition}} [{{.Composition}}]{{end}}
   Dosage: {{.Dosage}} | {{.Timing}} | Qty: {{.Qty}}
{{- if .Note}}
   Note: {{.Note}}
{{- end}}
{{- end}}
{{- end}}
{{- if .Advice}}

Advice: {{.Advice}}
{{- end}}
{{- if .Tests}}

Tests Prescribed:
{{- range .Tests}}
 - {{.}}
{{- end}}
{{- end}}
{{- if .NextVisit}}

Follow-up / Next Visit: {{.NextVisit}}
{{- end}}
`))

// WriteText prints doc as plain text.
func WriteText(w io.Writer, doc Document) error {
	if err := textLayout.Execute(w, doc); err != nil {
		return fmt.Errorf("failed to render prescription: %w", err)
	}
	return nil
}

const sheetName = "Prescription"

// WriteXLSX writes doc as a one-sheet workbook.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create label style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw := sheetWriter{f: f}
	sw.pair(bold, "Name", doc.PatientName)
	sw.pair(bold, "Reg. No", doc.RegNo)
	age := ""
	if doc.Age != "" {
		age = doc.Age + " years"
	}
	sw.pair(bold, "Age", age)
	sw.pair(bold, "Gender", doc.Gender)
	sw.pair(bold, "Date & Time", doc.VisitDate)
	sw.optional(bold, "Vitals", doc.Vitals)
	sw.optional(bold, "Investigation", doc.Investigation)
	sw.optional(bold, "Complaints", doc.Complaints)
	sw.optional(bold, "Diagnosis", doc.Diagnosis)

	if len(doc.Medicines) > 0 {
		sw.row++
		sw.cells(header, "#", "Medicine", "Composition", "Dosage", "Timing - Freq - Duration", "Qty", "Note")
		for _, l := range doc.Medicines {
			sw.cells(0, strconv.Itoa(l.No), l.Name, l.Composition, l.Dosage, l.Timing, l.Qty, l.Note)
		}
		sw.row++
	}

	sw.optional(bold, "Advice", doc.Advice)
	for i, t := range doc.Tests {
		label := ""
		if i == 0 {
			label = "Tests Prescribed"
		}
		sw.pair(bold, label, t)
	}
	sw.optional(bold, "Follow-up / Next Visit", doc.NextVisit)

	if sw.err != nil {
		return fmt.Errorf("failed to fill sheet: %w", sw.err)
	}
	if err := f.SetColWidth(sheetName, "A", "A", 22); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "G", 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter fills rows top to bottom and keeps the first error.
type sheetWriter struct {
	f   *excelize.File
	row int
	err error
}

func (s *sheetWriter) cells(style int, values ...string) {
	if s.err != nil {
		return
	}
	s.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			s.err = err
			return
		}
		if err := s.f.SetCellValue(sheetName, cell, v); err != nil {
			s.err = err
			return
		}
		if style != 0 {
			if err := s.f.SetCellStyle(sheetName, cell, cell, style); err != nil {
				s.err = err
				return
			}
		}
	}
}

func (s *sheetWriter) pair(labelStyle int, label, value string) {
	if s.err != nil {
		return
	}
	s.row++
	row := strconv.Itoa(s.row)
	if err := s.f.SetCellValue(sheetName, "A"+row, label); err != nil {
		s.err = err
		return
	}
	if err := s.f.SetCellStyle(sheetName, "A"+row, "A"+row, labelStyle); err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(sheetName, "B"+row, value)
}

func (s *sheetWriter) optional(labelStyle int, label, value string) {
	if value != "" {
		s.pair(labelStyle, label, value)
	}
}
