package visitdetail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-desk/internal/model"
	"github.com/jwalitptl/clinic-desk/internal/repository/repotest"
)

func TestNextVisitLabel(t *testing.T) {
	date := model.NewDate(2026, 3, 9)

	tests := []struct {
		name string
		plan model.Plan
		want string
	}{
		{"both", model.Plan{NextVisitDays: intp(7), NextVisitDate: &date}, "In 7 days or On 09 Mar 2026"},
		{"days", model.Plan{NextVisitDays: intp(0)}, "In 0 days"},
		{"date", model.Plan{NextVisitDate: &date}, "On 09 Mar 2026"},
		{"neither", model.Plan{}, NotSet},
		{"zero date", model.Plan{NextVisitDate: &model.Date{}}, NotSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextVisitLabel(tt.plan))
		})
	}
}

func TestView(t *testing.T) {
	s := openSession(t, &repotest.VisitRepository{})

	v, err := s.View("v2")
	require.NoError(t, err)
	assert.Equal(t, "03 Feb 2026, 10:15 AM", v.VisitDate)
	assert.Equal(t, "72", v.Vitals.Pulse)
	assert.Equal(t, Blank, v.Vitals.BPSystolic)
	assert.Equal(t, Blank, v.Vitals.BMI)
	assert.Equal(t, Blank, v.Obstetric.LMP)
	assert.Equal(t, NotSet, v.NextVisit)
	require.Len(t, v.Medicines, 2)
	assert.True(t, v.Medicines[0].Saved)
	assert.Equal(t, model.ID("m1"), v.Medicines[0].ID)
	assert.False(t, v.Dirty)
}

func TestView_EmptyPrescriptionShowsPlaceholder(t *testing.T) {
	s := openSession(t, &repotest.VisitRepository{})

	v, err := s.View("v1")
	require.NoError(t, err)
	require.Len(t, v.Medicines, 1)
	assert.True(t, v.Medicines[0].Placeholder)

	raw, err := s.Visit("v1")
	require.NoError(t, err)
	assert.Empty(t, raw.Medicines, "placeholder is display only")
}

func TestChart(t *testing.T) {
	s := openSession(t, &repotest.VisitRepository{})
	require.NoError(t, s.Add("v1", model.Medicine{Name: "ORS"}))

	chart, err := s.Chart()
	require.NoError(t, err)
	require.Len(t, chart.Visits, 2)
	assert.False(t, chart.Visits[0].Dirty)
	assert.True(t, chart.Visits[1].Dirty)
	require.NotNil(t, chart.Selected)
	assert.Equal(t, model.ID("v2"), chart.Selected.ID)
	assert.Equal(t, model.FrequencyOptions, chart.Options.Frequency)
}
