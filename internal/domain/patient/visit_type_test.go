package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVisitIndex(t *testing.T) {
	tests := []struct {
		name   string
		visits []Visit
		want   int
	}{
		{"empty", nil, -1},
		{"out of insertion order", []Visit{
			visitOn("a", "2024-01-01"),
			visitOn("b", "2024-03-01"),
			visitOn("c", "2024-02-01"),
		}, 1},
		{"tie keeps first", []Visit{
			visitOn("a", "2024-03-01"),
			visitOn("b", "2024-03-01"),
		}, 0},
		{"undated ignored", []Visit{
			visitOn("a", "2024-01-01"),
			{VisitID: "b"},
		}, 0},
		{"nothing dated falls back to last", []Visit{
			{VisitID: "a"},
			visitOn("b", "junk"),
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LatestVisitIndex(tt.visits))
		})
	}
}

func TestApplyVisitTypeChange(t *testing.T) {
	p := &Patient{
		VisitType:    "visit",
		VisitUrgency: UrgencyNormal,
		Visits: []Visit{
			{VisitID: "a", Date: ParseVisitDate("2024-01-01"), VisitType: "visit"},
			{VisitID: "b", Date: ParseVisitDate("2024-03-01"), VisitType: "visit"},
			{VisitID: "c", Date: ParseVisitDate("2024-02-01"), VisitType: "visit"},
		},
	}
	change := VisitTypeChange{
		FromType:    "visit",
		ToType:      "revisit",
		FromUrgency: UrgencyNormal,
		ToUrgency:   UrgencyUrgent,
		OldPrice:    500,
		NewPrice:    300,
		ChangedBy:   "doc-1",
		ChangedAt:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	idx := p.ApplyVisitTypeChange(change)
	require.Equal(t, 1, idx)

	assert.Equal(t, "revisit", p.VisitType)
	assert.Equal(t, UrgencyUrgent, p.VisitUrgency)
	assert.Equal(t, "visit", p.Visits[0].VisitType)
	assert.Equal(t, "revisit", p.Visits[1].VisitType)
	assert.Equal(t, "visit", p.Visits[2].VisitType)
	require.Len(t, p.VisitTypeChangeHistory, 1)
	assert.Equal(t, change, p.VisitTypeChangeHistory[0])

	p.ApplyVisitTypeChange(VisitTypeChange{FromType: "revisit", ToType: "visit", ToUrgency: UrgencyNormal})
	assert.Len(t, p.VisitTypeChangeHistory, 2, "history is append-only")
	assert.Equal(t, change, p.VisitTypeChangeHistory[0])
}

func TestApplyVisitTypeChange_NoVisits(t *testing.T) {
	p := &Patient{}
	assert.Equal(t, -1, p.ApplyVisitTypeChange(VisitTypeChange{ToType: "revisit"}))
	assert.Equal(t, "revisit", p.VisitType)
}

func TestApplyDefaults(t *testing.T) {
	p := &Patient{Visits: []Visit{{VisitID: "a"}}}
	p.ApplyDefaults()
	assert.Equal(t, StatusWaiting, p.Status)
	assert.Equal(t, DefaultVisitType, p.VisitType)
	assert.Equal(t, UrgencyNormal, p.VisitUrgency)
	assert.NotNil(t, p.VisitTypeChangeHistory)
	assert.NotNil(t, p.Visits[0].Receipts)
}
