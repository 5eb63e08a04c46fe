package visittype

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
)

func TestResolve_DoctorSettingsWinOverConfiguration(t *testing.T) {
	settings := &doctor.Settings{ConsultationFee: 500}
	cfg := &Configuration{VisitTypes: []Type{
		{TypeID: "visit", Name: "Visit", NameAr: "كشف", NormalPrice: 999, UrgentPrice: 1200},
	}}

	got := Resolve(settings, cfg, "visit", "")
	assert.Equal(t, Resolution{Price: 500, CanonicalName: "Visit", Tier: TierDoctorSettings}, got)

	got = Resolve(settings, cfg, "visit", UrgencyUrgent)
	assert.Equal(t, 500.0, got.Price, "tier 1 has no urgent price")
}

func TestResolve_Synonyms(t *testing.T) {
	settings := &doctor.Settings{ConsultationFee: 400, RevisitFee: 150, EstisharaFee: 250}

	tests := []struct {
		in        string
		wantPrice float64
		wantName  string
	}{
		{"  VISIT ", 400, "Visit"},
		{"كشف", 400, "Visit"},
		{"Re-Visit", 150, "Re-visit"},
		{"follow-up", 150, "Re-visit"},
		{"اعاده كشف", 150, "Re-visit"},
		{"Consultation", 250, "Consultation"},
		{"استشارة", 250, "Consultation"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Resolve(settings, nil, tt.in, "")
			assert.Equal(t, TierDoctorSettings, got.Tier)
			assert.Equal(t, tt.wantPrice, got.Price)
			assert.Equal(t, tt.wantName, got.CanonicalName)
		})
	}
}

func TestResolve_UnsetFeeIsZero(t *testing.T) {
	got := Resolve(&doctor.Settings{ConsultationFee: 400}, nil, "revisit", "")
	assert.Equal(t, Resolution{Price: 0, CanonicalName: "Re-visit", Tier: TierDoctorSettings}, got)
}

func TestResolve_ConfigurationTier(t *testing.T) {
	cfg := &Configuration{VisitTypes: []Type{
		{TypeID: "proc", Name: "Procedure", NameAr: "عملية", NormalPrice: 1000, UrgentPrice: 1500, IsActive: false},
	}}
	settings := &doctor.Settings{ConsultationFee: 400}

	for _, in := range []string{"proc", "Procedure", "عملية"} {
		got := Resolve(settings, cfg, in, UrgencyUrgent)
		assert.Equal(t, Resolution{Price: 1500, CanonicalName: "Procedure", Tier: TierConfiguration}, got, in)
	}

	got := Resolve(settings, cfg, "procedure", "")
	assert.Equal(t, TierDefault, got.Tier, "configuration match is exact")
}

func TestResolve_NoSettingsSkipsTierOne(t *testing.T) {
	cfg := &Configuration{VisitTypes: []Type{{TypeID: "visit", Name: "Visit", NormalPrice: 999}}}
	got := Resolve(nil, cfg, "visit", "")
	assert.Equal(t, Resolution{Price: 999, CanonicalName: "Visit", Tier: TierConfiguration}, got)
}

func TestResolve_BuiltinDefaults(t *testing.T) {
	assert.Equal(t, Resolution{Price: 500, CanonicalName: "Visit", Tier: TierDefault}, Resolve(nil, nil, "Visit", ""))
	assert.Equal(t, Resolution{Price: 300, CanonicalName: "Re-visit", Tier: TierDefault}, Resolve(nil, nil, "revisit", UrgencyUrgent))
	assert.Equal(t, Resolution{Price: 450, CanonicalName: "Consultation", Tier: TierDefault}, Resolve(nil, nil, "consultation", UrgencyUrgent))
	assert.Equal(t, Resolution{Price: 0, CanonicalName: "Laser session", Tier: TierDefault}, Resolve(nil, nil, " Laser session ", UrgencyUrgent))
}

func TestSaveConfigurationCommand_Check(t *testing.T) {
	ok := &SaveConfigurationCommand{VisitTypes: DefaultTypes(), DefaultType: "revisit"}
	assert.NoError(t, ok.Check())

	dup := &SaveConfigurationCommand{VisitTypes: []Type{{TypeID: "a"}, {TypeID: "a"}}}
	assert.ErrorIs(t, dup.Check(), ErrDuplicateTypeID)

	neg := &SaveConfigurationCommand{VisitTypes: []Type{{TypeID: "a", UrgentPrice: -1}}}
	assert.ErrorIs(t, neg.Check(), ErrNegativePrice)

	unknown := &SaveConfigurationCommand{VisitTypes: []Type{{TypeID: "a"}}, DefaultType: "b"}
	assert.ErrorIs(t, unknown.Check(), ErrUnknownDefaultType)
}
