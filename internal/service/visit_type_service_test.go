package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
)

func consultationBill(id string, fee float64, kind string, createdAt time.Time) *billing.Billing {
	b := &billing.Billing{
		BillingID:        id,
		DoctorID:         "doc-1",
		PatientID:        "p-1",
		PatientName:      "Ali",
		ConsultationFee:  fee,
		ConsultationType: kind,
		Services:         []billing.ServiceItem{},
		PaymentStatus:    billing.StatusPaid,
		PaymentMethod:    billing.MethodCash,
		CreatedAt:        createdAt,
	}
	b.Recalculate()
	b.AmountPaid = b.TotalAmount
	return b
}

func TestChangeVisitType_RepricesBillAndDowngradesPayment(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-06-01", visitAt("v-1", "2024-06-01")))
	_ = env.billings.Insert(context.Background(), consultationBill("b-1", 200, "Re-visit", fixedNow.Add(-time.Hour)))

	res, err := env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{
		DoctorID:  "doc-1",
		PatientID: "p-1",
		VisitType: "visit",
	})
	require.NoError(t, err)

	assert.True(t, res.BillingUpdated)
	assert.Equal(t, 200.0, res.OldPrice)
	assert.Equal(t, 500.0, res.NewPrice)
	assert.Equal(t, "Visit", res.CanonicalType)

	b, err := env.billings.FindOne(context.Background(), "doc-1", "b-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, b.ConsultationFee)
	assert.Equal(t, 500.0, b.TotalAmount)
	assert.Equal(t, 200.0, b.AmountPaid)
	assert.Equal(t, billing.StatusPartial, b.PaymentStatus)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.VisitTypeChanges.WithLabelValues("true")))
}

func TestChangeVisitType_PercentageDiscountFollowsNewSubtotal(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-06-01", visitAt("v-1", "2024-06-01")))

	b := consultationBill("b-1", 200, "Re-visit", fixedNow.Add(-time.Hour))
	b.Services = billing.NewServiceItems([]billing.ServiceItem{{ServiceID: "s", ServiceName: "X-ray", Price: 100}})
	b.Discount = &billing.Discount{Type: billing.DiscountPercentage, Value: 10}
	b.Recalculate()
	b.AmountPaid = b.TotalAmount
	require.Equal(t, 270.0, b.TotalAmount)
	_ = env.billings.Insert(context.Background(), b)

	_, err := env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{
		DoctorID: "doc-1", PatientID: "p-1", VisitType: "visit",
	})
	require.NoError(t, err)

	got, _ := env.billings.FindOne(context.Background(), "doc-1", "b-1")
	assert.Equal(t, 600.0, got.Subtotal)
	assert.Equal(t, 60.0, got.Discount.Amount)
	assert.Equal(t, 540.0, got.TotalAmount)
	assert.Equal(t, 270.0, got.AmountPaid)
	assert.Equal(t, billing.StatusPartial, got.PaymentStatus)
}

func TestChangeVisitType_SkipsServiceAddOnBills(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-06-01", visitAt("v-1", "2024-06-01")))
	_ = env.billings.Insert(context.Background(), consultationBill("consult", 200, "Re-visit", fixedNow.Add(-2*time.Hour)))
	_ = env.billings.Insert(context.Background(), consultationBill("addon", 80, " additional services ", fixedNow.Add(-time.Hour)))

	_, err := env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{
		DoctorID: "doc-1", PatientID: "p-1", VisitType: "visit",
	})
	require.NoError(t, err)

	addon, _ := env.billings.FindOne(context.Background(), "doc-1", "addon")
	assert.Equal(t, 80.0, addon.ConsultationFee)
	consult, _ := env.billings.FindOne(context.Background(), "doc-1", "consult")
	assert.Equal(t, 500.0, consult.ConsultationFee)
}

func TestChangeVisitType_NoBillingWriteWhenUnchanged(t *testing.T) {
	repo := &MockBillingRepository{}
	env := newTestEnvWithBillings(t, repo)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-06-01", visitAt("v-1", "2024-06-01")))

	repo.On("FindMostRecent", mock.Anything, "doc-1", "p-1", testAddOnLabels).
		Return(consultationBill("b-1", 500, "Visit", fixedNow), nil)

	res, err := env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{
		DoctorID: "doc-1", PatientID: "p-1", VisitType: "visit",
	})
	require.NoError(t, err)

	assert.False(t, res.BillingUpdated)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)

	p := env.patients.get("p-1")
	require.Len(t, p.VisitTypeChangeHistory, 1)
	assert.Equal(t, 500.0, p.VisitTypeChangeHistory[0].OldPrice)
}

func TestChangeVisitType_ForbiddenBeforeAnyLookup(t *testing.T) {
	repo := &MockBillingRepository{}
	env := newTestEnvWithBillings(t, repo)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-06-01"))

	_, err := env.svc.VisitType.ChangeVisitType(context.Background(), otherDoctor, &visittype.ChangeVisitTypeCommand{
		DoctorID: "doc-1", PatientID: "p-1", VisitType: "visit",
	})
	assert.ErrorIs(t, err, ErrForbidden)
	repo.AssertNotCalled(t, "FindMostRecent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, env.patients.get("p-1").VisitTypeChangeHistory)
}

func TestChangeVisitType_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{DoctorID: "doc-1"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 2)

	_, err = env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{
		DoctorID: "doc-1", PatientID: "missing", VisitType: "visit",
	})
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
}

func TestChangeVisitType_UpdatesLatestVisitByDate(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-06-01",
		visitAt("newest", "2024-06-01"),
		visitAt("older", "2024-01-01"),
	))

	res, err := env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{
		DoctorID: "doc-1", PatientID: "p-1", VisitType: "revisit", Urgency: patient.UrgencyUrgent, Reason: "follow up",
	})
	require.NoError(t, err)
	assert.False(t, res.BillingUpdated)
	assert.Equal(t, 500.0, res.OldPrice)
	assert.Equal(t, 300.0, res.NewPrice)

	p := env.patients.get("p-1")
	assert.Equal(t, "revisit", p.VisitType)
	assert.Equal(t, patient.UrgencyUrgent, p.VisitUrgency)
	assert.Equal(t, "revisit", p.Visits[0].VisitType)
	assert.Equal(t, "", p.Visits[1].VisitType)

	require.Len(t, p.VisitTypeChangeHistory, 1)
	change := p.VisitTypeChangeHistory[0]
	assert.Equal(t, patient.DefaultVisitType, change.FromType)
	assert.Equal(t, "u-1", change.ChangedBy)
	assert.Equal(t, "follow up", change.Reason)
}

func TestChangeVisitType_DoctorSettingsTierWins(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-06-01", visitAt("v-1", "2024-06-01")))
	env.doctors.docs = map[string]*doctor.Doctor{
		"doc-1": {DoctorID: "doc-1", Settings: doctor.Settings{RevisitFee: 150}},
	}

	res, err := env.svc.VisitType.ChangeVisitType(context.Background(), doctorCaller, &visittype.ChangeVisitTypeCommand{
		DoctorID: "doc-1", PatientID: "p-1", VisitType: " Follow-Up ",
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, res.NewPrice)
	assert.Equal(t, "Re-visit", res.CanonicalType)

	p := env.patients.get("p-1")
	assert.Equal(t, "Follow-Up", p.VisitType)
	assert.Equal(t, "Follow-Up", p.Visits[0].VisitType)
	require.Len(t, p.VisitTypeChangeHistory, 1)
	assert.Equal(t, "Follow-Up", p.VisitTypeChangeHistory[0].ToType)
}

func TestVisitTypeConfiguration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cfg, err := env.svc.VisitType.GetConfiguration(ctx, doctorCaller, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "visit", cfg.DefaultType)
	assert.Len(t, cfg.VisitTypes, 3)

	_, err = env.svc.VisitType.SaveConfiguration(ctx, doctorCaller, &visittype.SaveConfigurationCommand{
		DoctorID: "doc-1",
		VisitTypes: []visittype.Type{
			{TypeID: "a", Name: "A", NormalPrice: 1},
			{TypeID: "a", Name: "B", NormalPrice: 2},
		},
	})
	assert.ErrorIs(t, err, visittype.ErrDuplicateTypeID)

	_, err = env.svc.VisitType.SaveConfiguration(ctx, doctorCaller, &visittype.SaveConfigurationCommand{
		DoctorID:    "doc-1",
		VisitTypes:  []visittype.Type{{TypeID: "surgery", Name: "Surgery", NameAr: "عملية", NormalPrice: 2000, UrgentPrice: 3000}},
		DefaultType: "surgery",
	})
	require.NoError(t, err)

	res, err := env.svc.VisitType.CalculatePrice(ctx, doctorCaller, &visittype.PriceQuery{DoctorID: "doc-1", VisitType: "عملية", Urgency: "urgent"})
	require.NoError(t, err)
	assert.Equal(t, 3000.0, res.Price)
	assert.Equal(t, "Surgery", res.CanonicalName)
	assert.Equal(t, visittype.TierConfiguration, res.Tier)

	_, err = env.svc.VisitType.CalculatePrice(ctx, otherDoctor, &visittype.PriceQuery{DoctorID: "doc-1", VisitType: "visit"})
	assert.ErrorIs(t, err, ErrForbidden)
}
