package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
)

var paracetamol = patient.Drug{Drug: "Paracetamol", Frequency: "3x", Period: "5 days", Timing: "after meals"}

func TestCreateVisit(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-01-01"))

	v, err := env.svc.Visits.CreateVisit(context.Background(), doctorCaller, &patient.CreateVisitCommand{
		DoctorID:  "doc-1",
		PatientID: "p-1",
		Complaint: "fever",
		Drugs:     []patient.Drug{paracetamol},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, v.VisitID)
	assert.Equal(t, patient.DefaultVisitType, v.VisitType)
	require.Len(t, v.Receipts, 1)

	stored := env.patients.get("p-1")
	require.Len(t, stored.Visits, 1)
	day, ok := stored.Visits[0].Date.Day()
	require.True(t, ok)
	assert.Equal(t, "2024-06-15", day)

	_, err = env.svc.Visits.CreateVisit(context.Background(), doctorCaller, &patient.CreateVisitCommand{
		DoctorID:  "doc-1",
		PatientID: "p-1",
		Drugs:     []patient.Drug{{Drug: "Ibuprofen"}},
	})
	assert.ErrorIs(t, err, patient.ErrInvalidDrugs)
	assert.Len(t, env.patients.get("p-1").Visits, 1)
}

func TestAddReceipt_DefaultsToLastStoredVisit(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-01-01",
		visitAt("newest-by-date", "2024-06-01"),
		visitAt("last-inserted", "2024-01-01"),
	))

	v, err := env.svc.Visits.AddReceipt(context.Background(), doctorCaller, &patient.AddReceiptCommand{
		DoctorID:  "doc-1",
		PatientID: "p-1",
		Drugs:     []patient.Drug{paracetamol},
	})
	require.NoError(t, err)
	assert.Equal(t, "last-inserted", v.VisitID)

	stored := env.patients.get("p-1")
	assert.Empty(t, stored.Visits[0].Receipts)
	assert.Len(t, stored.Visits[1].Receipts, 1)
}

func TestAddReceipt_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-01-01"))
	ctx := context.Background()

	_, err := env.svc.Visits.AddReceipt(ctx, doctorCaller, &patient.AddReceiptCommand{
		DoctorID: "doc-1", PatientID: "p-1", Drugs: []patient.Drug{paracetamol},
	})
	assert.ErrorIs(t, err, patient.ErrNoVisits)

	_, err = env.svc.Visits.AddReceipt(ctx, doctorCaller, &patient.AddReceiptCommand{
		DoctorID: "doc-1", PatientID: "p-1", VisitID: "ghost", Drugs: []patient.Drug{paracetamol},
	})
	assert.ErrorIs(t, err, patient.ErrVisitNotFound)

	_, err = env.svc.Visits.AddReceipt(ctx, doctorCaller, &patient.AddReceiptCommand{DoctorID: "doc-1", PatientID: "p-1"})
	assert.ErrorIs(t, err, patient.ErrInvalidDrugs)

	_, err = env.svc.Visits.AddReceipt(ctx, otherDoctor, &patient.AddReceiptCommand{
		DoctorID: "doc-1", PatientID: "p-1", Drugs: []patient.Drug{paracetamol},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateVisit(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-01-01", visitAt("v-1", "2024-01-01")))

	diagnosis := "flu"
	v, err := env.svc.Visits.UpdateVisit(context.Background(), doctorCaller, &patient.UpdateVisitCommand{
		DoctorID:  "doc-1",
		PatientID: "p-1",
		VisitID:   "v-1",
		Diagnosis: &diagnosis,
		Drugs:     []patient.Drug{paracetamol},
		Notes:     "rest",
	})
	require.NoError(t, err)
	assert.Equal(t, "flu", v.Diagnosis)
	assert.Equal(t, "", v.Complaint)
	require.Len(t, v.Receipts, 1)
	assert.Equal(t, "rest", v.Receipts[0].Notes)

	got, err := env.svc.Visits.GetVisit(context.Background(), doctorCaller, "doc-1", "p-1", "v-1")
	require.NoError(t, err)
	assert.Equal(t, "flu", got.Diagnosis)
}

func TestVisitHistory(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-01-01",
		visitAt("jan", "2024-01-10"),
		visitAt("mar", "2024-03-10"),
		visitAt("feb", "2024-02-10"),
		visitAt("future", "2024-12-01"),
	))

	h, err := env.svc.Visits.VisitHistory(context.Background(), doctorCaller, &patient.VisitHistoryQuery{
		DoctorID:  "doc-1",
		PatientID: "p-1",
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, h.TotalCount)
	assert.Equal(t, 2, h.TotalPages)
	assert.Equal(t, []string{"mar", "feb"}, []string{h.Visits[0].VisitID, h.Visits[1].VisitID})
	assert.Equal(t, "Ali", h.Name)
}

func TestVisitService_ConcurrentWritesAreSerialised(t *testing.T) {
	env := newTestEnv(t)
	env.patients.seed(storedPatient("p-1", "0100", "Ali", "2024-01-01", visitAt("v-1", "2024-01-01")))

	const n = 10
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := env.svc.Visits.AddReceipt(context.Background(), doctorCaller, &patient.AddReceiptCommand{
				DoctorID: "doc-1", PatientID: "p-1", VisitID: "v-1", Drugs: []patient.Drug{paracetamol},
			})
			done <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-done)
	}
	assert.Len(t, env.patients.get("p-1").Visits[0].Receipts, n)
}
