package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/mongodb"
)

func TestPatientQuery(t *testing.T) {
	q := patientQuery(patient.Filter{DoctorID: "doc-1", Search: " a.b+ "})
	assert.Equal(t, "doc-1", q["doctor_id"])

	or, ok := q["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	byName := or[0].(bson.M)["patient_name"].(bson.Regex)
	assert.Equal(t, `a\.b\+`, byName.Pattern)
	assert.Equal(t, "i", byName.Options)

	assert.Empty(t, patientQuery(patient.Filter{Search: "   "}))
}

// testDatabase connects to MONGO_TEST_URI and hands out a throwaway database.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("clinicdesk_test_" + bson.NewObjectID().Hex())
	mongodb.EnsureIndexes(context.Background(), db, zap.NewNop())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestPatientStore_VersionedSave(t *testing.T) {
	db := testDatabase(t)
	stores := New(db, metrics.NewCollector("clinicdesk_test", prometheus.NewRegistry()))
	ctx := context.Background()

	legacy := bson.M{"patient_id": "p-1", "doctor_id": "doc-1", "patient_phone": "0100", "patient_name": "Ali"}
	_, err := db.Collection(mongodb.PatientsCollection).InsertOne(ctx, legacy)
	require.NoError(t, err)

	first, err := stores.Patients.FindOne(ctx, patient.Filter{DoctorID: "doc-1", Phone: "0100"})
	require.NoError(t, err)
	assert.Equal(t, patient.StatusWaiting, first.Status)
	assert.Equal(t, int64(0), first.Version)

	stale, err := stores.Patients.FindOne(ctx, patient.Filter{PatientID: "p-1"})
	require.NoError(t, err)

	first.Name = "Ali Hassan"
	require.NoError(t, stores.Patients.Save(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	stale.Name = "Lost update"
	assert.ErrorIs(t, stores.Patients.Save(ctx, stale), patient.ErrConcurrentModification)

	found, err := stores.Patients.Find(ctx, patient.Filter{Search: "hass"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ali Hassan", found[0].Name)
}

func TestBillingStore_FindMostRecentSkipsAddOns(t *testing.T) {
	db := testDatabase(t)
	stores := New(db, nil)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, kind := range []string{"Visit", "Re-visit", "Additional Services"} {
		require.NoError(t, stores.Billings.Insert(ctx, &billing.Billing{
			BillingID:        kind,
			DoctorID:         "doc-1",
			PatientID:        "p-1",
			ConsultationType: kind,
			BillingDate:      base.Add(time.Duration(i) * time.Hour),
			CreatedAt:        base.Add(time.Duration(i) * time.Hour),
		}))
	}

	b, err := stores.Billings.FindMostRecent(ctx, "doc-1", "p-1", []string{"additional services"})
	require.NoError(t, err)
	assert.Equal(t, "Re-visit", b.BillingID)

	_, err = stores.Billings.FindMostRecent(ctx, "doc-1", "p-2", nil)
	assert.ErrorIs(t, err, billing.ErrBillingNotFound)

	page, err := stores.Billings.List(ctx, &billing.ListQuery{DoctorID: "doc-1", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "Additional Services", page.Billings[0].BillingID)
}
