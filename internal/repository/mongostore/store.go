// Package mongostore implements the domain repositories on MongoDB.
package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/mongodb"
)

// Stores holds one adapter per collection.
type Stores struct {
	Patients   *PatientStore
	Billings   *BillingStore
	VisitTypes *VisitTypeStore
	Doctors    *DoctorStore
}

func New(db *mongo.Database, m *metrics.Collector) *Stores {
	return &Stores{
		Patients:   &PatientStore{coll: db.Collection(mongodb.PatientsCollection), metrics: m},
		Billings:   &BillingStore{coll: db.Collection(mongodb.BillingsCollection), metrics: m},
		VisitTypes: &VisitTypeStore{coll: db.Collection(mongodb.VisitTypesCollection), metrics: m},
		Doctors:    &DoctorStore{coll: db.Collection(mongodb.DoctorsCollection), metrics: m},
	}
}

// observe records how long one store call took. Use as
// defer observe(m, "find", coll, time.Now()).
func observe(m *metrics.Collector, operation string, coll *mongo.Collection, start time.Time) {
	if m == nil {
		return
	}
	m.StoreQueryDuration.WithLabelValues(operation, coll.Name()).Observe(time.Since(start).Seconds())
}
