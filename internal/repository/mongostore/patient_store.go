package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

type PatientStore struct {
	coll    *mongo.Collection
	metrics *metrics.Collector
}

var _ patient.Repository = (*PatientStore)(nil)

// patientQuery translates f into a selector. Search is a case-insensitive
// substring match on name or phone with regex metacharacters escaped.
func patientQuery(f patient.Filter) bson.M {
	q := bson.M{}
	if f.DoctorID != "" {
		q["doctor_id"] = f.DoctorID
	}
	if f.PatientID != "" {
		q["patient_id"] = f.PatientID
	}
	if f.Phone != "" {
		q["patient_phone"] = f.Phone
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"patient_name": pattern},
			bson.M{"patient_phone": pattern},
		}
	}
	return q
}

func (s *PatientStore) Find(ctx context.Context, f patient.Filter) ([]*patient.Patient, error) {
	defer observe(s.metrics, "find", s.coll, time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, patientQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("finding patients: %w", err)
	}

	var docs []*patient.Patient
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding patients: %w", err)
	}
	for _, p := range docs {
		p.ApplyDefaults()
	}
	return docs, nil
}

func (s *PatientStore) FindOne(ctx context.Context, f patient.Filter) (*patient.Patient, error) {
	defer observe(s.metrics, "find_one", s.coll, time.Now())

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	var p patient.Patient
	err := s.coll.FindOne(ctx, patientQuery(f), opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding patient: %w", err)
	}
	p.ApplyDefaults()
	return &p, nil
}

func (s *PatientStore) Insert(ctx context.Context, p *patient.Patient) error {
	defer observe(s.metrics, "insert", s.coll, time.Now())

	res, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		p.ID = id
	}
	return nil
}

// Save replaces the document only if its version still matches the one that
// was read. Documents written before versioning have no version field and
// match version 0.
func (s *PatientStore) Save(ctx context.Context, p *patient.Patient) error {
	defer observe(s.metrics, "save", s.coll, time.Now())

	selector := bson.M{"_id": p.ID, "version": p.Version}
	if p.Version == 0 {
		selector = bson.M{"_id": p.ID, "$or": bson.A{
			bson.M{"version": 0},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}

	next := *p
	next.Version = p.Version + 1

	res, err := s.coll.ReplaceOne(ctx, selector, &next)
	if err != nil {
		return fmt.Errorf("saving patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return patient.ErrConcurrentModification
	}
	p.Version = next.Version
	return nil
}

func (s *PatientStore) Count(ctx context.Context, f patient.Filter) (int64, error) {
	defer observe(s.metrics, "count", s.coll, time.Now())

	n, err := s.coll.CountDocuments(ctx, patientQuery(f))
	if err != nil {
		return 0, fmt.Errorf("counting patients: %w", err)
	}
	return n, nil
}
