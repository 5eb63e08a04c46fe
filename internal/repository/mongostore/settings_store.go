package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/visittype"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

// upsertOpts returns the stored document after the write so createdAt set on
// first insert flows back to the caller.
func upsertOpts() *options.FindOneAndUpdateOptionsBuilder {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}

type VisitTypeStore struct {
	coll    *mongo.Collection
	metrics *metrics.Collector
}

var _ visittype.Repository = (*VisitTypeStore)(nil)

func (s *VisitTypeStore) FindByDoctor(ctx context.Context, doctorID string) (*visittype.Configuration, error) {
	defer observe(s.metrics, "find_one", s.coll, time.Now())

	var c visittype.Configuration
	err := s.coll.FindOne(ctx, bson.M{"doctor_id": doctorID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, visittype.ErrConfigurationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding visit type configuration: %w", err)
	}
	return &c, nil
}

func (s *VisitTypeStore) Upsert(ctx context.Context, c *visittype.Configuration) error {
	defer observe(s.metrics, "upsert", s.coll, time.Now())

	update := bson.M{
		"$set": bson.M{
			"clinic_id":    c.ClinicID,
			"visit_types":  c.VisitTypes,
			"default_type": c.DefaultType,
			"updatedAt":    c.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": c.UpdatedAt},
	}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"doctor_id": c.DoctorID}, update, upsertOpts()).Decode(c)
	if err != nil {
		return fmt.Errorf("upserting visit type configuration: %w", err)
	}
	return nil
}

type DoctorStore struct {
	coll    *mongo.Collection
	metrics *metrics.Collector
}

var _ doctor.Repository = (*DoctorStore)(nil)

func (s *DoctorStore) FindByDoctorID(ctx context.Context, doctorID string) (*doctor.Doctor, error) {
	defer observe(s.metrics, "find_one", s.coll, time.Now())

	var d doctor.Doctor
	err := s.coll.FindOne(ctx, bson.M{"doctor_id": doctorID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, doctor.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding doctor: %w", err)
	}
	return &d, nil
}

func (s *DoctorStore) Upsert(ctx context.Context, d *doctor.Doctor) error {
	defer observe(s.metrics, "upsert", s.coll, time.Now())

	update := bson.M{
		"$set": bson.M{
			"name":      d.Name,
			"email":     d.Email,
			"settings":  d.Settings,
			"updatedAt": d.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": d.CreatedAt},
	}
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"doctor_id": d.DoctorID}, update, upsertOpts()).Decode(d); err != nil {
		return fmt.Errorf("upserting doctor: %w", err)
	}
	return nil
}
