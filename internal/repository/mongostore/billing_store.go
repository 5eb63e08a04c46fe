package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/billing"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/pkg/metrics"
)

type BillingStore struct {
	coll    *mongo.Collection
	metrics *metrics.Collector
}

var _ billing.Repository = (*BillingStore)(nil)

func (s *BillingStore) Insert(ctx context.Context, b *billing.Billing) error {
	defer observe(s.metrics, "insert", s.coll, time.Now())

	res, err := s.coll.InsertOne(ctx, b)
	if err != nil {
		return fmt.Errorf("inserting billing: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		b.ID = id
	}
	return nil
}

func (s *BillingStore) Save(ctx context.Context, b *billing.Billing) error {
	defer observe(s.metrics, "save", s.coll, time.Now())

	res, err := s.coll.ReplaceOne(ctx, bson.M{"doctor_id": b.DoctorID, "billing_id": b.BillingID}, b)
	if err != nil {
		return fmt.Errorf("saving billing: %w", err)
	}
	if res.MatchedCount == 0 {
		return billing.ErrBillingNotFound
	}
	return nil
}

func (s *BillingStore) findOne(ctx context.Context, selector bson.M) (*billing.Billing, error) {
	var b billing.Billing
	err := s.coll.FindOne(ctx, selector).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, billing.ErrBillingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding billing: %w", err)
	}
	return &b, nil
}

func (s *BillingStore) FindOne(ctx context.Context, doctorID, billingID string) (*billing.Billing, error) {
	defer observe(s.metrics, "find_one", s.coll, time.Now())
	return s.findOne(ctx, bson.M{"doctor_id": doctorID, "billing_id": billingID})
}

func (s *BillingStore) FindByVisit(ctx context.Context, visitID string) (*billing.Billing, error) {
	defer observe(s.metrics, "find_by_visit", s.coll, time.Now())
	return s.findOne(ctx, bson.M{"visit_id": visitID})
}

// FindMostRecent walks the patient's bills newest first and returns the first
// one that is not a services add-on. Labels are matched in Go because they
// compare trimmed and case-insensitively.
func (s *BillingStore) FindMostRecent(ctx context.Context, doctorID, patientID string, excludeTypes []string) (*billing.Billing, error) {
	defer observe(s.metrics, "find_most_recent", s.coll, time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"doctor_id": doctorID, "patient_id": patientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding billings: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var b billing.Billing
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("decoding billing: %w", err)
		}
		if !billing.IsServiceAddOn(b.ConsultationType, excludeTypes) {
			return &b, nil
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating billings: %w", err)
	}
	return nil, billing.ErrBillingNotFound
}

func (s *BillingStore) List(ctx context.Context, q *billing.ListQuery) (*billing.PagedBillings, error) {
	defer observe(s.metrics, "list", s.coll, time.Now())

	selector := bson.M{"doctor_id": q.DoctorID}
	if q.PatientID != "" {
		selector["patient_id"] = q.PatientID
	}
	if q.PaymentStatus != "" {
		selector["paymentStatus"] = q.PaymentStatus
	}
	if q.From != nil || q.To != nil {
		dateRange := bson.M{}
		if q.From != nil {
			dateRange["$gte"] = *q.From
		}
		if q.To != nil {
			dateRange["$lte"] = *q.To
		}
		selector["billingDate"] = dateRange
	}

	total, err := s.coll.CountDocuments(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("counting billings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "billingDate", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.PageSize)).
		SetLimit(int64(q.PageSize))
	cursor, err := s.coll.Find(ctx, selector, opts)
	if err != nil {
		return nil, fmt.Errorf("listing billings: %w", err)
	}

	bills := make([]*billing.Billing, 0, q.PageSize)
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, fmt.Errorf("decoding billings: %w", err)
	}

	return &billing.PagedBillings{
		Billings:   bills,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: domain.TotalPages(total, q.PageSize),
	}, nil
}
