package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/config"
)

// Collection names shared by the store adapters and the index setup.
const (
	PatientsCollection   = "patients"
	BillingsCollection   = "billings"
	VisitTypesCollection = "visittypeconfigurations"
	DoctorsCollection    = "doctors"
)

// Connect dials the cluster and verifies the primary answers within
// cfg.ConnectTimeout.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return client, nil
}

type index struct {
	collection string
	model      mongo.IndexModel
}

// EnsureIndexes creates the indexes the store adapters query by. Existing
// indexes are left alone; a failure is logged and does not stop startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) {
	indexes := []index{
		{PatientsCollection, mongo.IndexModel{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "patient_phone", Value: 1}}}},
		{PatientsCollection, mongo.IndexModel{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "patient_id", Value: 1}}}},
		{PatientsCollection, mongo.IndexModel{Keys: bson.D{{Key: "patient_phone", Value: 1}}}},
		{BillingsCollection, mongo.IndexModel{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "billingDate", Value: -1}}}},
		{BillingsCollection, mongo.IndexModel{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "patient_id", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{BillingsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "billing_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{BillingsCollection, mongo.IndexModel{Keys: bson.D{{Key: "visit_id", Value: 1}}}},
		{VisitTypesCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{DoctorsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "doctor_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for _, idx := range indexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			log.Warn("failed to create index",
				zap.String("collection", idx.collection),
				zap.Error(err),
			)
		}
	}
}
