package implementation

import (
	"context"
	"fmt"
	"time"

	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoFlapRepository struct {
	flaps   *mongo.Collection
	timeout time.Duration
}

func NewMongoFlapRepository(flaps *mongo.Collection, timeout time.Duration) *MongoFlapRepository {
	return &MongoFlapRepository{flaps: flaps, timeout: timeout}
}

func (r *MongoFlapRepository) SaveReading(ctx context.Context, record flpmodels.FlapRecord) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.flaps.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert flap reading for patient %s: %w", record.PatientID.Hex(), err)
	}
	return nil
}

func (r *MongoFlapRepository) ListByPatient(ctx context.Context, params interfaces.FlapQueryParams) ([]flpmodels.FlapRecord, int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	params = params.Normalized()
	page, limit := params.Page, params.Limit
	filter := bson.M{"patient_id": params.PatientID}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.flaps.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query flap readings: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]flpmodels.FlapRecord, 0, limit)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode flap readings: %w", err)
	}

	total, err := r.flaps.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count flap readings: %w", err)
	}

	return records, total, nil
}
