package implementation

import (
	"context"
	"fmt"
	"time"

	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoDoctorRepository struct {
	doctors *mongo.Collection
	timeout time.Duration
}

func NewMongoDoctorRepository(doctors *mongo.Collection, timeout time.Duration) *MongoDoctorRepository {
	return &MongoDoctorRepository{doctors: doctors, timeout: timeout}
}

func (r *MongoDoctorRepository) SetPushToken(ctx context.Context, doctorID primitive.ObjectID, token string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"expoPushToken": token, "updatedAt": time.Now().UTC()}}
	result, err := r.doctors.UpdateOne(ctx, bson.M{"_id": doctorID}, update)
	if err != nil {
		return fmt.Errorf("failed to update push token for doctor %s: %w", doctorID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrDoctorNotFound
	}
	return nil
}
