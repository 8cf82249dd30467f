package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPatientDirectory struct {
	patients *mongo.Collection
	doctors  *mongo.Collection
	timeout  time.Duration
}

func NewMongoPatientDirectory(patients, doctors *mongo.Collection, timeout time.Duration) *MongoPatientDirectory {
	return &MongoPatientDirectory{patients: patients, doctors: doctors, timeout: timeout}
}

func (r *MongoPatientDirectory) FindPatientWithDoctor(ctx context.Context, patientID primitive.ObjectID) (*flpmodels.Patient, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var patient flpmodels.Patient
	err := r.patients.FindOne(ctx, bson.M{"_id": patientID}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to find patient %s: %w", patientID.Hex(), err)
	}

	if patient.AssignedDoctor == nil || patient.AssignedDoctor.IsZero() {
		return &patient, nil
	}

	// Only the fields the bridge logs
	opts := options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "expoPushToken": 1})

	var doctor flpmodels.Doctor
	err = r.doctors.FindOne(ctx, bson.M{"_id": *patient.AssignedDoctor}, opts).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &patient, nil
		}
		return nil, fmt.Errorf("failed to find doctor %s: %w", patient.AssignedDoctor.Hex(), err)
	}
	patient.Doctor = &doctor

	return &patient, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
