package implementation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoPatientDirectory_FindPatientWithDoctor(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	patientID := primitive.NewObjectID()
	doctorID := primitive.NewObjectID()

	mt.Run("patient with doctor", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "vescueye.patients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: patientID},
				{Key: "name", Value: "Ada"},
				{Key: "assignedDoctor", Value: doctorID},
			}),
			mtest.CreateCursorResponse(0, "vescueye.doctors", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: doctorID},
				{Key: "name", Value: "Dr. Grey"},
				{Key: "email", Value: "grey@hospital.test"},
				{Key: "expoPushToken", Value: "ExponentPushToken[abc]"},
			}),
		)

		repo := NewMongoPatientDirectory(mt.Coll, mt.Coll, time.Second)
		patient, err := repo.FindPatientWithDoctor(context.Background(), patientID)
		require.NoError(t, err)
		require.Equal(t, patientID, patient.ID)
		require.NotNil(t, patient.Doctor)
		require.Equal(t, "grey@hospital.test", patient.Doctor.Email)
		require.True(t, patient.Doctor.HasPushToken())
	})

	mt.Run("patient without doctor", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "vescueye.patients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: patientID},
			}),
		)

		repo := NewMongoPatientDirectory(mt.Coll, mt.Coll, time.Second)
		patient, err := repo.FindPatientWithDoctor(context.Background(), patientID)
		require.NoError(t, err)
		require.Nil(t, patient.Doctor)
	})

	mt.Run("dangling doctor reference", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "vescueye.patients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: patientID},
				{Key: "assignedDoctor", Value: doctorID},
			}),
			mtest.CreateCursorResponse(0, "vescueye.doctors", mtest.FirstBatch),
		)

		repo := NewMongoPatientDirectory(mt.Coll, mt.Coll, time.Second)
		patient, err := repo.FindPatientWithDoctor(context.Background(), patientID)
		require.NoError(t, err)
		require.Nil(t, patient.Doctor)
	})

	mt.Run("unknown patient", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "vescueye.patients", mtest.FirstBatch))

		repo := NewMongoPatientDirectory(mt.Coll, mt.Coll, time.Second)
		_, err := repo.FindPatientWithDoctor(context.Background(), patientID)
		require.True(t, errors.Is(err, interfaces.ErrPatientNotFound))
	})

	mt.Run("database failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))

		repo := NewMongoPatientDirectory(mt.Coll, mt.Coll, time.Second)
		_, err := repo.FindPatientWithDoctor(context.Background(), patientID)
		require.Error(t, err)
		require.False(t, errors.Is(err, interfaces.ErrPatientNotFound))
	})
}

func TestMongoDoctorRepository_SetPushToken(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	doctorID := primitive.NewObjectID()

	mt.Run("updated", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		repo := NewMongoDoctorRepository(mt.Coll, time.Second)
		require.NoError(t, repo.SetPushToken(context.Background(), doctorID, "ExponentPushToken[abc]"))
	})

	mt.Run("no such doctor", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		repo := NewMongoDoctorRepository(mt.Coll, time.Second)
		err := repo.SetPushToken(context.Background(), doctorID, "ExponentPushToken[abc]")
		require.True(t, errors.Is(err, interfaces.ErrDoctorNotFound))
	})
}

func TestMongoFlapRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	patientID := primitive.NewObjectID()

	mt.Run("save", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewMongoFlapRepository(mt.Coll, time.Second)
		err := repo.SaveReading(context.Background(), flpmodels.FlapRecord{
			PatientID:       patientID,
			ImageURL:        "u",
			Temperature:     28,
			ContinuityScore: 9,
			Abnormal:        true,
			Timestamp:       time.Now().UTC(),
		})
		require.NoError(t, err)
	})

	mt.Run("save failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		repo := NewMongoFlapRepository(mt.Coll, time.Second)
		err := repo.SaveReading(context.Background(), flpmodels.FlapRecord{PatientID: patientID})
		require.Error(t, err)
	})

	mt.Run("list page", func(mt *mtest.T) {
		newest := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "vescueye.flapdatas", mtest.FirstBatch,
				bson.D{
					{Key: "_id", Value: primitive.NewObjectID()},
					{Key: "patient_id", Value: patientID},
					{Key: "image_url", Value: "u2"},
					{Key: "temperature", Value: 33.0},
					{Key: "continuity_score", Value: 9.0},
					{Key: "timestamp", Value: newest},
				},
				bson.D{
					{Key: "_id", Value: primitive.NewObjectID()},
					{Key: "patient_id", Value: patientID},
					{Key: "image_url", Value: "u1"},
					{Key: "temperature", Value: 29.0},
					{Key: "continuity_score", Value: 9.0},
					{Key: "abnormal", Value: true},
					{Key: "timestamp", Value: newest.Add(-time.Hour)},
				},
			),
			mtest.CreateCursorResponse(0, "vescueye.flapdatas", mtest.FirstBatch, bson.D{
				{Key: "n", Value: int32(12)},
			}),
		)

		repo := NewMongoFlapRepository(mt.Coll, time.Second)
		records, total, err := repo.ListByPatient(context.Background(), interfaces.FlapQueryParams{
			PatientID: patientID,
			Page:      2,
			Limit:     2,
		})
		require.NoError(t, err)
		require.Equal(t, int64(12), total)
		require.Len(t, records, 2)
		require.Equal(t, "u2", records[0].ImageURL)
		require.True(t, records[1].Abnormal)
	})
}
