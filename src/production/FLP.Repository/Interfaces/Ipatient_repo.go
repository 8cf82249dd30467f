package interfaces

import (
	"context"
	"errors"

	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)

// PatientDirectory resolves patients and their assigned doctor
type PatientDirectory interface {
	// FindPatientWithDoctor returns ErrPatientNotFound when no patient has the id.
	// A missing or dangling doctor reference leaves Patient.Doctor nil.
	FindPatientWithDoctor(ctx context.Context, patientID primitive.ObjectID) (*flpmodels.Patient, error)
}

// DoctorRepository updates doctor records
type DoctorRepository interface {
	// SetPushToken returns ErrDoctorNotFound when no doctor has the id
	SetPushToken(ctx context.Context, doctorID primitive.ObjectID, token string) error
}
