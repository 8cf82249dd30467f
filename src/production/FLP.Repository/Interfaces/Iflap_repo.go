package interfaces

import (
	"context"

	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultFlapPageSize = 10
	MaxFlapPageSize     = 100
)

// FlapQueryParams selects one page of a patient's history
type FlapQueryParams struct {
	PatientID primitive.ObjectID
	Page      int
	Limit     int
}

// Normalized clamps Page and Limit to usable values
func (p FlapQueryParams) Normalized() FlapQueryParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultFlapPageSize
	}
	if p.Limit > MaxFlapPageSize {
		p.Limit = MaxFlapPageSize
	}
	return p
}

// FlapRepository stores and reads flap readings
type FlapRepository interface {
	SaveReading(ctx context.Context, record flpmodels.FlapRecord) error

	// ListByPatient returns the page newest first and the total count for the patient
	ListByPatient(ctx context.Context, params FlapQueryParams) ([]flpmodels.FlapRecord, int64, error)
}
