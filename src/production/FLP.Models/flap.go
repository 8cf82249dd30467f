package flpmodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FlapRecord is one stored flap reading in the flapdatas collection
type FlapRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	PatientID       primitive.ObjectID `bson:"patient_id" json:"patient_id"`
	ImageURL        string             `bson:"image_url" json:"image_url"`
	Temperature     float64            `bson:"temperature" json:"temperature"`
	VeinPercentage  *float64           `bson:"vein_percentage,omitempty" json:"vein_percentage,omitempty"`
	ContinuityScore float64            `bson:"continuity_score" json:"continuity_score"`
	Abnormal        bool               `bson:"abnormal" json:"abnormal"`
	Timestamp       time.Time          `bson:"timestamp" json:"timestamp"`
}
