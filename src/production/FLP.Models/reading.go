package flpmodels

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Abnormality thresholds. A reading is abnormal when the continuity score
// is below ContinuityThreshold or the temperature is at or below TemperatureThreshold.
const (
	ContinuityThreshold  = 8.0
	TemperatureThreshold = 30.0
)

// ErrMalformedPayload is returned when a sensor message cannot be decoded or is incomplete
var ErrMalformedPayload = errors.New("malformed sensor payload")

var validate = validator.New()

// SensorPayload is the wire format published by the flap camera devices
type SensorPayload struct {
	PatientID       *string  `json:"patient_id" validate:"required"`
	ImageURL        *string  `json:"image_url" validate:"required"`
	Temperature     *float64 `json:"temperature" validate:"required"`
	VeinPercentage  *float64 `json:"vein_percentage,omitempty"`
	ContinuityScore *float64 `json:"continuity_score" validate:"required"`
}

// SensorReading is a decoded, validated sensor message
type SensorReading struct {
	PatientID          primitive.ObjectID
	ImageURL           string
	TemperatureCelsius float64
	VeinPercentage     *float64
	ContinuityScore    float64
	ReceivedAt         time.Time
}

// ParseSensorReading decodes and validates a raw MQTT payload
func ParseSensorReading(raw []byte, receivedAt time.Time) (*SensorReading, error) {
	var payload SensorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	patientID, err := primitive.ObjectIDFromHex(*payload.PatientID)
	if err != nil {
		return nil, fmt.Errorf("%w: patient_id %q: %v", ErrMalformedPayload, *payload.PatientID, err)
	}

	return &SensorReading{
		PatientID:          patientID,
		ImageURL:           *payload.ImageURL,
		TemperatureCelsius: *payload.Temperature,
		VeinPercentage:     payload.VeinPercentage,
		ContinuityScore:    *payload.ContinuityScore,
		ReceivedAt:         receivedAt,
	}, nil
}

// IsAbnormal reports whether the reading crosses either alert threshold
func (r *SensorReading) IsAbnormal() bool {
	return r.ContinuityScore < ContinuityThreshold || r.TemperatureCelsius <= TemperatureThreshold
}

// Projection returns the reduced message sent to live viewers
func (r *SensorReading) Projection() BroadcastMessage {
	return BroadcastMessage{
		PatientID:   r.PatientID.Hex(),
		ImageURL:    r.ImageURL,
		Temperature: r.TemperatureCelsius,
	}
}

// FlapRecord builds the persisted form of the reading
func (r *SensorReading) FlapRecord() FlapRecord {
	return FlapRecord{
		PatientID:       r.PatientID,
		ImageURL:        r.ImageURL,
		Temperature:     r.TemperatureCelsius,
		VeinPercentage:  r.VeinPercentage,
		ContinuityScore: r.ContinuityScore,
		Abnormal:        r.IsAbnormal(),
		Timestamp:       r.ReceivedAt,
	}
}
