package bridge

import (
	"context"
	"errors"
	"time"

	alerting "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Alerting"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
	flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"
	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
)

// Ack messages published on the response topic
const (
	AckInvalidJSON  = "Invalid JSON format"
	AckLookupFailed = "Failed to resolve patient"
)

// Outcome is how a single inbound message was handled
type Outcome int

const (
	OutcomeMalformed Outcome = iota
	OutcomeLookupFailed
	OutcomeUnknownPatient
	OutcomeProcessed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMalformed:
		return "malformed"
	case OutcomeLookupFailed:
		return "lookup_failed"
	case OutcomeUnknownPatient:
		return "unknown_patient"
	case OutcomeProcessed:
		return "processed"
	default:
		return "unknown"
	}
}

// Broadcaster fans a reading out to live viewers
type Broadcaster interface {
	Broadcast(msg interface{}) (int, error)
}

// AlertDispatcher raises an abnormality alert
type AlertDispatcher interface {
	Dispatch(ctx context.Context, abnormality string) (*alerting.DispatchResult, error)
}

// AckPublisher publishes acknowledgements back to the devices
type AckPublisher interface {
	PublishAck(ack flpmodels.Ack) error
}

// Bridge runs the per-message pipeline: decode, resolve patient, persist,
// broadcast, alert, acknowledge.
type Bridge struct {
	directory   interfaces.PatientDirectory
	flaps       interfaces.FlapRepository
	broadcaster Broadcaster
	alerts      AlertDispatcher
	acks        AckPublisher
	logger      *logger.Logger
	now         func() time.Time
}

func NewBridge(
	directory interfaces.PatientDirectory,
	flaps interfaces.FlapRepository,
	broadcaster Broadcaster,
	alerts AlertDispatcher,
	acks AckPublisher,
	log *logger.Logger,
) *Bridge {
	return &Bridge{
		directory:   directory,
		flaps:       flaps,
		broadcaster: broadcaster,
		alerts:      alerts,
		acks:        acks,
		logger:      log.WithComponent("bridge"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// HandleMessage processes one sensor message. Failures past the patient
// lookup are logged and do not stop the remaining steps.
func (b *Bridge) HandleMessage(ctx context.Context, topic string, payload []byte) Outcome {
	b.logger.Logger.Debug().Str("topic", topic).Bytes("payload", payload).Msg("Received sensor message")

	reading, err := flpmodels.ParseSensorReading(payload, b.now())
	if err != nil {
		b.logger.Logger.Warn().Err(err).Str("topic", topic).Msg("Rejected sensor message")
		b.publish(flpmodels.ErrorAck(AckInvalidJSON))
		return OutcomeMalformed
	}

	log := b.logger.WithField("patient_id", reading.PatientID.Hex())

	patient, err := b.directory.FindPatientWithDoctor(ctx, reading.PatientID)
	if err != nil {
		if errors.Is(err, interfaces.ErrPatientNotFound) {
			log.Warn("Patient not found")
			return OutcomeUnknownPatient
		}
		log.ErrorWithError(err, "Failed to resolve patient")
		b.publish(flpmodels.ErrorAck(AckLookupFailed))
		return OutcomeLookupFailed
	}

	if patient.Doctor == nil {
		log.Info("No doctor assigned")
	} else {
		log.Logger.Info().
			Str("doctor_name", patient.Doctor.Name).
			Str("doctor_email", patient.Doctor.Email).
			Bool("has_push_token", patient.Doctor.HasPushToken()).
			Msg("Assigned doctor")
	}

	if err := b.flaps.SaveReading(ctx, reading.FlapRecord()); err != nil {
		log.ErrorWithError(err, "Failed to save flap reading")
	}

	if viewers, err := b.broadcaster.Broadcast(reading.Projection()); err != nil {
		log.ErrorWithError(err, "Failed to broadcast reading")
	} else {
		log.Logger.Debug().Int("viewers", viewers).Msg("Reading broadcast")
	}

	if reading.IsAbnormal() {
		log.Logger.Warn().
			Float64("temperature", reading.TemperatureCelsius).
			Float64("continuity_score", reading.ContinuityScore).
			Msg("Abnormal flap reading")
		if _, err := b.alerts.Dispatch(ctx, alerting.AbnormalityYes); err != nil {
			log.ErrorWithError(err, "Failed to send abnormality alert")
		}
	}

	b.publish(flpmodels.SuccessAck())
	return OutcomeProcessed
}

func (b *Bridge) publish(ack flpmodels.Ack) {
	if err := b.acks.PublishAck(ack); err != nil {
		b.logger.Logger.Error().Err(err).Str("status", ack.Status).Msg("Failed to publish ack")
	}
}
