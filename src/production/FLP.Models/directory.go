package flpmodels

import "go.mongodb.org/mongo-driver/bson/primitive"

// Patient is the subset of a patient document the bridge reads
type Patient struct {
	ID             primitive.ObjectID  `bson:"_id" json:"_id"`
	Name           string              `bson:"name,omitempty" json:"name,omitempty"`
	AssignedDoctor *primitive.ObjectID `bson:"assignedDoctor,omitempty" json:"assignedDoctor,omitempty"`

	// Doctor is resolved from AssignedDoctor, nil when unassigned or dangling
	Doctor *Doctor `bson:"-" json:"doctor,omitempty"`
}

// Doctor is the subset of a doctor document the bridge reads
type Doctor struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	ExpoPushToken *string            `bson:"expoPushToken,omitempty" json:"expoPushToken,omitempty"`
}

// HasPushToken reports whether the doctor has a non-empty push token on file
func (d *Doctor) HasPushToken() bool {
	return d != nil && d.ExpoPushToken != nil && *d.ExpoPushToken != ""
}
