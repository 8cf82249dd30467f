package flpmodels

// Acknowledgement status values published on the response topic
const (
	AckStatusSuccess = "success"
	AckStatusError   = "error"
)

const WelcomeText = "Connected to real-time updates"

// BroadcastMessage is the reduced reading pushed to every live viewer
type BroadcastMessage struct {
	PatientID   string  `json:"patient_id"`
	ImageURL    string  `json:"image_url"`
	Temperature float64 `json:"temperature"`
}

// WelcomeMessage is sent once when a viewer connects
type WelcomeMessage struct {
	Message string `json:"message"`
}

// Ack is published to the response topic after each inbound message
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func SuccessAck() Ack {
	return Ack{Status: AckStatusSuccess, Message: "Data received and processed"}
}

func ErrorAck(message string) Ack {
	return Ack{Status: AckStatusError, Message: message}
}
