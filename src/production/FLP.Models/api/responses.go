package api_models

import flpmodels "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models"

// SavePushTokenRequest is the body of POST /api/savePushToken
type SavePushTokenRequest struct {
	Token    string `json:"token"`
	DoctorID string `json:"doctorId"`
}

// AbnormalityRequest is the body of POST /api/abnormality
type AbnormalityRequest struct {
	Abnormality string `json:"abnormality"`
}

// FlapPage is a page of flap history for one patient
type FlapPage struct {
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	TotalPages int64                  `json:"totalPages"`
	Records    []flpmodels.FlapRecord `json:"records"`
}
