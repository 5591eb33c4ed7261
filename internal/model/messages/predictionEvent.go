package messages

import "time"

// PredictionEvent is published by the prediction service after every successful
// inference. It is a copy for the audit trail; the request itself is not stored.
type PredictionEvent struct {
	RequestID      string    `json:"request_id"`
	Crop           string    `json:"crop"`
	CropType       int       `json:"crop_type"`
	SoilType       int       `json:"soil_type"`
	PredictedYield float64   `json:"predicted_yield"`
	Severity       string    `json:"severity"`
	LowYieldAlert  bool      `json:"low_yield_alert"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
	Timestamp      time.Time `json:"timestamp"`
}
