package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agripredict/internal/dashboard"
	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

// PredictRequest is the dashboard form. Omitted numeric controls take their
// default; an omitted date means today.
type PredictRequest struct {
	Crop            string   `json:"crop"`
	Soil            string   `json:"soil"`
	SoilPH          *float64 `json:"soil_ph"`
	Temperature     *float64 `json:"temperature"`
	Humidity        *float64 `json:"humidity"`
	N               *float64 `json:"n"`
	P               *float64 `json:"p"`
	K               *float64 `json:"k"`
	SoilQuality     *float64 `json:"soil_quality"`
	ObservationDate string   `json:"observation_date"` // YYYY-MM-DD
}

// Conditions fills defaults and parses the date. The date's calendar fields are
// kept as written.
func (r PredictRequest) Conditions(today time.Time) (entities.FieldConditions, error) {
	fc := dashboard.DefaultConditions(today)
	fc.Crop = strings.TrimSpace(r.Crop)
	fc.Soil = strings.TrimSpace(r.Soil)
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&fc.SoilPH, r.SoilPH)
	set(&fc.Temperature, r.Temperature)
	set(&fc.Humidity, r.Humidity)
	set(&fc.N, r.N)
	set(&fc.P, r.P)
	set(&fc.K, r.K)
	set(&fc.SoilQuality, r.SoilQuality)
	if d := strings.TrimSpace(r.ObservationDate); d != "" {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return fc, &dashboard.ValidationError{Fields: []dashboard.FieldError{{
				Field: "observation_date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", d),
			}}}
		}
		fc.ObservationDate = t
	}
	return fc, nil
}

// ErrorBody is returned for every failed dashboard call.
type ErrorBody struct {
	Error  string                 `json:"error"`
	Kind   string                 `json:"kind"`
	Fields []dashboard.FieldError `json:"fields,omitempty"`
}

// History is the /dashboard/history payload. Stale is set when the audit
// service could not be reached and the last good answer is served instead.
type History struct {
	Predictions []messages.PredictionEvent `json:"predictions"`
	Stale       bool                       `json:"stale,omitempty"`
}
