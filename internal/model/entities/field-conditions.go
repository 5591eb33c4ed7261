package entities

import "time"

// FieldConditions is what an operator enters on the dashboard, before encoding.
type FieldConditions struct {
	Crop            string    `json:"crop"`
	Soil            string    `json:"soil"`
	SoilPH          float64   `json:"soil_ph"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	N               float64   `json:"n"`
	P               float64   `json:"p"`
	K               float64   `json:"k"`
	SoilQuality     float64   `json:"soil_quality"`
	ObservationDate time.Time `json:"observation_date"`
}

// Range is the closed interval an input control accepts.
type Range struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Input domains and defaults offered by the dashboard controls.
var (
	SoilPHRange      = Range{Min: 4.0, Max: 9.0, Default: 6.5}
	TemperatureRange = Range{Min: -10, Max: 50, Default: 25}
	HumidityRange    = Range{Min: 0, Max: 100, Default: 60}
	NRange           = Range{Min: 0, Max: 200, Default: 50}
	PRange           = Range{Min: 0, Max: 200, Default: 40}
	KRange           = Range{Min: 0, Max: 200, Default: 30}
	SoilQualityRange = Range{Min: 0, Max: 100, Default: 80}
)
