// Package dashboard holds the presentation side of a prediction: input
// validation for the collector, the view model handed to renderers, and the
// operator-facing wording of every failure.
package dashboard

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agripredict/internal/encoder"
	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	"github.com/LeonardoBeccarini/agripredict/internal/prediction"
)

// View is one rendered prediction.
type View struct {
	Crop           string    `json:"crop"`
	Soil           string    `json:"soil"`
	ObservedOn     string    `json:"observed_on"`
	PredictedYield float64   `json:"predicted_yield"`
	YieldLabel     string    `json:"yield_label"`
	Unit           string    `json:"unit"`
	Severity       string    `json:"severity"`
	LowYieldAlert  bool      `json:"low_yield_alert"`
	Recommendation string    `json:"recommendation"`
	Importance     []Bar     `json:"importance,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Bar is one feature of the importance chart. Share is the weight relative to
// the largest one, in [0,1].
type Bar struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
	Share   float64 `json:"share"`
}

// BuildView pairs the operator's inputs with the prediction result.
func BuildView(fc entities.FieldConditions, res messages.PredictionResult, now time.Time) View {
	v := View{
		Crop:           fc.Crop,
		Soil:           fc.Soil,
		ObservedOn:     fc.ObservationDate.Format(time.DateOnly),
		PredictedYield: res.PredictedYield,
		YieldLabel:     YieldLabel(res.PredictedYield),
		Unit:           res.Unit,
		Severity:       res.Severity,
		LowYieldAlert:  res.LowYieldAlert,
		Recommendation: res.Recommendation,
		Importance:     Bars(res.FeatureImportance),
		GeneratedAt:    now.UTC(),
	}
	if v.Severity == "" {
		v.Severity = "healthy"
		if v.LowYieldAlert {
			v.Severity = "alert"
		}
	}
	return v
}

// YieldLabel formats a yield the way the dashboard metric shows it.
func YieldLabel(y float64) string { return fmt.Sprintf("%.2f MT/Ha", y) }

// Bars sorts importances by weight, largest first. Equal weights keep feature order.
func Bars(fi messages.FeatureImportance) []Bar {
	if len(fi) == 0 {
		return nil
	}
	bars := make([]Bar, len(fi))
	top := 0.0
	for i, w := range fi {
		bars[i] = Bar{Feature: w.Feature, Weight: w.Weight}
		top = math.Max(top, w.Weight)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Weight > bars[j].Weight })
	if top > 0 {
		for i := range bars {
			bars[i].Share = bars[i].Weight / top
		}
	}
	return bars
}

// FieldError is one rejected input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every input outside its domain.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid field conditions: " + strings.Join(parts, "; ")
}

// Validate checks the collector inputs against the domains the controls offer.
// Crop and soil are checked by the encoder, before anything leaves the process.
func Validate(fc entities.FieldConditions) error {
	var errs []FieldError
	check := func(field string, v float64, r entities.Range) {
		if math.IsNaN(v) || !r.Contains(v) {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("%g outside [%g, %g]", v, r.Min, r.Max),
			})
		}
	}
	check("soil_ph", fc.SoilPH, entities.SoilPHRange)
	check("temperature", fc.Temperature, entities.TemperatureRange)
	check("humidity", fc.Humidity, entities.HumidityRange)
	check("n", fc.N, entities.NRange)
	check("p", fc.P, entities.PRange)
	check("k", fc.K, entities.KRange)
	check("soil_quality", fc.SoilQuality, entities.SoilQualityRange)
	if fc.ObservationDate.IsZero() {
		errs = append(errs, FieldError{Field: "observation_date", Message: "required"})
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Options describes the collector controls: choices, domains and defaults.
type Options struct {
	Crops  []string                  `json:"crops"`
	Soils  []string                  `json:"soils"`
	Ranges map[string]entities.Range `json:"ranges"`
}

func DefaultOptions() Options {
	return Options{
		Crops: append([]string(nil), entities.CropNames...),
		Soils: append([]string(nil), entities.SoilNames...),
		Ranges: map[string]entities.Range{
			"soil_ph":      entities.SoilPHRange,
			"temperature":  entities.TemperatureRange,
			"humidity":     entities.HumidityRange,
			"n":            entities.NRange,
			"p":            entities.PRange,
			"k":            entities.KRange,
			"soil_quality": entities.SoilQualityRange,
		},
	}
}

// DefaultConditions is the form as first shown: first crop and soil, every
// control at its default, today's date.
func DefaultConditions(today time.Time) entities.FieldConditions {
	return entities.FieldConditions{
		Crop:            entities.CropNames[0],
		Soil:            entities.SoilNames[0],
		SoilPH:          entities.SoilPHRange.Default,
		Temperature:     entities.TemperatureRange.Default,
		Humidity:        entities.HumidityRange.Default,
		N:               entities.NRange.Default,
		P:               entities.PRange.Default,
		K:               entities.KRange.Default,
		SoilQuality:     entities.SoilQualityRange.Default,
		ObservationDate: today,
	}
}

// Failure kinds shown to the operator.
const (
	FailureInvalidInput     = "invalid_input"
	FailureModelUnavailable = "model_unavailable"
	FailurePrediction       = "prediction_failed"
	FailureTransport        = "service_unreachable"
)

// Describe turns any error of the encode/predict chain into a failure kind and
// an operator-facing message. The session always continues.
func Describe(err error) (kind, message string) {
	var (
		encErr *encoder.EncodingError
		valErr *ValidationError
		trErr  *prediction.TransportError
		prErr  *prediction.PredictionError
	)
	switch {
	case errors.As(err, &valErr):
		return FailureInvalidInput, valErr.Error()
	case errors.As(err, &encErr):
		return FailureInvalidInput, fmt.Sprintf("Unknown %s %q; pick one from the list.", encErr.Field, encErr.Value)
	case errors.Is(err, prediction.ErrModelUnavailable):
		return FailureModelUnavailable, "Model not loaded correctly."
	case errors.As(err, &trErr):
		return FailureTransport, fmt.Sprintf("Prediction service unreachable: %v", trErr.Err)
	case errors.As(err, &prErr):
		return FailurePrediction, fmt.Sprintf("Prediction Error: %v", prErr.Err)
	default:
		return FailurePrediction, fmt.Sprintf("Prediction Error: %v", err)
	}
}
