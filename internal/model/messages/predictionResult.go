package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// YieldUnit is the unit every predicted_yield is expressed in.
const YieldUnit = "Metric Tons per Hectare"

// Error codes carried next to the error message on the wire.
const (
	CodeModelUnavailable = "model_unavailable"
	CodePredictionFailed = "prediction_failed"
	CodeInvalidRequest   = "invalid_request"
)

// PredictionResult is the outcome of one inference.
type PredictionResult struct {
	PredictedYield    float64           `json:"predicted_yield"`
	Unit              string            `json:"unit"`
	LowYieldAlert     bool              `json:"low_yield_alert"`
	Recommendation    string            `json:"recommendation"`
	Severity          string            `json:"severity,omitempty"`
	FeatureImportance FeatureImportance `json:"feature_importance,omitempty"`
}

// PredictionResponse is the body of POST /predict: either the result fields
// or an error payload, never both.
type PredictionResponse struct {
	*PredictionResult
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// FeatureWeight is one entry of a feature-importance vector.
type FeatureWeight struct {
	Feature string
	Weight  float64
}

// FeatureImportance keeps the feature order of the model input. It is encoded as a
// JSON object whose keys follow that order.
type FeatureImportance []FeatureWeight

func (fi FeatureImportance) MarshalJSON() ([]byte, error) {
	if fi == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, w := range fi {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(w.Feature)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(w.Weight)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (fi *FeatureImportance) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*fi = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("feature_importance: expected object, got %v", tok)
	}
	out := FeatureImportance{}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("feature_importance: non-string key %v", tok)
		}
		var w float64
		if err := dec.Decode(&w); err != nil {
			return fmt.Errorf("feature_importance[%s]: %w", key, err)
		}
		out = append(out, FeatureWeight{Feature: key, Weight: w})
	}
	*fi = out
	return nil
}

// Map is a convenience view for callers that do not care about order.
func (fi FeatureImportance) Map() map[string]float64 {
	m := make(map[string]float64, len(fi))
	for _, w := range fi {
		m[w.Feature] = w.Weight
	}
	return m
}
