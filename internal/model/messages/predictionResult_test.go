package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureImportanceKeepsOrder(t *testing.T) {
	fi := FeatureImportance{{"Soil_pH", 0.5}, {"Crop_Type", 0.25}, {"year", 0.25}}
	b, err := json.Marshal(fi)
	require.NoError(t, err)
	assert.Equal(t, `{"Soil_pH":0.5,"Crop_Type":0.25,"year":0.25}`, string(b))

	var back FeatureImportance
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, fi, back)
}

func TestFeatureImportanceRejectsArray(t *testing.T) {
	var fi FeatureImportance
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &fi))
}

func TestResultOmitsMissingImportance(t *testing.T) {
	b, err := json.Marshal(PredictionResult{PredictedYield: 4.5, Unit: YieldUnit})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "feature_importance")
}

func TestResponseErrorOnly(t *testing.T) {
	b, err := json.Marshal(PredictionResponse{Error: "model unavailable", Code: CodeModelUnavailable})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"model unavailable","code":"model_unavailable"}`, string(b))

	var resp PredictionResponse
	require.NoError(t, json.Unmarshal(b, &resp))
	assert.Nil(t, resp.PredictionResult)
	assert.Equal(t, CodeModelUnavailable, resp.Code)
}

func TestResponseResultOnly(t *testing.T) {
	in := `{"predicted_yield":31.2,"unit":"Metric Tons per Hectare","low_yield_alert":false,` +
		`"recommendation":"ok","feature_importance":{"N":0.7,"P":0.3}}`
	var resp PredictionResponse
	require.NoError(t, json.Unmarshal([]byte(in), &resp))
	require.NotNil(t, resp.PredictionResult)
	assert.Equal(t, 31.2, resp.PredictedYield)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]float64{"N": 0.7, "P": 0.3}, resp.FeatureImportance.Map())
}
