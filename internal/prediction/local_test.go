package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	"github.com/LeonardoBeccarini/agripredict/internal/severity"
	"github.com/LeonardoBeccarini/agripredict/internal/yieldmodel"
)

// sampleRecord is the request used by the service smoke test.
func sampleRecord() entities.FeatureRecord {
	return entities.FeatureRecord{
		CropType: 9, SoilType: 2, SoilPH: 6.5, Temperature: 26, Humidity: 70,
		WindSpeed: 5, N: 80, P: 40, K: 60, SoilQuality: 7, Month: 1, Year: 2026,
	}
}

func forestModel(t *testing.T) *yieldmodel.Model {
	t.Helper()
	src := `{"format":"agripredict/v1","kind":"random_forest","feature_names":["` +
		strings.Join(entities.FeatureNames, `","`) + `"],` +
		`"trees":[{"nodes":[{"feature":6,"threshold":60,"left":1,"right":2},{"left":-1,"value":18.123},{"left":-1,"value":41.4567}]}],` +
		`"feature_importances":[0.1,0.1,0.1,0.1,0.1,0,0.3,0.05,0.05,0.05,0.025,0.025]}`
	m, err := yieldmodel.Parse(strings.NewReader(src), entities.FeatureNames)
	require.NoError(t, err)
	return m
}

func TestLocalPredictorEndToEndExample(t *testing.T) {
	p := NewLocalPredictor(yieldmodel.NewConstant(entities.FeatureNames, 4.5), severity.Default(), zap.NewNop())
	res, err := p.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)

	assert.Equal(t, 4.5, res.PredictedYield)
	assert.Equal(t, messages.YieldUnit, res.Unit)
	assert.True(t, res.LowYieldAlert)
	assert.Equal(t, "ALERT: Predicted yield is critically low! Check soil nutrients.", res.Recommendation)
	assert.Equal(t, string(severity.TierAlert), res.Severity)
	assert.Nil(t, res.FeatureImportance)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "feature_importance")
}

func TestLocalPredictorWithoutModel(t *testing.T) {
	p := NewLocalPredictor(nil, nil, nil)
	assert.False(t, p.Ready())
	for i := 0; i < 3; i++ {
		_, err := p.Predict(context.Background(), sampleRecord())
		assert.True(t, errors.Is(err, ErrModelUnavailable))
	}
}

func TestLocalPredictorForest(t *testing.T) {
	p := NewLocalPredictor(forestModel(t), severity.ThreeTier{Critical: 20, Warning: 30}, nil)

	res, err := p.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, 41.46, res.PredictedYield, "rounded to two decimals")
	assert.False(t, res.LowYieldAlert)
	assert.Contains(t, res.Recommendation, "Wheat")

	require.Len(t, res.FeatureImportance, len(entities.FeatureNames))
	for i, w := range res.FeatureImportance {
		assert.Equal(t, entities.FeatureNames[i], w.Feature)
	}

	rec := sampleRecord()
	rec.N = 10
	res, err = p.Predict(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, res.LowYieldAlert)
	assert.Equal(t, string(severity.TierAlert), res.Severity)
}

func TestLocalPredictorDeterministic(t *testing.T) {
	p := NewLocalPredictor(forestModel(t), nil, nil)
	first, err := p.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := p.Predict(context.Background(), sampleRecord())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLocalPredictorEvaluationFailure(t *testing.T) {
	p := NewLocalPredictor(yieldmodel.NewConstant([]string{"only"}, 1), nil, nil)
	_, err := p.Predict(context.Background(), sampleRecord())
	var pe *PredictionError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "model expects 1")
}

func TestLocalPredictorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewLocalPredictor(yieldmodel.NewConstant(entities.FeatureNames, 1), nil, nil)
	_, err := p.Predict(ctx, sampleRecord())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorResponseRoundTrip(t *testing.T) {
	_, err := FromResponse(ErrorResponse(ErrModelUnavailable))
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = FromResponse(ErrorResponse(&PredictionError{Err: errors.New("shape mismatch")}))
	var pe *PredictionError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "shape mismatch")

	_, err = FromResponse(messages.PredictionResponse{})
	assert.True(t, IsTransport(err))
}
