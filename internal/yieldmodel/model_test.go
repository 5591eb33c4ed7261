package yieldmodel

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
)

func row(n, ph, temp float64) []float64 {
	return []float64{9, 2, ph, temp, 70, 12, n, 40, 60, 7, 1, 2026}
}

func TestLoadForest(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "forest.json"), entities.FeatureNames)
	require.NoError(t, err)
	assert.Equal(t, KindRandomForest, m.Kind())

	// tree1: N=80 > 60, pH 6.5 <= 7 -> 42; tree2: temp 26 > 20 -> 34
	y, err := m.Predict(row(80, 6.5, 26))
	require.NoError(t, err)
	assert.InDelta(t, 38.0, y, 1e-9)

	// tree1: N=50 -> 18; tree2: temp 15 -> 22
	y, err = m.Predict(row(50, 6.5, 15))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, y, 1e-9)

	imp, ok := m.FeatureImportances()
	require.True(t, ok)
	assert.Len(t, imp, len(entities.FeatureNames))
	imp[0] = 99
	again, _ := m.FeatureImportances()
	assert.NotEqual(t, 99.0, again[0], "importances must be returned by copy")
}

func TestPredictIsDeterministic(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "forest.json"), entities.FeatureNames)
	require.NoError(t, err)
	x := row(61, 7.0, 20)
	first, err := m.Predict(x)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		y, err := m.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, first, y)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), entities.FeatureNames)
	assert.True(t, errors.Is(err, ErrArtifactMissing))
}

func TestParseLinearHasNoImportances(t *testing.T) {
	src := `{"format":"agripredict/v1","kind":"linear","feature_names":` + names() +
		`,"coefficients":[0,0,1,0,0,0,0.1,0,0,0,0,0],"intercept":2}`
	m, err := Parse(strings.NewReader(src), entities.FeatureNames)
	require.NoError(t, err)
	y, err := m.Predict(row(80, 6.5, 26))
	require.NoError(t, err)
	assert.InDelta(t, 2+6.5+8, y, 1e-9)
	_, ok := m.FeatureImportances()
	assert.False(t, ok)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"format":         `{"format":"v0","kind":"constant","feature_names":` + names() + `}`,
		"kind":           `{"format":"agripredict/v1","kind":"svm","feature_names":` + names() + `}`,
		"renamed column": `{"format":"agripredict/v1","kind":"constant","feature_names":["crop"]}`,
		"coef count":     `{"format":"agripredict/v1","kind":"linear","feature_names":` + names() + `,"coefficients":[1]}`,
		"no trees":       `{"format":"agripredict/v1","kind":"random_forest","feature_names":` + names() + `}`,
		"cycle": `{"format":"agripredict/v1","kind":"random_forest","feature_names":` + names() +
			`,"trees":[{"nodes":[{"feature":0,"threshold":1,"left":0,"right":0}]}]}`,
		"bad feature": `{"format":"agripredict/v1","kind":"random_forest","feature_names":` + names() +
			`,"trees":[{"nodes":[{"feature":12,"threshold":1,"left":1,"right":2},{"left":-1},{"left":-1}]}]}`,
		"importance on linear": `{"format":"agripredict/v1","kind":"linear","feature_names":` + names() +
			`,"coefficients":[0,0,0,0,0,0,0,0,0,0,0,0],"feature_importances":[1,0,0,0,0,0,0,0,0,0,0,0]}`,
		"unknown field": `{"format":"agripredict/v1","kind":"constant","feature_names":` + names() + `,"bias":1}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src), entities.FeatureNames)
			assert.Error(t, err)
		})
	}
}

func TestPredictShapeAndFiniteness(t *testing.T) {
	m := NewConstant(entities.FeatureNames, 4.5)
	_, err := m.Predict([]float64{1, 2, 3})
	assert.Error(t, err)

	x := row(80, 6.5, 26)
	x[4] = math.NaN()
	_, err = m.Predict(x)
	assert.Error(t, err)

	y, err := m.Predict(row(80, 6.5, 26))
	require.NoError(t, err)
	assert.Equal(t, 4.5, y)
}

func TestGradientBoosting(t *testing.T) {
	src := `{"format":"agripredict/v1","kind":"gradient_boosting","feature_names":` + names() +
		`,"init_value":10,"learning_rate":0.5,"trees":[{"nodes":[{"left":-1,"value":4}]},{"nodes":[{"left":-1,"value":2}]}]}`
	m, err := Parse(strings.NewReader(src), entities.FeatureNames)
	require.NoError(t, err)
	y, err := m.Predict(row(1, 1, 1))
	require.NoError(t, err)
	assert.InDelta(t, 13.0, y, 1e-9)
}

func names() string {
	return `["` + strings.Join(entities.FeatureNames, `","`) + `"]`
}
