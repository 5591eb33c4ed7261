package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agripredict/internal/dashboard"
	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
	"github.com/LeonardoBeccarini/agripredict/internal/severity"
	"github.com/LeonardoBeccarini/agripredict/internal/yieldmodel"
)

// recordingPredictor remembers what it was asked and answers with res/err.
type recordingPredictor struct {
	mu    sync.Mutex
	calls []entities.FeatureRecord
	res   messages.PredictionResult
	err   error
}

func (p *recordingPredictor) Predict(_ context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, rec)
	return p.res, p.err
}

func (p *recordingPredictor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

var today = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestGateway(t *testing.T, p core.Predictor, auditURL string) *httptest.Server {
	t.Helper()
	gw := NewGateway(Config{
		AuditBaseURL: auditURL,
		HTTPTimeout:  time.Second,
		Breaker:      BreakerSettings{Failures: 1, OpenFor: time.Minute},
	}, p, prometheus.NewRegistry())
	gw.now = func() time.Time { return today }
	ts := httptest.NewServer(gw.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/dashboard/predict", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp, raw
}

func TestPredictLocalEndToEnd(t *testing.T) {
	local := core.NewLocalPredictor(yieldmodel.NewConstant(entities.FeatureNames, 4.5), severity.Default(), nil)
	ts := newTestGateway(t, local, "")

	resp, raw := post(t, ts, `{"crop":"Rice","soil":"Silt","observation_date":"2024-11-05"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v dashboard.View
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, "4.50 MT/Ha", v.YieldLabel)
	assert.True(t, v.LowYieldAlert)
	assert.Equal(t, "alert", v.Severity)
	assert.Equal(t, "2024-11-05", v.ObservedOn)
	assert.Empty(t, v.Importance)
}

func TestPredictEncodesForm(t *testing.T) {
	p := &recordingPredictor{res: messages.PredictionResult{PredictedYield: 40, Severity: "healthy"}}
	ts := newTestGateway(t, p, "")

	resp, _ := post(t, ts, `{"crop":"Cotton","soil":"Loamy","n":120,"observation_date":"2024-02-29"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, p.count())

	rec := p.calls[0]
	assert.Equal(t, 2, rec.CropType)
	assert.Equal(t, 2, rec.SoilType)
	assert.Equal(t, 120.0, rec.N)
	assert.Equal(t, entities.PRange.Default, rec.P)
	assert.Equal(t, 12.0, rec.WindSpeed)
	assert.Equal(t, 2, rec.Month)
	assert.Equal(t, 2024, rec.Year)
}

func TestPredictDefaultsToToday(t *testing.T) {
	p := &recordingPredictor{res: messages.PredictionResult{PredictedYield: 40}}
	ts := newTestGateway(t, p, "")
	resp, _ := post(t, ts, `{"crop":"Wheat","soil":"Clay"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, p.calls[0].Month)
	assert.Equal(t, 2025, p.calls[0].Year)
}

func TestPredictRejectsBadInputBeforeCalling(t *testing.T) {
	p := &recordingPredictor{}
	ts := newTestGateway(t, p, "")

	for _, body := range []string{
		`{"crop":"Barley","soil":"Clay"}`,
		`{"crop":"Wheat","soil":"Peat"}`,
		`{"crop":"Wheat","soil":"Clay","soil_ph":12}`,
		`{"crop":"Wheat","soil":"Clay","observation_date":"05/11/2024"}`,
		`{"crop":"Wheat","soil":"Clay","colour":"red"}`,
		`not json`,
	} {
		resp, raw := post(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		var eb ErrorBody
		require.NoError(t, json.Unmarshal(raw, &eb))
		assert.Equal(t, dashboard.FailureInvalidInput, eb.Kind, body)
	}
	assert.Zero(t, p.count(), "nothing reaches the predictor")
}

func TestPredictFailures(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{core.ErrModelUnavailable, http.StatusServiceUnavailable, dashboard.FailureModelUnavailable},
		{&core.PredictionError{Err: errors.New("NaN")}, http.StatusInternalServerError, dashboard.FailurePrediction},
		{&core.TransportError{Op: "http", Err: errors.New("connection refused")}, http.StatusBadGateway, dashboard.FailureTransport},
	}
	for _, tc := range cases {
		ts := newTestGateway(t, &recordingPredictor{err: tc.err}, "")
		resp, raw := post(t, ts, `{"crop":"Wheat","soil":"Clay"}`)
		assert.Equal(t, tc.status, resp.StatusCode)
		var eb ErrorBody
		require.NoError(t, json.Unmarshal(raw, &eb))
		assert.Equal(t, tc.kind, eb.Kind)
		assert.NotEmpty(t, eb.Error)
	}
}

func TestOptions(t *testing.T) {
	ts := newTestGateway(t, &recordingPredictor{}, "")
	resp, err := http.Get(ts.URL + "/dashboard/options")
	require.NoError(t, err)
	defer resp.Body.Close()

	var o dashboard.Options
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	assert.Equal(t, entities.CropNames, o.Crops)
	assert.Equal(t, 6.5, o.Ranges["soil_ph"].Default)
}

func getHistory(t *testing.T, ts *httptest.Server, query string) (int, History) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/dashboard/history" + query)
	require.NoError(t, err)
	defer resp.Body.Close()
	var h History
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	}
	return resp.StatusCode, h
}

func TestHistoryProxyAndStaleFallback(t *testing.T) {
	var (
		mu      sync.Mutex
		failing bool
		query   string
	)
	audit := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		query = r.URL.RawQuery
		if failing {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		assert.Equal(t, "/predictions/recent", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]messages.PredictionEvent{{RequestID: "r1", Crop: "Wheat", PredictedYield: 4.5}})
	}))
	defer audit.Close()

	ts := newTestGateway(t, &recordingPredictor{}, audit.URL)

	code, h := getHistory(t, ts, "?limit=5")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, h.Predictions, 1)
	assert.False(t, h.Stale)
	mu.Lock()
	assert.Equal(t, "limit=5", query)
	failing = true
	mu.Unlock()

	code, h = getHistory(t, ts, "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, h.Stale)
	assert.Equal(t, "r1", h.Predictions[0].RequestID)
}

func TestHistoryWithoutAuditOrCache(t *testing.T) {
	ts := newTestGateway(t, &recordingPredictor{}, "")
	code, h := getHistory(t, ts, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, h.Predictions)

	down := newTestGateway(t, &recordingPredictor{}, "http://127.0.0.1:1")
	code, _ = getHistory(t, down, "")
	assert.Equal(t, http.StatusBadGateway, code)

	code, _ = getHistory(t, down, "?limit=-3")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBreakerPredictorOpensOnTransportErrors(t *testing.T) {
	p := &recordingPredictor{err: &core.TransportError{Op: "http", Err: errors.New("connection refused")}}
	b := NewBreakerPredictor("test", p, BreakerSettings{Failures: 2, OpenFor: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Predict(context.Background(), entities.FeatureRecord{})
		assert.True(t, core.IsTransport(err))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Predict(context.Background(), entities.FeatureRecord{})
	assert.True(t, core.IsTransport(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, p.count(), "open breaker fails fast without calling through")
}

func TestBreakerPredictorIgnoresModelErrors(t *testing.T) {
	p := &recordingPredictor{err: core.ErrModelUnavailable}
	b := NewBreakerPredictor("test", p, BreakerSettings{Failures: 1, OpenFor: time.Minute}, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Predict(context.Background(), entities.FeatureRecord{})
		assert.ErrorIs(t, err, core.ErrModelUnavailable)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 3, p.count())
}

func TestBreakerPredictorPassesResult(t *testing.T) {
	p := &recordingPredictor{res: messages.PredictionResult{PredictedYield: 33.3}}
	b := NewBreakerPredictor("test", p, BreakerSettings{}, nil)
	res, err := b.Predict(context.Background(), entities.FeatureRecord{})
	require.NoError(t, err)
	assert.Equal(t, 33.3, res.PredictedYield)
}
