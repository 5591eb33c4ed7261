package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/dashboard"
	"github.com/LeonardoBeccarini/agripredict/internal/encoder"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

const maxFormBytes = 16 << 10

func (g *Gateway) HandleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.DefaultOptions())
}

// HandlePredict runs Encode -> Predict -> View for one form submission.
func (g *Gateway) HandlePredict(w http.ResponseWriter, r *http.Request) {
	start := g.now()
	outcome := "ok"
	defer func() {
		g.metrics.requests.WithLabelValues("predict", outcome).Inc()
		g.metrics.latency.WithLabelValues("predict").Observe(g.now().Sub(start).Seconds())
	}()

	var req PredictRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		outcome = dashboard.FailureInvalidInput
		writeJSON(w, http.StatusBadRequest, ErrorBody{
			Error: fmt.Sprintf("invalid request body: %v", err), Kind: dashboard.FailureInvalidInput,
		})
		return
	}

	view, err := g.predict(r.Context(), req)
	if err != nil {
		kind, msg := dashboard.Describe(err)
		outcome = kind
		body := ErrorBody{Error: msg, Kind: kind}
		var ve *dashboard.ValidationError
		if errors.As(err, &ve) {
			body.Fields = ve.Fields
		}
		if kind == dashboard.FailureTransport || kind == dashboard.FailurePrediction {
			g.logger.Warn("prediction failed", zap.String("kind", kind), zap.Error(err))
		}
		writeJSON(w, failureStatus(kind), body)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (g *Gateway) predict(ctx context.Context, req PredictRequest) (dashboard.View, error) {
	today := g.now()
	fc, err := req.Conditions(today)
	if err != nil {
		return dashboard.View{}, err
	}
	if err := dashboard.Validate(fc); err != nil {
		return dashboard.View{}, err
	}
	// Unknown categories stop here, before any call leaves the process.
	rec, err := encoder.Encode(fc)
	if err != nil {
		return dashboard.View{}, err
	}
	res, err := g.predictor.Predict(ctx, rec)
	if err != nil {
		return dashboard.View{}, err
	}
	return dashboard.BuildView(fc, res, today), nil
}

func failureStatus(kind string) int {
	switch kind {
	case dashboard.FailureInvalidInput:
		return http.StatusBadRequest
	case dashboard.FailureModelUnavailable:
		return http.StatusServiceUnavailable
	case dashboard.FailureTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleHistory proxies the audit service. When it fails, the last good answer
// is served marked stale; without one the call fails with 502.
func (g *Gateway) HandleHistory(w http.ResponseWriter, r *http.Request) {
	outcome := "ok"
	defer func() { g.metrics.requests.WithLabelValues("history", outcome).Inc() }()

	if !g.history.Configured() {
		writeJSON(w, http.StatusOK, History{Predictions: []messages.PredictionEvent{}})
		return
	}

	q := url.Values{}
	for _, k := range []string{"limit", "minutes"} {
		if v := r.URL.Query().Get(k); v != "" {
			if n, err := strconv.Atoi(v); err != nil || n <= 0 {
				outcome = dashboard.FailureInvalidInput
				writeJSON(w, http.StatusBadRequest, ErrorBody{
					Error: fmt.Sprintf("%s must be a positive integer", k), Kind: dashboard.FailureInvalidInput,
				})
				return
			}
			q.Set(k, v)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	var h History
	if err := g.history.GetJSON(ctx, q, &h.Predictions); err != nil {
		g.logger.Warn("history unavailable", zap.Error(err))
		g.mu.Lock()
		last := g.lastHistory
		g.mu.Unlock()
		if last == nil {
			outcome = dashboard.FailureTransport
			writeJSON(w, http.StatusBadGateway, ErrorBody{
				Error: "prediction history unavailable", Kind: dashboard.FailureTransport,
			})
			return
		}
		outcome = "stale"
		stale := *last
		stale.Stale = true
		writeJSON(w, http.StatusOK, stale)
		return
	}

	if h.Predictions == nil {
		h.Predictions = []messages.PredictionEvent{}
	}
	g.mu.Lock()
	g.lastHistory = &History{Predictions: h.Predictions}
	g.mu.Unlock()
	writeJSON(w, http.StatusOK, h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

