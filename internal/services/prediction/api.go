package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
)

const maxRequestBytes = 64 << 10

// NewHTTPMux exposes the service:
//
//	POST /predict   FeatureRecord -> PredictionResult | {"error": ...}
//	GET  /healthz   liveness and model status
//	GET  /readyz    200 only with a model loaded
//	GET  /metrics   Prometheus
func NewHTTPMux(svc *Service, opts MuxOptions) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(core.PredictPath, &predictHandler{svc: svc})
	mux.Handle("/healthz", NewHealthHandler(svc, opts.Broker))
	mux.Handle("/readyz", NewReadyHandler(svc))
	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// MuxOptions are the optional collaborators of NewHTTPMux.
type MuxOptions struct {
	Gatherer prometheus.Gatherer
	Broker   mqtt.Client
}

type predictHandler struct {
	svc *Service
}

func (h *predictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, messages.PredictionResponse{
			Error: "method not allowed", Code: messages.CodeInvalidRequest,
		})
		return
	}

	rec, err := decodeRecord(r.Body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, messages.PredictionResponse{
			Error: err.Error(), Code: messages.CodeInvalidRequest,
		})
		return
	}

	res, err := h.svc.Predict(r.Context(), rec)
	if err != nil {
		// Failures are reported in the body; the status stays 200.
		writeJSON(w, http.StatusOK, core.ErrorResponse(err))
		return
	}
	writeJSON(w, http.StatusOK, messages.PredictionResponse{PredictionResult: &res})
}

// decodeRecord requires every feature to be present; extra keys are ignored.
func decodeRecord(body io.Reader) (entities.FeatureRecord, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxRequestBytes))
	if err != nil {
		return entities.FeatureRecord{}, fmt.Errorf("read body: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return entities.FeatureRecord{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	var missing []string
	for _, name := range entities.FeatureNames {
		v, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return entities.FeatureRecord{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}
	var rec entities.FeatureRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return entities.FeatureRecord{}, fmt.Errorf("invalid field value: %w", err)
	}
	return rec, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
