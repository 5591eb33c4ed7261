package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

// PredictPath is the route of the prediction endpoint.
const PredictPath = "/predict"

const maxResponseBytes = 1 << 20

// HTTPClient calls POST /predict on a separately running prediction service.
// Each call is a single blocking request; nothing is retried.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient builds a client for baseURL. A zero timeout leaves the call bounded
// only by ctx and the transport.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &HTTPClient{
		endpoint: base + PredictPath,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Endpoint() string { return c.endpoint }

func (c *HTTPClient) Predict(ctx context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return messages.PredictionResult{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return messages.PredictionResult{}, &TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return messages.PredictionResult{}, &TransportError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return messages.PredictionResult{}, &TransportError{Op: "read", Err: err}
	}

	var out messages.PredictionResponse
	if !isJSON(resp.Header.Get("Content-Type")) || json.Unmarshal(raw, &out) != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return messages.PredictionResult{}, &TransportError{Op: "status", Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, snippet(raw))}
		}
		return messages.PredictionResult{}, &TransportError{Op: "decode", Err: fmt.Errorf("non-JSON response: %s", snippet(raw))}
	}
	if out.Error == "" && out.Code == "" && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return messages.PredictionResult{}, &TransportError{Op: "status", Err: errors.New(resp.Status)}
	}
	return FromResponse(out)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}
