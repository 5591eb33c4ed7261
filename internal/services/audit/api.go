package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

// Querier reads back stored events, newest first.
type Querier interface {
	Recent(ctx context.Context, minutes, limit int) ([]messages.PredictionEvent, error)
}

// InfluxQuerier runs Flux against the audit bucket.
type InfluxQuerier struct {
	api    api.QueryAPI
	bucket string
}

func NewInfluxQuerier(q api.QueryAPI, bucket string) *InfluxQuerier {
	return &InfluxQuerier{api: q, bucket: bucket}
}

func buildFlux(bucket string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: %d)
`, bucket, minutes, Measurement, limit)
}

func (q *InfluxQuerier) Recent(ctx context.Context, minutes, limit int) ([]messages.PredictionEvent, error) {
	res, err := q.api.Query(ctx, buildFlux(q.bucket, minutes, limit))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer func() { _ = res.Close() }()

	out := make([]messages.PredictionEvent, 0, limit)
	for res.Next() {
		rec := res.Record()
		out = append(out, eventFromValues(rec.Time(), rec.Values()))
	}
	if err := res.Err(); err != nil {
		return out, fmt.Errorf("influx result: %w", err)
	}
	return out, nil
}

// eventFromValues rebuilds an event from a pivoted row.
func eventFromValues(t time.Time, v map[string]interface{}) messages.PredictionEvent {
	str := func(k string) string {
		s, _ := v[k].(string)
		return s
	}
	num := func(k string) float64 {
		switch x := v[k].(type) {
		case float64:
			return x
		case int64:
			return float64(x)
		case uint64:
			return float64(x)
		case string:
			f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
			return f
		}
		return 0
	}
	return messages.PredictionEvent{
		RequestID:      str("request_id"),
		Crop:           str("crop"),
		CropType:       int(num("crop_type")),
		SoilType:       int(num("soil_type")),
		PredictedYield: num("predicted_yield"),
		Severity:       str("severity"),
		LowYieldAlert:  str("low_yield_alert") == "true",
		Month:          int(num("month")),
		Year:           int(num("year")),
		Timestamp:      t.UTC(),
	}
}

type recentParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
}

func parseRecent(r *http.Request) recentParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return recentParams{
		Minutes:   get("minutes", 1440, 1, 30*24*60),
		Limit:     get("limit", 20, 1, 500),
		TimeoutMS: get("timeout_ms", 2000, 200, 5000),
	}
}

// NewRecentHandler serves GET /predictions/recent?limit=20[&minutes=1440].
// A failed query answers 502 with an empty list.
func NewRecentHandler(q Querier, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		p := parseRecent(r)
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		out, err := q.Recent(ctx, p.Minutes, p.Limit)
		if err != nil {
			logger.Warn("recent predictions query failed", zap.Error(err))
			w.Header().Set("X-Error", "influx-query-error")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("[]\n"))
			return
		}
		if out == nil {
			out = []messages.PredictionEvent{}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
}
