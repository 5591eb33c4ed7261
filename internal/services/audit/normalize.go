package audit

import (
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

// Measurement holds one point per prediction.
const Measurement = "prediction_event"

// EventToPoint maps an event to a point. Low-cardinality values are tags, the
// request id and numbers are fields.
func EventToPoint(evt messages.PredictionEvent) *write.Point {
	tags := map[string]string{
		"crop":            evt.Crop,
		"severity":        evt.Severity,
		"low_yield_alert": strconv.FormatBool(evt.LowYieldAlert),
	}
	fields := map[string]interface{}{
		"request_id":      evt.RequestID,
		"predicted_yield": evt.PredictedYield,
		"crop_type":       int64(evt.CropType),
		"soil_type":       int64(evt.SoilType),
		"month":           int64(evt.Month),
		"year":            int64(evt.Year),
	}
	return influxdb2.NewPoint(Measurement, tags, fields, evt.Timestamp)
}
