// Package prediction is the serving process around the yield model: the /predict
// HTTP endpoint, the gRPC service, health and metrics, and prediction events.
package prediction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/encoder"
	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
)

// Service decorates the in-process predictor with metrics and event publishing.
// It is what both transports serve.
type Service struct {
	local   *core.LocalPredictor
	metrics *Metrics
	events  EventSink
	logger  *zap.Logger
	now     func() time.Time
}

var _ core.Predictor = (*Service)(nil)

// NewService wires the predictor. metrics and events may be nil.
func NewService(local *core.LocalPredictor, metrics *Metrics, events EventSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	metrics.setModelLoaded(local.Ready())
	return &Service{local: local, metrics: metrics, events: events, logger: logger, now: time.Now}
}

func (s *Service) Ready() bool { return s.local.Ready() }

func (s *Service) Predict(ctx context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error) {
	start := s.now()
	res, err := s.local.Predict(ctx, rec)
	elapsed := s.now().Sub(start)

	switch {
	case errors.Is(err, core.ErrModelUnavailable):
		s.metrics.observe("model_unavailable", "", elapsed)
		return res, err
	case err != nil:
		s.metrics.observe("error", "", elapsed)
		s.logger.Warn("prediction failed", zap.Error(err))
		return res, err
	}
	s.metrics.observe("ok", res.Severity, elapsed)

	if s.events != nil {
		s.publish(rec, res, start)
	}
	return res, nil
}

// publish never fails the request; the event is best effort.
func (s *Service) publish(rec entities.FeatureRecord, res messages.PredictionResult, at time.Time) {
	crop, _ := encoder.CropName(rec.CropType)
	evt := messages.PredictionEvent{
		RequestID:      uuid.NewString(),
		Crop:           crop,
		CropType:       rec.CropType,
		SoilType:       rec.SoilType,
		PredictedYield: res.PredictedYield,
		Severity:       res.Severity,
		LowYieldAlert:  res.LowYieldAlert,
		Month:          rec.Month,
		Year:           rec.Year,
		Timestamp:      at.UTC(),
	}
	if err := s.events.Publish(evt); err != nil {
		s.metrics.events.WithLabelValues("error").Inc()
		s.logger.Warn("prediction event not published", zap.String("request_id", evt.RequestID), zap.Error(err))
		return
	}
	s.metrics.events.WithLabelValues("ok").Inc()
}
