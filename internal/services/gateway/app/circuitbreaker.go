package app

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
)

// BreakerSettings tune a breaker: it opens after Failures consecutive failures
// and lets a probe through after OpenFor.
type BreakerSettings struct {
	Failures int
	OpenFor  time.Duration
	Interval time.Duration
}

func newBreaker(name string, s BreakerSettings, isFailure func(error) bool, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if s.Failures < 1 {
		s.Failures = 1
	}
	if s.OpenFor <= 0 {
		s.OpenFor = 10 * time.Second
	}
	fails := uint32(s.Failures)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: s.Interval,
		Timeout:  s.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		IsSuccessful: func(err error) bool { return err == nil || !isFailure(err) },
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

// BreakerPredictor guards a remote predictor. Only transport failures count
// against the breaker; a model that answers with an error is a healthy service.
// Calls are never retried.
type BreakerPredictor struct {
	next core.Predictor
	cb   *gobreaker.CircuitBreaker
}

var _ core.Predictor = (*BreakerPredictor)(nil)

func NewBreakerPredictor(name string, next core.Predictor, s BreakerSettings, logger *zap.Logger) *BreakerPredictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakerPredictor{next: next, cb: newBreaker(name, s, core.IsTransport, logger)}
}

func (b *BreakerPredictor) Predict(ctx context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Predict(ctx, rec)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return messages.PredictionResult{}, &core.TransportError{Op: "breaker " + b.cb.Name(), Err: err}
	}
	res, _ := out.(messages.PredictionResult)
	return res, err
}

func (b *BreakerPredictor) State() gobreaker.State { return b.cb.State() }
