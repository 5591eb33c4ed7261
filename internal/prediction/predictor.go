// Package prediction defines the yield prediction contract and its implementations:
// an in-process evaluator and network clients for the separately deployed service.
package prediction

import (
	"context"
	"time"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

// Predictor turns one feature record into one prediction result.
type Predictor interface {
	Predict(ctx context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error)
}

// Compile-time checks.
var (
	_ Predictor = (*LocalPredictor)(nil)
	_ Predictor = (*HTTPClient)(nil)
	_ Predictor = (*GRPCClient)(nil)
)

// WithTimeout bounds every call to p by d. A non-positive d returns p unchanged.
func WithTimeout(p Predictor, d time.Duration) Predictor {
	if d <= 0 {
		return p
	}
	return timeoutPredictor{next: p, d: d}
}

type timeoutPredictor struct {
	next Predictor
	d    time.Duration
}

func (t timeoutPredictor) Predict(ctx context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Predict(ctx, rec)
}
