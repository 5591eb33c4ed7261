package prediction

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/encoder"
	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	"github.com/LeonardoBeccarini/agripredict/internal/severity"
	"github.com/LeonardoBeccarini/agripredict/internal/yieldmodel"
)

// LocalPredictor evaluates a model loaded in this process. A nil model is valid:
// every call then fails with ErrModelUnavailable.
type LocalPredictor struct {
	model  *yieldmodel.Model
	policy severity.Policy
	logger *zap.Logger
}

func NewLocalPredictor(m *yieldmodel.Model, policy severity.Policy, logger *zap.Logger) *LocalPredictor {
	if policy == nil {
		policy = severity.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalPredictor{model: m, policy: policy, logger: logger}
}

// Ready reports whether a model is loaded.
func (p *LocalPredictor) Ready() bool { return p.model != nil }

func (p *LocalPredictor) Policy() severity.Policy { return p.policy }

func (p *LocalPredictor) Predict(ctx context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return messages.PredictionResult{}, err
	}
	if p.model == nil {
		return messages.PredictionResult{}, ErrModelUnavailable
	}

	y, err := p.evaluate(rec)
	if err != nil {
		p.logger.Warn("model evaluation failed", zap.Error(err), zap.Int("crop_type", rec.CropType))
		return messages.PredictionResult{}, &PredictionError{Err: err}
	}

	crop, err := encoder.CropName(rec.CropType)
	if err != nil {
		crop = ""
	}
	a := p.policy.Classify(y, crop)

	res := messages.PredictionResult{
		PredictedYield: math.Round(y*100) / 100,
		Unit:           messages.YieldUnit,
		LowYieldAlert:  a.Alert,
		Recommendation: a.Message,
		Severity:       string(a.Tier),
	}
	if imp, ok := p.model.FeatureImportances(); ok {
		names := p.model.Features()
		fi := make(messages.FeatureImportance, len(imp))
		for i, v := range imp {
			fi[i] = messages.FeatureWeight{Feature: names[i], Weight: v}
		}
		res.FeatureImportance = fi
	}

	p.logger.Debug("prediction",
		zap.Float64("yield", y),
		zap.String("severity", res.Severity),
		zap.String("policy", p.policy.Name()),
	)
	return res, nil
}

// evaluate runs the model, turning a panic inside it into an error.
func (p *LocalPredictor) evaluate(rec entities.FeatureRecord) (y float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return p.model.Predict(rec.Vector())
}
