package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
	"github.com/LeonardoBeccarini/agripredict/internal/services/gateway/app"
	"github.com/LeonardoBeccarini/agripredict/internal/severity"
	"github.com/LeonardoBeccarini/agripredict/internal/yieldmodel"
	"github.com/LeonardoBeccarini/agripredict/pkg/logging"
)

func main() {
	cfg := loadConfig()
	logger := logging.MustNew(cfg.Log)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("gateway stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	predictor, closeFn, err := newPredictor(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	reg := prometheus.NewRegistry()
	gw := app.NewGateway(app.Config{
		AuditBaseURL: cfg.AuditURL,
		HTTPTimeout:  time.Duration(cfg.TimeoutMs) * time.Millisecond,
		Breaker:      cfg.Breaker,
		Logger:       logger,
	}, predictor, reg)

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gw.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", zap.String("addr", hs.Addr), zap.String("predictor", cfg.PredictorMode))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownFor)
	defer cancel()
	return hs.Shutdown(shCtx)
}

// newPredictor picks the topology once. Remote predictors sit behind a breaker.
func newPredictor(cfg Config, logger *zap.Logger) (core.Predictor, func(), error) {
	noop := func() {}
	switch cfg.PredictorMode {
	case modeLocal:
		policy, err := severity.Resolve(cfg.SeverityPolicy, cfg.SeverityPolicyFile)
		if err != nil {
			return nil, noop, fmt.Errorf("severity policy: %w", err)
		}
		model, err := yieldmodel.Load(cfg.ModelPath, entities.FeatureNames)
		if err != nil {
			logger.Warn("no model loaded; predictions will report model unavailable",
				zap.String("path", cfg.ModelPath), zap.Error(err))
		}
		return core.NewLocalPredictor(model, policy, logger), noop, nil

	case modeHTTP:
		c := core.NewHTTPClient(cfg.PredictionURL, cfg.PredictTimeout)
		logger.Info("remote predictor", zap.String("endpoint", c.Endpoint()))
		return app.NewBreakerPredictor("prediction-http", c, cfg.Breaker, logger), noop, nil

	case modeGRPC:
		c, err := core.NewGRPCClient(cfg.PredictionGRPC)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("remote predictor", zap.String("target", cfg.PredictionGRPC))
		closeFn := func() { _ = c.Close() }
		return app.NewBreakerPredictor("prediction-grpc", core.WithTimeout(c, cfg.PredictTimeout), cfg.Breaker, logger), closeFn, nil

	default:
		return nil, noop, fmt.Errorf("unknown PREDICTOR_MODE %q (want local, http or grpc)", cfg.PredictorMode)
	}
}
