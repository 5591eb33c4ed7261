package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
	"github.com/LeonardoBeccarini/agripredict/internal/services/prediction"
	"github.com/LeonardoBeccarini/agripredict/internal/severity"
	"github.com/LeonardoBeccarini/agripredict/internal/yieldmodel"
	"github.com/LeonardoBeccarini/agripredict/pkg/logging"
	"github.com/LeonardoBeccarini/agripredict/pkg/rabbitmq"
)

func main() {
	cfg := loadConfig()
	logger := logging.MustNew(cfg.Log)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("prediction service stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := severity.Resolve(cfg.SeverityPolicy, cfg.SeverityPolicyFile)
	if err != nil {
		return fmt.Errorf("severity policy: %w", err)
	}

	// The model is loaded once. Without it the service still serves, answering
	// every prediction with model_unavailable.
	model, err := yieldmodel.Load(cfg.ModelPath, entities.FeatureNames)
	if err != nil {
		logger.Warn("no model loaded; predictions will report model unavailable",
			zap.String("path", cfg.ModelPath), zap.Error(err))
		model = nil
	} else {
		logger.Info("model loaded", zap.String("path", cfg.ModelPath), zap.String("kind", string(model.Kind())))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := prediction.NewMetrics(reg)

	var (
		broker mqtt.Client
		events prediction.EventSink
	)
	if cfg.Rabbit.Enabled() {
		broker, err = rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit, logger)
		if err != nil {
			return err
		}
		defer rabbitmq.CloseRabbitMQConn(broker)
		events = prediction.NewMQTTEventSink(rabbitmq.NewPublisher(broker, 1), cfg.EventTopic)
		logger.Info("publishing prediction events", zap.String("topic", cfg.EventTopic))
	}

	local := core.NewLocalPredictor(model, policy, logger)
	svc := prediction.NewService(local, metrics, events, logger)
	logger.Info("severity policy", zap.String("policy", policy.Name()))

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           prediction.NewHTTPMux(svc, prediction.MuxOptions{Gatherer: reg, Broker: broker}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP listening", zap.String("addr", hs.Addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.GRPCPort > 0 {
		addr := ":" + strconv.Itoa(cfg.GRPCPort)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		gs, health := prediction.NewGRPCServer(svc, logger)
		go func() {
			logger.Info("gRPC listening", zap.String("addr", addr))
			if err := gs.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
		defer func() {
			health.Shutdown()
			gs.GracefulStop()
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return hs.Shutdown(shCtx)
}
