package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/services/audit"
	"github.com/LeonardoBeccarini/agripredict/pkg/dedup"
	"github.com/LeonardoBeccarini/agripredict/pkg/logging"
	"github.com/LeonardoBeccarini/agripredict/pkg/rabbitmq"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	cfg := struct {
		Rabbit rabbitmq.RabbitMQConfig

		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		Topics        []string
		BatchSize     int
		FlushInterval time.Duration

		HTTPPort       int
		ReadinessGrace time.Duration
		Log            logging.Config
	}{
		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     envStr("RABBITMQ_HOST", "localhost"),
			Port:     envInt("RABBITMQ_PORT", 1883),
			User:     envStr("RABBITMQ_USER", "guest"),
			Password: envStr("RABBITMQ_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "audit-service"),
		},

		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "agripredict"),
		InfluxBucket: envStr("INFLUX_BUCKET", "predictions"),

		Topics: func() []string {
			raw := envStr("EVENT_SUB_TOPICS", audit.TopicPrefix+"#")
			var out []string
			for _, p := range strings.Split(raw, ",") {
				if s := strings.TrimSpace(p); s != "" {
					out = append(out, s)
				}
			}
			return out
		}(),
		BatchSize:     envInt("WRITE_BATCH_SIZE", 10),
		FlushInterval: time.Duration(envInt("WRITE_FLUSH_INTERVAL_MS", 200)) * time.Millisecond,

		HTTPPort:       envInt("HTTP_PORT", 8080),
		ReadinessGrace: 5 * time.Second,
		Log: logging.Config{
			Level:   envStr("LOG_LEVEL", "info"),
			Format:  envStr("LOG_FORMAT", "json"),
			Service: "audit-service",
		},
	}

	logger := logging.MustNew(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === InfluxDB ===
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(cfg.BatchSize)).
		SetFlushInterval(uint(cfg.FlushInterval.Milliseconds()))
	influx := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken, opts)
	defer influx.Close()
	writeAPI := influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket)
	defer writeAPI.Flush()
	writer := audit.NewWriter(writeAPI, logger)

	// === MQTT ===
	mqttClient, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit, logger)
	if err != nil {
		logger.Fatal("mqtt connection error", zap.Error(err))
	}
	defer rabbitmq.CloseRabbitMQConn(mqttClient)

	// === HTTP ===
	mux := http.NewServeMux()
	mux.Handle("/healthz", audit.NewHealthHandler(mqttClient, influx, writer))
	mux.Handle("/readyz", audit.NewReadyHandler(mqttClient, influx, writer, 2*time.Second))
	mux.Handle("/predictions/recent", audit.NewRecentHandler(
		audit.NewInfluxQuerier(influx.QueryAPI(cfg.InfluxOrg), cfg.InfluxBucket), logger))

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP listening", zap.Int("port", cfg.HTTPPort))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	// === Consumer ===
	h := audit.NewMQTTHandler(writer.Write, dedup.New(10*time.Minute, 20000), logger)
	consumer := rabbitmq.NewConsumer(mqttClient, cfg.Topics, 1, logger)
	consumer.SetHandler(h.Handle)
	if err := consumer.ConsumeMessage(ctx); err != nil {
		logger.Error("consumer stopped", zap.Error(err))
	}

	logger.Info("shutting down")
	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.ReadinessGrace)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
