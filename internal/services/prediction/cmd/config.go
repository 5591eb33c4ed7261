package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agripredict/internal/services/prediction"
	"github.com/LeonardoBeccarini/agripredict/pkg/logging"
	"github.com/LeonardoBeccarini/agripredict/pkg/rabbitmq"
)

type Config struct {
	HTTPPort int
	GRPCPort int // 0 disables the gRPC listener

	ModelPath          string
	SeverityPolicy     string
	SeverityPolicyFile string

	// Events are published only when RABBITMQ_HOST is set.
	Rabbit     rabbitmq.RabbitMQConfig
	EventTopic string

	Log             logging.Config
	ShutdownTimeout time.Duration
}

func env(key, def string) string {
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

func loadConfig() Config {
	return Config{
		HTTPPort: envInt("HTTP_PORT", 5000),
		GRPCPort: envInt("GRPC_PORT", 50051),

		ModelPath:          env("MODEL_PATH", "crop_yield_model.json"),
		SeverityPolicy:     env("SEVERITY_POLICY", ""),
		SeverityPolicyFile: env("SEVERITY_POLICY_FILE", ""),

		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     env("RABBITMQ_HOST", ""),
			Port:     envInt("RABBITMQ_PORT", 1883),
			User:     env("RABBITMQ_USER", "guest"),
			Password: env("RABBITMQ_PASSWORD", "guest"),
			ClientID: env("HOSTNAME", "prediction-service"),
		},
		EventTopic: env("EVENT_TOPIC_TEMPLATE", prediction.DefaultEventTopic),

		Log: logging.Config{
			Level:   env("LOG_LEVEL", "info"),
			Format:  env("LOG_FORMAT", "json"),
			Service: "prediction-service",
		},
		ShutdownTimeout: time.Duration(envInt("SHUTDOWN_TIMEOUT_MS", 5000)) * time.Millisecond,
	}
}
