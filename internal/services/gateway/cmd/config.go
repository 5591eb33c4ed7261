package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agripredict/internal/services/gateway/app"
	"github.com/LeonardoBeccarini/agripredict/pkg/logging"
)

// Predictor topologies.
const (
	modeLocal = "local"
	modeHTTP  = "http"
	modeGRPC  = "grpc"
)

type Config struct {
	Port string

	PredictorMode  string
	PredictionURL  string // http mode
	PredictionGRPC string // grpc mode
	PredictTimeout time.Duration

	// local mode
	ModelPath          string
	SeverityPolicy     string
	SeverityPolicyFile string

	AuditURL    string // empty disables /dashboard/history
	TimeoutMs   int
	Breaker     app.BreakerSettings
	Log         logging.Config
	ShutdownFor time.Duration
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func loadConfig() Config {
	return Config{
		Port: getenv("PORT", "5009"),

		PredictorMode:  strings.ToLower(getenv("PREDICTOR_MODE", modeHTTP)),
		PredictionURL:  getenv("PREDICTION_URL", "http://prediction-service:5000"),
		PredictionGRPC: getenv("PREDICTION_GRPC_TARGET", "prediction-service:50051"),
		PredictTimeout: time.Duration(getenvInt("PREDICT_TIMEOUT_MS", 0)) * time.Millisecond,

		ModelPath:          getenv("MODEL_PATH", "crop_yield_model.json"),
		SeverityPolicy:     getenv("SEVERITY_POLICY", ""),
		SeverityPolicyFile: getenv("SEVERITY_POLICY_FILE", ""),

		AuditURL:  getenv("AUDIT_URL", ""),
		TimeoutMs: getenvInt("TIMEOUT_MS", 3000),
		Breaker: app.BreakerSettings{
			Failures: getenvInt("CB_FAILURES", 3),
			OpenFor:  time.Duration(getenvInt("CB_OPEN_MS", 10000)) * time.Millisecond,
			Interval: time.Duration(getenvInt("CB_INTERVAL_MS", 60000)) * time.Millisecond,
		},
		Log: logging.Config{
			Level:   getenv("LOG_LEVEL", "info"),
			Format:  getenv("LOG_FORMAT", "json"),
			Service: "gateway",
		},
		ShutdownFor: 5 * time.Second,
	}
}
