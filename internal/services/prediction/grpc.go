package prediction

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
)

// NewGRPCServer registers the YieldPredictor service and the standard health
// service. Health reports NOT_SERVING for the predictor while no model is loaded.
func NewGRPCServer(svc *Service, logger *zap.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	core.RegisterYieldPredictorServer(srv, core.NewYieldPredictorServer(svc))

	hs := health.NewServer()
	status := healthpb.HealthCheckResponse_SERVING
	if !svc.Ready() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(core.GRPCServiceName, status)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return resp, err
	}
}
