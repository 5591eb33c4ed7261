package prediction

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

// The gRPC transport carries the same JSON documents as POST /predict, using a
// registered "json" codec instead of generated protobuf stubs.
const (
	GRPCServiceName = "agripredict.YieldPredictor"
	grpcPredict     = "/" + GRPCServiceName + "/Predict"
	codecName       = "json"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// YieldPredictorServer is implemented by the prediction service. Failures are
// reported inside the response, not as gRPC status errors.
type YieldPredictorServer interface {
	Predict(ctx context.Context, rec *entities.FeatureRecord) (*messages.PredictionResponse, error)
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(entities.FeatureRecord)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(YieldPredictorServer).Predict(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: grpcPredict}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(YieldPredictorServer).Predict(ctx, req.(*entities.FeatureRecord))
	}
	return interceptor(ctx, in, info, handler)
}

// YieldPredictorServiceDesc describes the service for grpc.Server.RegisterService.
var YieldPredictorServiceDesc = grpc.ServiceDesc{
	ServiceName: GRPCServiceName,
	HandlerType: (*YieldPredictorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: predictHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agripredict/yield_predictor",
}

// RegisterYieldPredictorServer attaches impl to s.
func RegisterYieldPredictorServer(s grpc.ServiceRegistrar, impl YieldPredictorServer) {
	s.RegisterService(&YieldPredictorServiceDesc, impl)
}

// GRPCClient calls the prediction service over gRPC.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// NewGRPCClient creates a client for target. Without options the connection is
// plaintext, as in the rest of the cluster.
func NewGRPCClient(target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	return &GRPCClient{conn: conn}, nil
}

func (c *GRPCClient) Predict(ctx context.Context, rec entities.FeatureRecord) (messages.PredictionResult, error) {
	var out messages.PredictionResponse
	if err := c.conn.Invoke(ctx, grpcPredict, &rec, &out, grpc.CallContentSubtype(codecName)); err != nil {
		return messages.PredictionResult{}, &TransportError{Op: "grpc", Err: err}
	}
	return FromResponse(out)
}

func (c *GRPCClient) Close() error { return c.conn.Close() }

type predictorService struct {
	p Predictor
}

// NewYieldPredictorServer exposes p over gRPC.
func NewYieldPredictorServer(p Predictor) YieldPredictorServer {
	return &predictorService{p: p}
}

func (s *predictorService) Predict(ctx context.Context, rec *entities.FeatureRecord) (*messages.PredictionResponse, error) {
	res, err := s.p.Predict(ctx, *rec)
	if err != nil {
		resp := ErrorResponse(err)
		return &resp, nil
	}
	return &messages.PredictionResponse{PredictionResult: &res}, nil
}
