package prediction

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	"github.com/LeonardoBeccarini/agripredict/internal/severity"
	"github.com/LeonardoBeccarini/agripredict/internal/yieldmodel"
)

func startGRPC(t *testing.T, p Predictor) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterYieldPredictorServer(s, NewYieldPredictorServer(p))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCRoundTrip(t *testing.T) {
	c := startGRPC(t, NewLocalPredictor(forestModel(t), severity.Default(), nil))
	res, err := c.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, 41.46, res.PredictedYield)
	require.Len(t, res.FeatureImportance, len(entities.FeatureNames))
	assert.Equal(t, "Crop_Type", res.FeatureImportance[0].Feature)
}

func TestGRPCModelUnavailable(t *testing.T) {
	c := startGRPC(t, NewLocalPredictor(nil, nil, nil))
	_, err := c.Predict(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.False(t, IsTransport(err))
}

func TestGRPCNoImportanceForConstant(t *testing.T) {
	c := startGRPC(t, NewLocalPredictor(yieldmodel.NewConstant(entities.FeatureNames, 4.5), nil, nil))
	res, err := c.Predict(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.True(t, res.LowYieldAlert)
	assert.Nil(t, res.FeatureImportance)
}

type slowPredictor struct{}

func (slowPredictor) Predict(ctx context.Context, _ entities.FeatureRecord) (messages.PredictionResult, error) {
	<-ctx.Done()
	return messages.PredictionResult{}, ctx.Err()
}

func TestGRPCTimeoutIsTransportError(t *testing.T) {
	c := startGRPC(t, slowPredictor{})
	_, err := WithTimeout(c, 50*time.Millisecond).Predict(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, IsTransport(err), "got %v", err)
}
