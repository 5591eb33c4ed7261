// Package cli implements the agripredict client commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/entities"
	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
	"github.com/LeonardoBeccarini/agripredict/internal/severity"
	"github.com/LeonardoBeccarini/agripredict/internal/yieldmodel"
	"github.com/LeonardoBeccarini/agripredict/pkg/logging"
)

// options shared by every command.
type options struct {
	transport  string
	url        string
	grpcTarget string
	timeout    time.Duration
	modelPath  string
	policy     string
	policyFile string
	logLevel   string

	logger *zap.Logger
	now    func() time.Time
}

// NewRootCmd builds the command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	o := &options{now: time.Now}
	root := &cobra.Command{
		Use:   "agripredict",
		Short: "Crop yield prediction client",
		Long: `agripredict talks to the yield prediction service.

  predict    send one feature record and print the raw response
  dashboard  encode field conditions, predict and render the result`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := logging.New(logging.Config{Level: o.logLevel, Format: "console"})
			if err != nil {
				return err
			}
			o.logger = l
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	f := root.PersistentFlags()
	f.StringVar(&o.transport, "transport", envOr("AGRIPREDICT_TRANSPORT", "http"), "http, grpc or local")
	f.StringVar(&o.url, "url", envOr("AGRIPREDICT_URL", "http://127.0.0.1:5000"), "prediction service base URL")
	f.StringVar(&o.grpcTarget, "grpc-target", envOr("AGRIPREDICT_GRPC_TARGET", "127.0.0.1:50051"), "prediction service gRPC target")
	f.DurationVar(&o.timeout, "timeout", 0, "request timeout (0 = none)")
	f.StringVar(&o.modelPath, "model", envOr("MODEL_PATH", "crop_yield_model.json"), "model artifact for --transport local")
	f.StringVar(&o.policy, "policy", os.Getenv("SEVERITY_POLICY"), "severity policy for --transport local")
	f.StringVar(&o.policyFile, "policy-file", os.Getenv("SEVERITY_POLICY_FILE"), "YAML severity policy for --transport local")
	f.StringVar(&o.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newPredictCmd(o), newDashboardCmd(o))
	return root
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout).ExecuteContext(ctx)
}

// predictor builds the configured predictor and a function releasing it.
func (o *options) predictor() (core.Predictor, func(), error) {
	noop := func() {}
	switch strings.ToLower(o.transport) {
	case "http":
		return core.NewHTTPClient(o.url, o.timeout), noop, nil
	case "grpc":
		c, err := core.NewGRPCClient(o.grpcTarget)
		if err != nil {
			return nil, noop, err
		}
		return core.WithTimeout(c, o.timeout), func() { _ = c.Close() }, nil
	case "local":
		policy, err := severity.Resolve(o.policy, o.policyFile)
		if err != nil {
			return nil, noop, err
		}
		m, err := yieldmodel.Load(o.modelPath, entities.FeatureNames)
		if err != nil {
			o.logger.Warn("no model loaded", zap.String("path", o.modelPath), zap.Error(err))
		}
		return core.NewLocalPredictor(m, policy, o.logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown transport %q (want http, grpc or local)", o.transport)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
