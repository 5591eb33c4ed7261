// Package app is the dashboard gateway: it collects field conditions, encodes
// them, calls the configured predictor and returns the view model. It also
// proxies the prediction history kept by the audit service.
package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	core "github.com/LeonardoBeccarini/agripredict/internal/prediction"
)

type Config struct {
	AuditBaseURL string
	AuditPath    string
	HTTPTimeout  time.Duration
	Breaker      BreakerSettings

	Logger *zap.Logger
}

type Gateway struct {
	cfg       Config
	predictor core.Predictor
	history   *Upstream
	metrics   *metrics
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	lastHistory *History
}

// NewGateway wires the gateway around p, the predictor chosen at startup.
// reg may be nil.
func NewGateway(cfg Config, p core.Predictor, reg *prometheus.Registry) *Gateway {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.AuditPath == "" {
		cfg.AuditPath = "/predictions/recent"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 3 * time.Second
	}
	g := &Gateway{
		cfg:       cfg,
		predictor: p,
		history:   NewUpstream("audit", cfg.AuditBaseURL, cfg.AuditPath, cfg.HTTPTimeout, cfg.Breaker, cfg.Logger),
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if reg != nil {
		g.metrics = newMetrics(reg)
		g.gatherer = reg
	} else {
		g.metrics = newMetrics(nil)
	}
	return g
}

// Router exposes:
//
//	GET  /dashboard/options
//	POST /dashboard/predict
//	GET  /dashboard/history?limit=&minutes=
//	GET  /healthz, /metrics
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if g.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/options", g.HandleOptions)
		r.Post("/predict", g.HandlePredict)
		r.Get("/history", g.HandleHistory)
	})
	return r
}
