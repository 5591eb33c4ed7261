package audit

import (
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
)

type pointWriter interface {
	WritePoint(point *write.Point)
}

// Writer queues points on the non-blocking write API and tracks the last
// asynchronous write error for /healthz and /readyz.
type Writer struct {
	points  pointWriter
	logger  *zap.Logger
	mu      sync.RWMutex
	lastErr time.Time
	written int64
	now     func() time.Time
}

// NewWriter starts draining the write API error channel.
func NewWriter(w api.WriteAPI, logger *zap.Logger) *Writer {
	return newWriter(w, w.Errors(), logger)
}

func newWriter(pw pointWriter, errs <-chan error, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	ww := &Writer{
		points:  pw,
		logger:  logger,
		lastErr: time.Now().Add(-24 * time.Hour),
		now:     time.Now,
	}
	go func() {
		for err := range errs {
			if err != nil {
				ww.mu.Lock()
				ww.lastErr = ww.now()
				ww.mu.Unlock()
				logger.Warn("influx write error", zap.Error(err))
			}
		}
	}()
	return ww
}

// Write queues the event.
func (w *Writer) Write(evt messages.PredictionEvent) {
	w.points.WritePoint(EventToPoint(evt))
	w.mu.Lock()
	w.written++
	w.mu.Unlock()
}

// LastErrorAge is the time since the last write error.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return w.now().Sub(t)
}

func (w *Writer) Written() int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.written
}
