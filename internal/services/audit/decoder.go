// Package audit keeps the prediction audit trail: it consumes prediction events
// from the broker, stores them in InfluxDB and serves the most recent ones.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	"github.com/LeonardoBeccarini/agripredict/pkg/dedup"
)

// TopicPrefix is the prefix of every prediction event topic.
const TopicPrefix = "event/prediction/"

// MQTTHandler decodes prediction events and hands each new one to sink.
type MQTTHandler struct {
	sink   func(messages.PredictionEvent)
	seen   *dedup.Deduper
	logger *zap.Logger
	now    func() time.Time
}

// NewMQTTHandler builds the handler. seen may be nil to disable deduplication.
func NewMQTTHandler(sink func(messages.PredictionEvent), seen *dedup.Deduper, logger *zap.Logger) *MQTTHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTHandler{sink: sink, seen: seen, logger: logger, now: time.Now}
}

// Handle matches rabbitmq.Handler. Other topics are ignored.
func (h *MQTTHandler) Handle(_ string, m mqtt.Message) error {
	if !strings.HasPrefix(m.Topic(), TopicPrefix) {
		return nil
	}
	evt, err := decodePrediction(m.Topic(), m.Payload())
	if err != nil {
		return err
	}
	// QoS 1 may redeliver.
	if h.seen != nil && !h.seen.ShouldProcess(evt.RequestID) {
		h.logger.Debug("duplicate prediction event", zap.String("request_id", evt.RequestID))
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = h.now().UTC()
	}
	if h.sink != nil {
		h.sink(evt)
	}
	return nil
}

func decodePrediction(topic string, payload []byte) (messages.PredictionEvent, error) {
	var evt messages.PredictionEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return evt, fmt.Errorf("prediction event on %s: %w", topic, err)
	}
	if strings.TrimSpace(evt.RequestID) == "" {
		return evt, errors.New("prediction event: missing request_id")
	}
	if evt.Crop == "" {
		evt.Crop = strings.SplitN(strings.TrimPrefix(topic, TopicPrefix), "/", 2)[0]
	}
	return evt, nil
}
