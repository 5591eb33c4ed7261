package prediction

import (
	"strings"

	"github.com/LeonardoBeccarini/agripredict/internal/model/messages"
	"github.com/LeonardoBeccarini/agripredict/pkg/rabbitmq"
)

// DefaultEventTopic is where prediction events go; {crop} is the crop name.
const DefaultEventTopic = "event/prediction/{crop}"

// EventSink receives a copy of every successful prediction.
type EventSink interface {
	Publish(evt messages.PredictionEvent) error
}

// MQTTEventSink publishes prediction events on the broker.
type MQTTEventSink struct {
	pub      rabbitmq.IPublisher
	template string
}

func NewMQTTEventSink(pub rabbitmq.IPublisher, template string) *MQTTEventSink {
	if strings.TrimSpace(template) == "" {
		template = DefaultEventTopic
	}
	return &MQTTEventSink{pub: pub, template: template}
}

func (s *MQTTEventSink) Publish(evt messages.PredictionEvent) error {
	return s.pub.PublishJSON(EventTopic(s.template, evt.Crop), evt)
}

// EventTopic fills the {crop} placeholder. Unknown crops go under "unknown".
func EventTopic(template, crop string) string {
	if strings.TrimSpace(crop) == "" {
		crop = "unknown"
	}
	return strings.NewReplacer("{crop}", crop).Replace(template)
}
