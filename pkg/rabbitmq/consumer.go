package rabbitmq

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes a handler and blocks until the context is cancelled.
type IConsumer interface {
	ConsumeMessage(ctx context.Context) error
	SetHandler(handler Handler)
}

// Consumer subscribes to a set of topic filters with one handler.
type Consumer struct {
	client  mqtt.Client
	topics  []string
	qos     byte
	handler Handler
	logger  *zap.Logger
}

var _ IConsumer = (*Consumer)(nil)

func NewConsumer(client mqtt.Client, topics []string, qos byte, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{client: client, topics: topics, qos: qos, logger: logger}
}

func (c *Consumer) SetHandler(handler Handler) { c.handler = handler }

func (c *Consumer) ConsumeMessage(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("no handler set for %v", c.topics)
	}
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, c.qos, func(_ mqtt.Client, msg mqtt.Message) {
			if err := c.handler(topic, msg); err != nil {
				c.logger.Warn("error handling message", zap.String("topic", msg.Topic()), zap.Error(err))
			}
		})
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		c.logger.Info("subscribed", zap.String("topic", topic))
	}

	<-ctx.Done()

	for _, topic := range c.topics {
		c.client.Unsubscribe(topic).Wait()
	}
	return nil
}
