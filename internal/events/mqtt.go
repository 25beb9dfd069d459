package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const defaultPublishTimeout = 5 * time.Second

// MQTTPublisher publishes events as JSON to <prefix>/trips/<event>.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTTPublisher creates a publisher on an already connected client.
func NewMQTTPublisher(client mqtt.Client, topicPrefix string) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		prefix:  strings.TrimSuffix(topicPrefix, "/"),
		qos:     1,
		timeout: defaultPublishTimeout,
	}
}

// Topic returns the topic an event type is published on.
func (p *MQTTPublisher) Topic(t Type) string {
	return fmt.Sprintf("%s/trips/%s", p.prefix, strings.ToLower(string(t)))
}

// Publish sends the event and waits for the broker to acknowledge it.
func (p *MQTTPublisher) Publish(ctx context.Context, event TripEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal trip event: %w", err)
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	token := p.client.Publish(p.Topic(event.Type), p.qos, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timed out after %s", event.Type, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
