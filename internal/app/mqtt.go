package app

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"fleetflow/internal/config"
)

const mqttConnectTimeout = 10 * time.Second

// NewMQTTClient connects to the trip event broker. The client reconnects on
// its own after the first successful connection.
func NewMQTTClient(cfg config.MQTTConfig, logger log.FieldLogger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WithError(err).Warn("mqtt connection lost")
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			logger.WithField("broker", cfg.Broker).Info("mqtt connected")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	return client, nil
}
