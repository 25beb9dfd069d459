package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetflow/internal/domain"
)

// fakeToken completes immediately with err.
type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

// fakeClient records published messages.
type fakeClient struct {
	mqtt.Client
	topics   []string
	payloads [][]byte
	err      error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	return &fakeToken{err: c.err}
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	pub := NewMQTTPublisher(client, "fleetflow/")

	event := TripEvent{
		Type:       TripDispatched,
		TripID:     "t1",
		VehicleID:  "v1",
		DriverID:   "d1",
		From:       domain.TripStatusDraft,
		To:         domain.TripStatusDispatched,
		OccurredAt: time.Now(),
	}
	require.NoError(t, pub.Publish(context.Background(), event))

	require.Len(t, client.topics, 1)
	assert.Equal(t, "fleetflow/trips/trip_dispatched", client.topics[0])

	var got TripEvent
	require.NoError(t, json.Unmarshal(client.payloads[0], &got))
	assert.Equal(t, "t1", got.TripID)
	assert.Equal(t, domain.TripStatusDispatched, got.To)
}

func TestMQTTPublisher_PropagatesBrokerError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	pub := NewMQTTPublisher(client, "fleetflow")

	err := pub.Publish(context.Background(), TripEvent{Type: TripCompleted})
	assert.ErrorContains(t, err, "not connected")
}

func TestLogPublisher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pub := NewLogPublisher(logger)

	require.NoError(t, pub.Publish(context.Background(), TripEvent{Type: TripCancelled, TripID: "t9"}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, "t9", entry.Data["trip_id"])
}
