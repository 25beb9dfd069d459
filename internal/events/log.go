package events

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger log.FieldLogger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger log.FieldLogger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event at Info.
func (p *LogPublisher) Publish(ctx context.Context, event TripEvent) error {
	p.logger.WithFields(log.Fields{
		"event":      event.Type,
		"trip_id":    event.TripID,
		"vehicle_id": event.VehicleID,
		"driver_id":  event.DriverID,
		"from":       event.From,
		"to":         event.To,
	}).Info("trip event")
	return nil
}
