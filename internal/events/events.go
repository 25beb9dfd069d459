// Package events publishes trip lifecycle changes to downstream consumers.
package events

import (
	"context"
	"time"

	"fleetflow/internal/domain"
)

// Type names a trip lifecycle event.
type Type string

const (
	TripCreated    Type = "TRIP_CREATED"
	TripDispatched Type = "TRIP_DISPATCHED"
	TripCompleted  Type = "TRIP_COMPLETED"
	TripCancelled  Type = "TRIP_CANCELLED"
	TripDeleted    Type = "TRIP_DELETED"
)

// TripEvent is emitted after a trip transition has been committed.
type TripEvent struct {
	Type       Type              `json:"type"`
	TripID     string            `json:"trip_id"`
	VehicleID  string            `json:"vehicle_id"`
	DriverID   string            `json:"driver_id"`
	From       domain.TripStatus `json:"from,omitempty"`
	To         domain.TripStatus `json:"to,omitempty"`
	Distance   float64           `json:"distance,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Publisher delivers trip events.
type Publisher interface {
	Publish(ctx context.Context, event TripEvent) error
}
