package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusDraft      TripStatus = "DRAFT"
	TripStatusDispatched TripStatus = "DISPATCHED"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// Valid reports whether s is a known trip status.
func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusDraft, TripStatusDispatched, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// tripTransitions lists every permitted edge of the trip lifecycle.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusDraft:      {TripStatusDispatched, TripStatusCancelled},
	TripStatusDispatched: {TripStatusCompleted, TripStatusCancelled},
}

// CanTransition reports whether a trip may move from s to next.
func (s TripStatus) CanTransition(next TripStatus) bool {
	for _, to := range tripTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s TripStatus) IsTerminal() bool {
	return len(tripTransitions[s]) == 0
}

// HoldsClaim reports whether a trip in this status owns its vehicle and driver.
func (s TripStatus) HoldsClaim() bool {
	return s == TripStatusDispatched
}

// Deletable reports whether a trip in this status may be removed.
func (s TripStatus) Deletable() bool {
	return s == TripStatusDraft || s == TripStatusCancelled
}

// Trip represents a cargo trip from origin to destination.
type Trip struct {
	ID            string
	VehicleID     string
	DriverID      string
	Origin        string
	Destination   string
	CargoWeight   float64
	Status        TripStatus
	StartOdometer float64
	EndOdometer   float64
	Distance      float64
	Revenue       float64
	Notes         string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DispatchedAt  time.Time
	CompletedAt   time.Time
	CancelledAt   time.Time
}

// TripDistance returns end-start, floored at zero.
func TripDistance(start, end float64) float64 {
	if end < start {
		return 0
	}
	return end - start
}
