package service

import (
	"context"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// counterDelta is the change a single committed trip transition makes to
// the driver's tripCount and completedTrips.
type counterDelta struct {
	trips     int
	completed int
}

// tripCounterDelta is the only place trip counters are decided.
//
// tripCount moves on dispatch and again when a dispatched trip completes or
// is cancelled, so it counts claim events rather than trips. A driver who
// completes every trip therefore reports a completion rate of 50. Reports
// built on these counters depend on that denominator.
func tripCounterDelta(from, to domain.TripStatus) counterDelta {
	switch {
	case from == domain.TripStatusDraft && to == domain.TripStatusDispatched:
		return counterDelta{trips: 1}
	case from == domain.TripStatusDispatched && to == domain.TripStatusCompleted:
		return counterDelta{trips: 1, completed: 1}
	case from == domain.TripStatusDispatched && to == domain.TripStatusCancelled:
		return counterDelta{trips: 1}
	}
	return counterDelta{}
}

// applyTripCounters records the counter change for one transition.
func applyTripCounters(ctx context.Context, r repository.Repos, driverID string, from, to domain.TripStatus) error {
	d := tripCounterDelta(from, to)
	if d == (counterDelta{}) {
		return nil
	}
	return translate(r.Drivers.IncrementCounters(ctx, driverID, d.trips, d.completed), "driver", driverID)
}
