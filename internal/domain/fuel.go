package domain

import (
	"math"
	"time"
)

// FuelLog records a refuelling of a vehicle, optionally during a trip.
type FuelLog struct {
	ID           string
	VehicleID    string
	TripID       string // empty when not tied to a trip
	Liters       float64
	CostPerLiter float64
	TotalCost    float64
	Date         time.Time
	Odometer     float64
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ComputeTotal sets TotalCost from liters and unit price, rounded to cents.
// Called on every save.
func (f *FuelLog) ComputeTotal() {
	f.TotalCost = Round2(f.Liters * f.CostPerLiter)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return RoundHalfUp(v*100) / 100
}

// RoundHalfUp rounds to the nearest integer with halves going towards +Inf.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
