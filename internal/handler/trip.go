package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
	"fleetflow/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest is the HTTP request body for drafting a trip.
type CreateTripRequest struct {
	VehicleID     string   `json:"vehicleId"`
	DriverID      string   `json:"driverId"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	CargoWeight   float64  `json:"cargoWeight"`
	StartOdometer *float64 `json:"startOdometer"`
	Revenue       *float64 `json:"revenue"`
	Notes         string   `json:"notes"`
}

// CompleteTripRequest is the HTTP request body for completing a trip.
type CompleteTripRequest struct {
	EndOdometer *float64 `json:"endOdometer"`
	Revenue     *float64 `json:"revenue"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ID            string  `json:"id"`
	VehicleID     string  `json:"vehicleId"`
	DriverID      string  `json:"driverId"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	CargoWeight   float64 `json:"cargoWeight"`
	Status        string  `json:"status"`
	StartOdometer float64 `json:"startOdometer"`
	EndOdometer   float64 `json:"endOdometer"`
	Distance      float64 `json:"distance"`
	Revenue       float64 `json:"revenue"`
	Notes         string  `json:"notes,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	DispatchedAt  string  `json:"dispatchedAt,omitempty"`
	CompletedAt   string  `json:"completedAt,omitempty"`
	CancelledAt   string  `json:"cancelledAt,omitempty"`
}

func toTripResponse(t *domain.Trip) TripResponse {
	return TripResponse{
		ID:            t.ID,
		VehicleID:     t.VehicleID,
		DriverID:      t.DriverID,
		Origin:        t.Origin,
		Destination:   t.Destination,
		CargoWeight:   t.CargoWeight,
		Status:        string(t.Status),
		StartOdometer: t.StartOdometer,
		EndOdometer:   t.EndOdometer,
		Distance:      t.Distance,
		Revenue:       t.Revenue,
		Notes:         t.Notes,
		CreatedAt:     formatTime(t.CreatedAt),
		DispatchedAt:  formatTime(t.DispatchedAt),
		CompletedAt:   formatTime(t.CompletedAt),
		CancelledAt:   formatTime(t.CancelledAt),
	}
}

// Create handles POST /api/v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), service.CreateTripRequest{
		VehicleID:     req.VehicleID,
		DriverID:      req.DriverID,
		CargoWeight:   req.CargoWeight,
		Origin:        req.Origin,
		Destination:   req.Destination,
		StartOdometer: req.StartOdometer,
		Revenue:       req.Revenue,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// Dispatch handles PATCH /api/v1/trips/:id/dispatch
func (h *TripHandler) Dispatch(c *gin.Context) {
	trip, err := h.tripService.Dispatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Complete handles PATCH /api/v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	var req CompleteTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	trip, err := h.tripService.Complete(c.Request.Context(), c.Param("id"), service.CompleteTripRequest{
		EndOdometer: req.EndOdometer,
		Revenue:     req.Revenue,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Cancel handles PATCH /api/v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	trip, err := h.tripService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Delete handles DELETE /api/v1/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	if err := h.tripService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get handles GET /api/v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// List handles GET /api/v1/trips?status=&vehicleId=&driverId=
func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.tripService.List(c.Request.Context(), repository.TripFilter{
		Status:    domain.TripStatus(c.Query("status")),
		VehicleID: c.Query("vehicleId"),
		DriverID:  c.Query("driverId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		response = append(response, toTripResponse(t))
	}
	respondJSON(c, http.StatusOK, response)
}
