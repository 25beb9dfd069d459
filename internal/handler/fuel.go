package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
	"fleetflow/internal/service"
)

// FuelHandler handles HTTP requests for fuel logs.
type FuelHandler struct {
	fuel *service.FuelService
}

// NewFuelHandler creates a new FuelHandler.
func NewFuelHandler(fuel *service.FuelService) *FuelHandler {
	return &FuelHandler{fuel: fuel}
}

// CreateFuelRequest is the HTTP request body for a fuel log.
type CreateFuelRequest struct {
	VehicleID    string  `json:"vehicleId"`
	TripID       string  `json:"tripId"`
	Liters       float64 `json:"liters"`
	CostPerLiter float64 `json:"costPerLiter"`
	Date         string  `json:"date"`
	Odometer     float64 `json:"odometer"`
}

// UpdateFuelRequest is the HTTP request body for editing a fuel log.
type UpdateFuelRequest struct {
	TripID       *string  `json:"tripId"`
	Liters       *float64 `json:"liters"`
	CostPerLiter *float64 `json:"costPerLiter"`
	Date         *string  `json:"date"`
	Odometer     *float64 `json:"odometer"`
}

// FuelResponse is the HTTP response for a fuel log.
type FuelResponse struct {
	ID           string  `json:"id"`
	VehicleID    string  `json:"vehicleId"`
	TripID       string  `json:"tripId,omitempty"`
	Liters       float64 `json:"liters"`
	CostPerLiter float64 `json:"costPerLiter"`
	TotalCost    float64 `json:"totalCost"`
	Date         string  `json:"date"`
	Odometer     float64 `json:"odometer"`
	CreatedAt    string  `json:"createdAt"`
}

func toFuelResponse(f *domain.FuelLog) FuelResponse {
	return FuelResponse{
		ID:           f.ID,
		VehicleID:    f.VehicleID,
		TripID:       f.TripID,
		Liters:       f.Liters,
		CostPerLiter: f.CostPerLiter,
		TotalCost:    f.TotalCost,
		Date:         formatTime(f.Date),
		Odometer:     f.Odometer,
		CreatedAt:    formatTime(f.CreatedAt),
	}
}

// Create handles POST /api/v1/fuel
func (h *FuelHandler) Create(c *gin.Context) {
	var req CreateFuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	date, err := optionalDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.fuel.Create(c.Request.Context(), service.CreateFuelRequest{
		VehicleID:    req.VehicleID,
		TripID:       req.TripID,
		Liters:       req.Liters,
		CostPerLiter: req.CostPerLiter,
		Date:         date,
		Odometer:     req.Odometer,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toFuelResponse(entry))
}

// List handles GET /api/v1/fuel?vehicleId=&tripId=
func (h *FuelHandler) List(c *gin.Context) {
	logs, err := h.fuel.List(c.Request.Context(), repository.LogFilter{
		VehicleID: c.Query("vehicleId"),
		TripID:    c.Query("tripId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]FuelResponse, 0, len(logs))
	for _, f := range logs {
		response = append(response, toFuelResponse(f))
	}
	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /api/v1/fuel/:id
func (h *FuelHandler) Get(c *gin.Context) {
	entry, err := h.fuel.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toFuelResponse(entry))
}

// Update handles PUT /api/v1/fuel/:id
func (h *FuelHandler) Update(c *gin.Context) {
	var req UpdateFuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	date, err := optionalDatePtr("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.fuel.Update(c.Request.Context(), c.Param("id"), service.UpdateFuelRequest{
		TripID:       req.TripID,
		Liters:       req.Liters,
		CostPerLiter: req.CostPerLiter,
		Date:         date,
		Odometer:     req.Odometer,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toFuelResponse(entry))
}

// Delete handles DELETE /api/v1/fuel/:id
func (h *FuelHandler) Delete(c *gin.Context) {
	if err := h.fuel.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
