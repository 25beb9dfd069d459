package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
	"fleetflow/internal/service"
)

// VehicleHandler handles HTTP requests for vehicles.
type VehicleHandler struct {
	registry *service.RegistryService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(registry *service.RegistryService) *VehicleHandler {
	return &VehicleHandler{registry: registry}
}

// CreateVehicleRequest is the HTTP request body for registering a vehicle.
type CreateVehicleRequest struct {
	Name            string  `json:"name"`
	Model           string  `json:"model"`
	LicensePlate    string  `json:"licensePlate"`
	Type            string  `json:"type"`
	MaxCapacity     float64 `json:"maxCapacity"`
	Odometer        float64 `json:"odometer"`
	Region          string  `json:"region"`
	AcquisitionCost float64 `json:"acquisitionCost"`
}

// UpdateVehicleRequest is the HTTP request body for editing a vehicle.
type UpdateVehicleRequest struct {
	Name            *string  `json:"name"`
	Model           *string  `json:"model"`
	LicensePlate    *string  `json:"licensePlate"`
	Type            *string  `json:"type"`
	MaxCapacity     *float64 `json:"maxCapacity"`
	Odometer        *float64 `json:"odometer"`
	Region          *string  `json:"region"`
	AcquisitionCost *float64 `json:"acquisitionCost"`
}

// VehicleResponse is the HTTP response for vehicle data.
type VehicleResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Model           string  `json:"model"`
	LicensePlate    string  `json:"licensePlate"`
	Type            string  `json:"type"`
	MaxCapacity     float64 `json:"maxCapacity"`
	Odometer        float64 `json:"odometer"`
	Status          string  `json:"status"`
	Region          string  `json:"region"`
	AcquisitionCost float64 `json:"acquisitionCost"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:              v.ID,
		Name:            v.Name,
		Model:           v.Model,
		LicensePlate:    v.LicensePlate,
		Type:            string(v.Type),
		MaxCapacity:     v.MaxCapacity,
		Odometer:        v.Odometer,
		Status:          string(v.Status),
		Region:          v.Region,
		AcquisitionCost: v.AcquisitionCost,
		CreatedAt:       formatTime(v.CreatedAt),
		UpdatedAt:       formatTime(v.UpdatedAt),
	}
}

// Create handles POST /api/v1/vehicles
func (h *VehicleHandler) Create(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	vehicle, err := h.registry.CreateVehicle(c.Request.Context(), service.CreateVehicleRequest{
		Name:            req.Name,
		Model:           req.Model,
		LicensePlate:    req.LicensePlate,
		Type:            domain.VehicleType(req.Type),
		MaxCapacity:     req.MaxCapacity,
		Odometer:        req.Odometer,
		Region:          req.Region,
		AcquisitionCost: req.AcquisitionCost,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// List handles GET /api/v1/vehicles?type=&status=&region=
func (h *VehicleHandler) List(c *gin.Context) {
	vehicles, err := h.registry.ListVehicles(c.Request.Context(), repository.VehicleFilter{
		Type:   domain.VehicleType(c.Query("type")),
		Status: domain.VehicleStatus(c.Query("status")),
		Region: c.Query("region"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, toVehicleResponse(v))
	}
	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /api/v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.registry.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// Update handles PUT /api/v1/vehicles/:id
func (h *VehicleHandler) Update(c *gin.Context) {
	var req UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	update := service.UpdateVehicleRequest{
		Name:            req.Name,
		Model:           req.Model,
		LicensePlate:    req.LicensePlate,
		MaxCapacity:     req.MaxCapacity,
		Odometer:        req.Odometer,
		Region:          req.Region,
		AcquisitionCost: req.AcquisitionCost,
	}
	if req.Type != nil {
		t := domain.VehicleType(*req.Type)
		update.Type = &t
	}

	vehicle, err := h.registry.UpdateVehicle(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// Delete handles DELETE /api/v1/vehicles/:id
func (h *VehicleHandler) Delete(c *gin.Context) {
	if err := h.registry.DeleteVehicle(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleRetire handles PATCH /api/v1/vehicles/:id/retire
func (h *VehicleHandler) ToggleRetire(c *gin.Context) {
	vehicle, err := h.registry.ToggleRetire(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}
