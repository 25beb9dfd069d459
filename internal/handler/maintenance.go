package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
	"fleetflow/internal/service"
)

// MaintenanceHandler handles HTTP requests for maintenance logs.
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(maintenance *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenance}
}

// CreateMaintenanceRequest is the HTTP request body for a maintenance log.
type CreateMaintenanceRequest struct {
	VehicleID      string  `json:"vehicleId"`
	ServiceType    string  `json:"serviceType"`
	Description    string  `json:"description"`
	Cost           float64 `json:"cost"`
	Date           string  `json:"date"`
	Odometer       float64 `json:"odometer"`
	TechnicianName string  `json:"technicianName"`
}

// UpdateMaintenanceRequest is the HTTP request body for editing a log.
type UpdateMaintenanceRequest struct {
	ServiceType    *string  `json:"serviceType"`
	Description    *string  `json:"description"`
	Cost           *float64 `json:"cost"`
	Date           *string  `json:"date"`
	Odometer       *float64 `json:"odometer"`
	TechnicianName *string  `json:"technicianName"`
}

// MaintenanceResponse is the HTTP response for a maintenance log.
type MaintenanceResponse struct {
	ID             string  `json:"id"`
	VehicleID      string  `json:"vehicleId"`
	ServiceType    string  `json:"serviceType"`
	Description    string  `json:"description"`
	Cost           float64 `json:"cost"`
	Date           string  `json:"date"`
	Odometer       float64 `json:"odometer"`
	TechnicianName string  `json:"technicianName"`
	IsResolved     bool    `json:"isResolved"`
	CreatedAt      string  `json:"createdAt"`
}

func toMaintenanceResponse(m *domain.MaintenanceLog) MaintenanceResponse {
	return MaintenanceResponse{
		ID:             m.ID,
		VehicleID:      m.VehicleID,
		ServiceType:    string(m.ServiceType),
		Description:    m.Description,
		Cost:           m.Cost,
		Date:           formatTime(m.Date),
		Odometer:       m.Odometer,
		TechnicianName: m.TechnicianName,
		IsResolved:     m.IsResolved,
		CreatedAt:      formatTime(m.CreatedAt),
	}
}

// Create handles POST /api/v1/maintenance
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var req CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	date, err := optionalDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	entry, err := h.maintenance.Create(c.Request.Context(), service.CreateMaintenanceRequest{
		VehicleID:      req.VehicleID,
		ServiceType:    domain.ServiceType(req.ServiceType),
		Description:    req.Description,
		Cost:           req.Cost,
		Date:           date,
		Odometer:       req.Odometer,
		TechnicianName: req.TechnicianName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toMaintenanceResponse(entry))
}

// List handles GET /api/v1/maintenance?vehicleId=&open=true
func (h *MaintenanceHandler) List(c *gin.Context) {
	logs, err := h.maintenance.List(c.Request.Context(), repository.LogFilter{
		VehicleID:  c.Query("vehicleId"),
		Unresolved: c.Query("open") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]MaintenanceResponse, 0, len(logs))
	for _, m := range logs {
		response = append(response, toMaintenanceResponse(m))
	}
	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /api/v1/maintenance/:id
func (h *MaintenanceHandler) Get(c *gin.Context) {
	entry, err := h.maintenance.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toMaintenanceResponse(entry))
}

// Update handles PUT /api/v1/maintenance/:id
func (h *MaintenanceHandler) Update(c *gin.Context) {
	var req UpdateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	date, err := optionalDatePtr("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	update := service.UpdateMaintenanceRequest{
		Description:    req.Description,
		Cost:           req.Cost,
		Date:           date,
		Odometer:       req.Odometer,
		TechnicianName: req.TechnicianName,
	}
	if req.ServiceType != nil {
		st := domain.ServiceType(*req.ServiceType)
		update.ServiceType = &st
	}

	entry, err := h.maintenance.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toMaintenanceResponse(entry))
}

// Resolve handles PATCH /api/v1/maintenance/:id/resolve
func (h *MaintenanceHandler) Resolve(c *gin.Context) {
	entry, err := h.maintenance.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toMaintenanceResponse(entry))
}

// Delete handles DELETE /api/v1/maintenance/:id
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	if err := h.maintenance.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
