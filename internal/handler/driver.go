package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleetflow/internal/domain"
	"fleetflow/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	registry *service.RegistryService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(registry *service.RegistryService) *DriverHandler {
	return &DriverHandler{registry: registry}
}

// CreateDriverRequest is the HTTP request body for registering a driver.
type CreateDriverRequest struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	LicenseNumber   string   `json:"licenseNumber"`
	LicenseExpiry   string   `json:"licenseExpiry"`
	LicenseCategory string   `json:"licenseCategory"`
	SafetyScore     *float64 `json:"safetyScore"`
}

// UpdateDriverRequest is the HTTP request body for editing a driver profile.
type UpdateDriverRequest struct {
	Name            *string  `json:"name"`
	Phone           *string  `json:"phone"`
	LicenseNumber   *string  `json:"licenseNumber"`
	LicenseExpiry   *string  `json:"licenseExpiry"`
	LicenseCategory *string  `json:"licenseCategory"`
	SafetyScore     *float64 `json:"safetyScore"`
}

// SetDriverStatusRequest is the HTTP request body for a duty status change.
type SetDriverStatusRequest struct {
	Status string `json:"status"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	LicenseNumber    string  `json:"licenseNumber"`
	LicenseExpiry    string  `json:"licenseExpiry"`
	LicenseCategory  string  `json:"licenseCategory"`
	IsLicenseExpired bool    `json:"isLicenseExpired"`
	Status           string  `json:"status"`
	SafetyScore      float64 `json:"safetyScore"`
	TripCount        int     `json:"tripCount"`
	CompletedTrips   int     `json:"completedTrips"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:               d.ID,
		Name:             d.Name,
		Phone:            d.Phone,
		LicenseNumber:    d.LicenseNumber,
		LicenseExpiry:    formatTime(d.LicenseExpiry),
		LicenseCategory:  string(d.LicenseCategory),
		IsLicenseExpired: d.IsLicenseExpired(time.Now()),
		Status:           string(d.Status),
		SafetyScore:      d.SafetyScore,
		TripCount:        d.TripCount,
		CompletedTrips:   d.CompletedTrips,
		CreatedAt:        formatTime(d.CreatedAt),
		UpdatedAt:        formatTime(d.UpdatedAt),
	}
}

// Create handles POST /api/v1/drivers
func (h *DriverHandler) Create(c *gin.Context) {
	var req CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	expiry, err := optionalDate("licenseExpiry", req.LicenseExpiry)
	if err != nil {
		respondError(c, err)
		return
	}

	driver, err := h.registry.CreateDriver(c.Request.Context(), service.CreateDriverRequest{
		Name:            req.Name,
		Phone:           req.Phone,
		LicenseNumber:   req.LicenseNumber,
		LicenseExpiry:   expiry,
		LicenseCategory: domain.VehicleType(req.LicenseCategory),
		SafetyScore:     req.SafetyScore,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// List handles GET /api/v1/drivers
func (h *DriverHandler) List(c *gin.Context) {
	drivers, err := h.registry.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /api/v1/drivers/:id
func (h *DriverHandler) Get(c *gin.Context) {
	driver, err := h.registry.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// Update handles PUT /api/v1/drivers/:id
func (h *DriverHandler) Update(c *gin.Context) {
	var req UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	expiry, err := optionalDatePtr("licenseExpiry", req.LicenseExpiry)
	if err != nil {
		respondError(c, err)
		return
	}

	update := service.UpdateDriverRequest{
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		LicenseExpiry: expiry,
		SafetyScore:   req.SafetyScore,
	}
	if req.LicenseCategory != nil {
		category := domain.VehicleType(*req.LicenseCategory)
		update.LicenseCategory = &category
	}

	driver, err := h.registry.UpdateDriver(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// SetStatus handles PATCH /api/v1/drivers/:id/status
func (h *DriverHandler) SetStatus(c *gin.Context) {
	var req SetDriverStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	driver, err := h.registry.SetDriverStatus(c.Request.Context(), c.Param("id"), domain.DriverStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// Delete handles DELETE /api/v1/drivers/:id
func (h *DriverHandler) Delete(c *gin.Context) {
	if err := h.registry.DeleteDriver(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
