package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// GeoHandlerInterface defines the contract for district and area handlers
type GeoHandlerInterface interface {
	CreateDistrict(c fiber.Ctx) error
	ListDistricts(c fiber.Ctx) error
	CreateArea(c fiber.Ctx) error
	ListAreas(c fiber.Ctx) error
	GetArea(c fiber.Ctx) error
	UpdateArea(c fiber.Ctx) error
	DeleteArea(c fiber.Ctx) error
}

// GeoHandler handles district and area requests
type GeoHandler struct {
	baseHandler
	geoFlow businessflow.GeoFlow
}

// NewGeoHandler creates a new district and area handler
func NewGeoHandler(geoFlow businessflow.GeoFlow) *GeoHandler {
	return &GeoHandler{
		baseHandler: newBaseHandler(),
		geoFlow:     geoFlow,
	}
}

// CreateDistrict adds a district
// @Summary Create district
// @Tags Districts
// @Accept json
// @Produce json
// @Param request body dto.CreateDistrictRequest true "District name"
// @Success 201 {object} dto.APIResponse{data=models.District} "District created"
// @Failure 409 {object} dto.ErrorResponse "District with this name already exists"
// @Router /api/v1/districts [post]
func (h *GeoHandler) CreateDistrict(c fiber.Ctx) error {
	var req dto.CreateDistrictRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/districts")
	defer cancel()

	district, err := h.geoFlow.CreateDistrict(ctx, &req)
	if err != nil {
		return h.FlowError(c, err, "District", "Create district")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "District created successfully", district)
}

// ListDistricts lists districts by name
// @Summary List districts
// @Tags Districts
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.District} "Districts fetched"
// @Router /api/v1/districts [get]
func (h *GeoHandler) ListDistricts(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/districts")
	defer cancel()

	districts, err := h.geoFlow.ListDistricts(ctx)
	if err != nil {
		return h.FlowError(c, err, "District", "List districts")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Districts fetched successfully", districts)
}

// CreateArea adds an area to a district
// @Summary Create area
// @Tags Areas
// @Accept json
// @Produce json
// @Param request body dto.CreateAreaRequest true "Area name and district"
// @Success 201 {object} dto.APIResponse{data=models.Area} "Area created"
// @Failure 404 {object} dto.ErrorResponse "District not found"
// @Failure 409 {object} dto.ErrorResponse "Area already exists in this district"
// @Router /api/v1/areas [post]
func (h *GeoHandler) CreateArea(c fiber.Ctx) error {
	var req dto.CreateAreaRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/areas")
	defer cancel()

	area, err := h.geoFlow.CreateArea(ctx, &req)
	if err != nil {
		return h.FlowError(c, err, "Area", "Create area")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Area created successfully", area)
}

// ListAreas lists areas with their district
// @Summary List areas
// @Tags Areas
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Area} "Areas fetched"
// @Router /api/v1/areas [get]
func (h *GeoHandler) ListAreas(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/areas")
	defer cancel()

	areas, err := h.geoFlow.ListAreas(ctx)
	if err != nil {
		return h.FlowError(c, err, "Area", "List areas")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Areas fetched successfully", areas)
}

// GetArea returns one area
// @Summary Get area
// @Tags Areas
// @Produce json
// @Param id path int true "Area ID"
// @Success 200 {object} dto.APIResponse{data=models.Area} "Area fetched"
// @Failure 404 {object} dto.ErrorResponse "Area not found"
// @Router /api/v1/areas/{id} [get]
func (h *GeoHandler) GetArea(c fiber.Ctx) error {
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Area not found", "AREA_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/areas/:id")
	defer cancel()

	area, err := h.geoFlow.GetArea(ctx, id)
	if err != nil {
		return h.FlowError(c, err, "Area", "Get area")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Area fetched successfully", area)
}

// UpdateArea renames an area or moves it to another district
// @Summary Update area
// @Tags Areas
// @Accept json
// @Produce json
// @Param id path int true "Area ID"
// @Param request body dto.UpdateAreaRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Area} "Area updated"
// @Failure 404 {object} dto.ErrorResponse "Area or district not found"
// @Failure 409 {object} dto.ErrorResponse "Area already exists in this district"
// @Router /api/v1/areas/{id} [put]
func (h *GeoHandler) UpdateArea(c fiber.Ctx) error {
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Area not found", "AREA_NOT_FOUND", nil)
	}

	var req dto.UpdateAreaRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/areas/:id")
	defer cancel()

	area, err := h.geoFlow.UpdateArea(ctx, id, &req)
	if err != nil {
		return h.FlowError(c, err, "Area", "Update area")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Area updated successfully", area)
}

// DeleteArea removes an area
// @Summary Delete area
// @Tags Areas
// @Produce json
// @Param id path int true "Area ID"
// @Success 200 {object} dto.APIResponse{data=models.Area} "Area deleted"
// @Failure 404 {object} dto.ErrorResponse "Area not found"
// @Router /api/v1/areas/{id} [delete]
func (h *GeoHandler) DeleteArea(c fiber.Ctx) error {
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Area not found", "AREA_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/areas/:id")
	defer cancel()

	area, err := h.geoFlow.DeleteArea(ctx, id)
	if err != nil {
		return h.FlowError(c, err, "Area", "Delete area")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Area deleted successfully", area)
}
