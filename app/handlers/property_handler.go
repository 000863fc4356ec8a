package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// PropertyHandlerInterface defines the contract for listing handlers
type PropertyHandlerInterface interface {
	ListProperties(c fiber.Ctx) error
	ListMyProperties(c fiber.Ctx) error
	GetProperty(c fiber.Ctx) error
	CreateProperty(c fiber.Ctx) error
	UpdateProperty(c fiber.Ctx) error
	DeleteProperty(c fiber.Ctx) error
}

// PropertyHandler handles property listing requests
type PropertyHandler struct {
	baseHandler
	propertyFlow businessflow.PropertyFlow
	uploads      UploadPolicy
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(propertyFlow businessflow.PropertyFlow, uploads UploadPolicy) *PropertyHandler {
	return &PropertyHandler{
		baseHandler:  newBaseHandler(),
		propertyFlow: propertyFlow,
		uploads:      uploads,
	}
}

// stageMedia stages the images and video fields of a listing request
func (h *PropertyHandler) stageMedia(c fiber.Ctx) (dto.PropertyMedia, error) {
	images, err := h.uploads.stageAll(c, "images")
	if err != nil {
		return dto.PropertyMedia{}, err
	}
	video, err := h.uploads.stageOptional(c, "video")
	if err != nil {
		discard(images...)
		return dto.PropertyMedia{}, err
	}
	return dto.PropertyMedia{ImagePaths: images, VideoPath: video}, nil
}

// ListProperties filters and paginates listings
// @Summary List properties
// @Tags Properties
// @Produce json
// @Param search query string false "Text match on title, description, address and features"
// @Param category query string false "Category"
// @Param sellingType query string false "Sale, Rent or Lease"
// @Param status query string false "Listing status"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.Property} "Properties fetched"
// @Router /api/v1/properties [get]
func (h *PropertyHandler) ListProperties(c fiber.Ctx) error {
	var query dto.PropertyListQuery
	if err := c.Bind().Query(&query); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if sent, err := h.validate(c, &query); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/properties")
	defer cancel()

	properties, err := h.propertyFlow.ListProperties(ctx, &query)
	if err != nil {
		return h.FlowError(c, err, "Property", "List properties")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Properties fetched successfully", properties)
}

// ListMyProperties lists the caller's own listings
// @Summary My properties
// @Tags Properties
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Property} "Properties fetched"
// @Failure 403 {object} dto.ErrorResponse "Only agents or franchises can view their properties"
// @Router /api/v1/properties/my-properties [get]
func (h *PropertyHandler) ListMyProperties(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/properties/my-properties")
	defer cancel()

	properties, err := h.propertyFlow.ListMyProperties(ctx, actor)
	if err != nil {
		return h.FlowError(c, err, "Property", "List my properties")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Properties fetched successfully", properties)
}

// GetProperty returns one listing
// @Summary Get property
// @Tags Properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} dto.APIResponse{data=models.Property} "Property fetched"
// @Failure 404 {object} dto.ErrorResponse "Property not found"
// @Router /api/v1/properties/{id} [get]
func (h *PropertyHandler) GetProperty(c fiber.Ctx) error {
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Property not found", "PROPERTY_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/properties/:id")
	defer cancel()

	property, err := h.propertyFlow.GetProperty(ctx, id)
	if err != nil {
		return h.FlowError(c, err, "Property", "Get property")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Property fetched successfully", property)
}

// CreateProperty publishes a listing with up to four images and a video
// @Summary Create property
// @Tags Properties
// @Accept mpfd
// @Produce json
// @Param request formData dto.CreatePropertyRequest true "Listing data"
// @Param images formData file false "Up to 4 images"
// @Param video formData file false "Video"
// @Success 201 {object} dto.APIResponse{data=models.Property} "Property created"
// @Failure 400 {object} dto.ErrorResponse "Maximum 4 images are allowed"
// @Router /api/v1/properties [post]
func (h *PropertyHandler) CreateProperty(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}

	var req dto.CreatePropertyRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	media, err := h.stageMedia(c)
	if err != nil {
		return h.uploadError(c, err, h.uploads.maxBytes())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/properties")
	defer cancel()

	property, err := h.propertyFlow.CreateProperty(ctx, actor, &req, media)
	if err != nil {
		return h.FlowError(c, err, "Property", "Create property")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Property created successfully", property)
}

// UpdateProperty patches a listing; new images replace the stored ones
// @Summary Update property
// @Tags Properties
// @Accept mpfd
// @Produce json
// @Param id path int true "Property ID"
// @Param request formData dto.UpdatePropertyRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Property} "Property updated"
// @Failure 403 {object} dto.ErrorResponse "Not authorized"
// @Failure 404 {object} dto.ErrorResponse "Property not found"
// @Router /api/v1/properties/{id} [put]
func (h *PropertyHandler) UpdateProperty(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Property not found", "PROPERTY_NOT_FOUND", nil)
	}

	var req dto.UpdatePropertyRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	media, err := h.stageMedia(c)
	if err != nil {
		return h.uploadError(c, err, h.uploads.maxBytes())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/properties/:id")
	defer cancel()

	property, err := h.propertyFlow.UpdateProperty(ctx, actor, id, &req, media)
	if err != nil {
		return h.FlowError(c, err, "Property", "Update property")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Property updated successfully", property)
}

// DeleteProperty removes a listing
// @Summary Delete property
// @Tags Properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} dto.APIResponse{data=models.Property} "Property deleted"
// @Failure 403 {object} dto.ErrorResponse "Not authorized"
// @Failure 404 {object} dto.ErrorResponse "Property not found"
// @Router /api/v1/properties/{id} [delete]
func (h *PropertyHandler) DeleteProperty(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Property not found", "PROPERTY_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/properties/:id")
	defer cancel()

	property, err := h.propertyFlow.DeleteProperty(ctx, actor, id)
	if err != nil {
		return h.FlowError(c, err, "Property", "Delete property")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Property deleted successfully", property)
}
