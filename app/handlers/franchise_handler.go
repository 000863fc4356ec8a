package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// FranchiseHandlerInterface defines the contract for franchise handlers
type FranchiseHandlerInterface interface {
	CreateFranchise(c fiber.Ctx) error
	ListFranchises(c fiber.Ctx) error
	GetFranchise(c fiber.Ctx) error
	UpdateFranchise(c fiber.Ctx) error
	DeleteFranchise(c fiber.Ctx) error
	ToggleFranchiseStatus(c fiber.Ctx) error
}

// FranchiseHandler handles franchise management requests
type FranchiseHandler struct {
	baseHandler
	franchiseFlow businessflow.FranchiseFlow
	uploads       UploadPolicy
}

// NewFranchiseHandler creates a new franchise handler
func NewFranchiseHandler(franchiseFlow businessflow.FranchiseFlow, uploads UploadPolicy) *FranchiseHandler {
	return &FranchiseHandler{
		baseHandler:   newBaseHandler(),
		franchiseFlow: franchiseFlow,
		uploads:       uploads,
	}
}

// CreateFranchise writes a franchise and its login account together
// @Summary Create franchise
// @Tags Franchise
// @Accept mpfd
// @Produce json
// @Param request formData dto.CreateFranchiseRequest true "Franchise data"
// @Param image formData file false "Franchise image"
// @Success 201 {object} dto.APIResponse{data=dto.FranchiseCreatedResponse} "Franchise created"
// @Failure 400 {object} dto.ErrorResponse "Passwords do not match"
// @Failure 409 {object} dto.ErrorResponse "Franchise already exists"
// @Router /api/v1/franchise/create [post]
func (h *FranchiseHandler) CreateFranchise(c fiber.Ctx) error {
	var req dto.CreateFranchiseRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	imagePath, err := h.uploads.stageOptional(c, "image")
	if err != nil {
		return h.uploadError(c, err, h.uploads.maxBytes())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/franchise/create")
	defer cancel()

	result, err := h.franchiseFlow.CreateFranchise(ctx, &req, imagePath, h.metadata(c))
	if err != nil {
		return h.FlowError(c, err, "Franchise", "Create franchise")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Franchise created successfully", result)
}

// ListFranchises lists franchises newest first
// @Summary List franchises
// @Tags Franchise
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Franchise} "Franchises fetched"
// @Router /api/v1/franchise [get]
func (h *FranchiseHandler) ListFranchises(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/franchise")
	defer cancel()

	franchises, err := h.franchiseFlow.ListFranchises(ctx)
	if err != nil {
		return h.FlowError(c, err, "Franchise", "List franchises")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Franchises fetched successfully", franchises)
}

// GetFranchise returns one franchise with its account
// @Summary Get franchise
// @Tags Franchise
// @Produce json
// @Param id path int true "Franchise ID"
// @Success 200 {object} dto.APIResponse{data=models.Franchise} "Franchise fetched"
// @Failure 404 {object} dto.ErrorResponse "Franchise not found"
// @Router /api/v1/franchise/{id} [get]
func (h *FranchiseHandler) GetFranchise(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "Franchise ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/franchise/:id")
	defer cancel()

	franchise, err := h.franchiseFlow.GetFranchise(ctx, id)
	if err != nil {
		return h.FlowError(c, err, "Franchise", "Get franchise")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Franchise fetched successfully", franchise)
}

// UpdateFranchise edits a franchise and mirrors the change on its account
// @Summary Update franchise
// @Tags Franchise
// @Accept json
// @Produce json
// @Param id path int true "Franchise ID"
// @Param request body dto.UpdateFranchiseRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Franchise} "Franchise updated"
// @Failure 404 {object} dto.ErrorResponse "Franchise not found"
// @Router /api/v1/franchise/{id} [put]
func (h *FranchiseHandler) UpdateFranchise(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "Franchise ID is required")
	if !ok {
		return err
	}

	var req dto.UpdateFranchiseRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/franchise/:id")
	defer cancel()

	franchise, err := h.franchiseFlow.UpdateFranchise(ctx, id, &req)
	if err != nil {
		return h.FlowError(c, err, "Franchise", "Update franchise")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Franchise updated successfully", franchise)
}

// DeleteFranchise removes a franchise and its login account
// @Summary Delete franchise
// @Tags Franchise
// @Produce json
// @Param id path int true "Franchise ID"
// @Success 200 {object} dto.APIResponse "Franchise deleted"
// @Failure 404 {object} dto.ErrorResponse "Franchise not found"
// @Router /api/v1/franchise/{id} [delete]
func (h *FranchiseHandler) DeleteFranchise(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "Franchise ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/franchise/:id")
	defer cancel()

	if err := h.franchiseFlow.DeleteFranchise(ctx, id, h.metadata(c)); err != nil {
		return h.FlowError(c, err, "Franchise", "Delete franchise")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Franchise deleted successfully", nil)
}

// ToggleFranchiseStatus approves a franchise, or sends an approved one back to pending
// @Summary Toggle franchise status
// @Tags Franchise
// @Produce json
// @Param id path int true "Franchise ID"
// @Success 200 {object} dto.APIResponse{data=models.Franchise} "Status toggled"
// @Failure 404 {object} dto.ErrorResponse "Franchise not found"
// @Router /api/v1/franchise/{id}/toggle-status [patch]
func (h *FranchiseHandler) ToggleFranchiseStatus(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "Franchise ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/franchise/:id/toggle-status")
	defer cancel()

	franchise, err := h.franchiseFlow.ToggleFranchiseStatus(ctx, id, h.metadata(c))
	if err != nil {
		return h.FlowError(c, err, "Franchise", "Toggle franchise status")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Franchise status updated successfully", franchise)
}
