package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// UserHandlerInterface defines the contract for superadmin user management
type UserHandlerInterface interface {
	ListUsers(c fiber.Ctx) error
	UpdateUser(c fiber.Ctx) error
	DeleteUser(c fiber.Ctx) error
}

// UserHandler handles superadmin user management requests
type UserHandler struct {
	baseHandler
	userFlow businessflow.UserFlow
	uploads  UploadPolicy
}

// NewUserHandler creates a new user handler
func NewUserHandler(userFlow businessflow.UserFlow, uploads UploadPolicy) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(),
		userFlow:    userFlow,
		uploads:     uploads,
	}
}

// ListUsers lists accounts with role user
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Account} "Users fetched"
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/users")
	defer cancel()

	users, err := h.userFlow.ListUsers(ctx)
	if err != nil {
		return h.FlowError(c, err, "User", "List users")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Users fetched successfully", users)
}

// UpdateUser edits an account and optionally replaces its avatar
// @Summary Update user
// @Tags Users
// @Accept mpfd
// @Produce json
// @Param id path int true "Account ID"
// @Param request formData dto.UpdateAccountRequest true "Fields to change"
// @Param avatar formData file false "New avatar"
// @Success 200 {object} dto.APIResponse{data=models.Account} "User updated"
// @Failure 400 {object} dto.ErrorResponse "Role change not allowed"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Duplicate email or contact"
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "User ID is required")
	if !ok {
		return err
	}

	var req dto.UpdateAccountRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	avatarPath, err := h.uploads.stageOptional(c, "avatar")
	if err != nil {
		return h.uploadError(c, err, h.uploads.maxBytes())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/:id")
	defer cancel()

	user, err := h.userFlow.UpdateUser(ctx, id, &req, avatarPath)
	if err != nil {
		return h.FlowError(c, err, "User", "Update user")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "User updated successfully", user)
}

// DeleteUser removes any account
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} dto.APIResponse "User deleted"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "User ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/users/:id")
	defer cancel()

	if err := h.userFlow.DeleteUser(ctx, id, h.metadata(c)); err != nil {
		return h.FlowError(c, err, "User", "Delete user")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "User deleted successfully", nil)
}
