package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// NotificationHandlerInterface defines the contract for notification handlers
type NotificationHandlerInterface interface {
	ListNotifications(c fiber.Ctx) error
	CreateNotification(c fiber.Ctx) error
	MarkNotificationRead(c fiber.Ctx) error
	DeleteNotification(c fiber.Ctx) error
}

// NotificationHandler handles in-app notification requests
type NotificationHandler struct {
	baseHandler
	notificationFlow businessflow.NotificationFlow
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationFlow businessflow.NotificationFlow) *NotificationHandler {
	return &NotificationHandler{
		baseHandler:      newBaseHandler(),
		notificationFlow: notificationFlow,
	}
}

// ListNotifications lists the caller's and broadcast notifications
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Notification} "Notifications fetched"
// @Failure 401 {object} dto.ErrorResponse "Not authorized"
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications")
	defer cancel()

	notifications, err := h.notificationFlow.ListNotifications(ctx, actor)
	if err != nil {
		return h.FlowError(c, err, "Notification", "List notifications")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Notifications fetched", notifications)
}

// CreateNotification sends a notification to one account or to everyone
// @Summary Send notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body dto.CreateNotificationRequest true "Recipient id or all, and message"
// @Success 201 {object} dto.APIResponse{data=models.Notification} "Notification created"
// @Failure 404 {object} dto.ErrorResponse "Recipient not found"
// @Router /api/v1/notifications [post]
func (h *NotificationHandler) CreateNotification(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}

	var req dto.CreateNotificationRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications")
	defer cancel()

	notification, err := h.notificationFlow.CreateNotification(ctx, actor, &req)
	if err != nil {
		return h.FlowError(c, err, "Notification", "Create notification")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Notification created successfully", notification)
}

// MarkNotificationRead marks a notification read
// @Summary Mark notification read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=models.Notification} "Notification updated"
// @Failure 403 {object} dto.ErrorResponse "Not authorized"
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /api/v1/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkNotificationRead(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", "NOTIFICATION_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications/:id/read")
	defer cancel()

	notification, err := h.notificationFlow.MarkNotificationRead(ctx, actor, id)
	if err != nil {
		if businessflow.IsNotificationForbidden(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Not authorized to update this notification", "NOTIFICATION_FORBIDDEN", nil)
		}
		return h.FlowError(c, err, "Notification", "Mark notification read")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Notification marked as read", notification)
}

// DeleteNotification removes a notification
// @Summary Delete notification
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse "Notification deleted"
// @Failure 403 {object} dto.ErrorResponse "Not authorized to delete this notification"
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /api/v1/notifications/{id} [delete]
func (h *NotificationHandler) DeleteNotification(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", "NOTIFICATION_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications/:id")
	defer cancel()

	if err := h.notificationFlow.DeleteNotification(ctx, actor, id); err != nil {
		return h.FlowError(c, err, "Notification", "Delete notification")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Notification deleted successfully", nil)
}
