package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// StreamHandler handles the single live stream record
type StreamHandler struct {
	baseHandler
	streamFlow businessflow.StreamFlow
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(streamFlow businessflow.StreamFlow) *StreamHandler {
	return &StreamHandler{
		baseHandler: newBaseHandler(),
		streamFlow:  streamFlow,
	}
}

// SetStream upserts the live stream
// @Summary Set live stream
// @Tags Stream
// @Accept json
// @Produce json
// @Param request body dto.SetStreamRequest true "YouTube URL and state"
// @Success 200 {object} dto.APIResponse{data=models.Stream} "Stream saved"
// @Router /api/v1/stream/set [post]
func (h *StreamHandler) SetStream(c fiber.Ctx) error {
	var req dto.SetStreamRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/stream/set")
	defer cancel()

	stream, err := h.streamFlow.SetStream(ctx, &req)
	if err != nil {
		return h.FlowError(c, err, "Stream", "Set stream")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Stream saved successfully", stream)
}

// CurrentStream returns the live stream, or an empty object when none is set
// @Summary Current live stream
// @Tags Stream
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.Stream} "Stream fetched"
// @Router /api/v1/stream/current [get]
func (h *StreamHandler) CurrentStream(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/stream/current")
	defer cancel()

	stream, err := h.streamFlow.CurrentStream(ctx)
	if err != nil {
		return h.FlowError(c, err, "Stream", "Current stream")
	}
	if stream == nil {
		return h.SuccessResponse(c, fiber.StatusOK, "No stream found", fiber.Map{})
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Stream fetched successfully", stream)
}

// DeleteStream removes the live stream
// @Summary Delete live stream
// @Tags Stream
// @Produce json
// @Success 200 {object} dto.APIResponse "Stream deleted"
// @Failure 404 {object} dto.ErrorResponse "No stream found to delete."
// @Router /api/v1/stream/delete [delete]
func (h *StreamHandler) DeleteStream(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/stream/delete")
	defer cancel()

	if err := h.streamFlow.DeleteStream(ctx); err != nil {
		return h.FlowError(c, err, "Stream", "Delete stream")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Stream deleted successfully.", nil)
}
