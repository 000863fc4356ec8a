package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EnquiryHandlerInterface defines the contract for enquiry and requirement handlers
type EnquiryHandlerInterface interface {
	CreateEnquiry(c fiber.Ctx) error
	ListEnquiries(c fiber.Ctx) error
	UpdateEnquiryStatus(c fiber.Ctx) error
	DeleteEnquiry(c fiber.Ctx) error
	ExportEnquiries(c fiber.Ctx) error

	CreateRequirement(c fiber.Ctx) error
	ListRequirements(c fiber.Ctx) error
	DeleteRequirement(c fiber.Ctx) error
}

// EnquiryHandler handles the public contact forms and their back office
type EnquiryHandler struct {
	baseHandler
	enquiryFlow     businessflow.EnquiryFlow
	requirementFlow businessflow.RequirementFlow
}

// NewEnquiryHandler creates a new enquiry handler
func NewEnquiryHandler(enquiryFlow businessflow.EnquiryFlow, requirementFlow businessflow.RequirementFlow) *EnquiryHandler {
	return &EnquiryHandler{
		baseHandler:     newBaseHandler(),
		enquiryFlow:     enquiryFlow,
		requirementFlow: requirementFlow,
	}
}

// CreateEnquiry stores a public enquiry
// @Summary Submit enquiry
// @Tags Enquiries
// @Accept json
// @Produce json
// @Param request body dto.CreateEnquiryRequest true "Enquiry"
// @Success 201 {object} dto.APIResponse{data=models.Enquiry} "Enquiry submitted"
// @Failure 400 {object} dto.ErrorResponse "Validation or captcha failure"
// @Router /api/v1/enquiries [post]
func (h *EnquiryHandler) CreateEnquiry(c fiber.Ctx) error {
	var req dto.CreateEnquiryRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/enquiries")
	defer cancel()

	enquiry, err := h.enquiryFlow.CreateEnquiry(ctx, &req)
	if err != nil {
		return h.FlowError(c, err, "Enquiry", "Create enquiry")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Enquiry submitted successfully", enquiry)
}

// ListEnquiries lists enquiries newest first
// @Summary List enquiries
// @Tags Enquiries
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Enquiry} "Enquiries fetched"
// @Router /api/v1/enquiries [get]
func (h *EnquiryHandler) ListEnquiries(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/enquiries")
	defer cancel()

	enquiries, err := h.enquiryFlow.ListEnquiries(ctx)
	if err != nil {
		return h.FlowError(c, err, "Enquiry", "List enquiries")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Enquiries fetched successfully", enquiries)
}

// UpdateEnquiryStatus moves an enquiry through new, in-progress and closed
// @Summary Update enquiry status
// @Tags Enquiries
// @Accept json
// @Produce json
// @Param id path int true "Enquiry ID"
// @Param request body dto.UpdateEnquiryStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=models.Enquiry} "Enquiry updated"
// @Failure 404 {object} dto.ErrorResponse "Enquiry not found"
// @Router /api/v1/enquiries/{id} [put]
func (h *EnquiryHandler) UpdateEnquiryStatus(c fiber.Ctx) error {
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Enquiry not found", "ENQUIRY_NOT_FOUND", nil)
	}

	var req dto.UpdateEnquiryStatusRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/enquiries/:id")
	defer cancel()

	enquiry, err := h.enquiryFlow.UpdateEnquiryStatus(ctx, id, req.Status)
	if err != nil {
		return h.FlowError(c, err, "Enquiry", "Update enquiry")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Enquiry updated successfully", enquiry)
}

// DeleteEnquiry removes an enquiry
// @Summary Delete enquiry
// @Tags Enquiries
// @Produce json
// @Param id path int true "Enquiry ID"
// @Success 200 {object} dto.APIResponse "Enquiry deleted"
// @Failure 404 {object} dto.ErrorResponse "Enquiry not found"
// @Router /api/v1/enquiries/{id} [delete]
func (h *EnquiryHandler) DeleteEnquiry(c fiber.Ctx) error {
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Enquiry not found", "ENQUIRY_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/enquiries/:id")
	defer cancel()

	if err := h.enquiryFlow.DeleteEnquiry(ctx, id); err != nil {
		return h.FlowError(c, err, "Enquiry", "Delete enquiry")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Enquiry deleted successfully", nil)
}

// ExportEnquiries downloads every enquiry as an XLSX workbook
// @Summary Export enquiries
// @Tags Enquiries
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "Workbook"
// @Router /api/v1/enquiries/export [get]
func (h *EnquiryHandler) ExportEnquiries(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/enquiries/export")
	defer cancel()

	filename, data, err := h.enquiryFlow.ExportEnquiries(ctx)
	if err != nil {
		return h.FlowError(c, err, "Enquiry", "Export enquiries")
	}

	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Status(fiber.StatusOK).Send(data)
}

// CreateRequirement stores a public property requirement
// @Summary Submit requirement
// @Tags Requirements
// @Accept json
// @Produce json
// @Param request body dto.CreateRequirementRequest true "Requirement"
// @Success 201 {object} dto.APIResponse{data=models.Requirement} "Requirement submitted"
// @Failure 400 {object} dto.ErrorResponse "Validation or captcha failure"
// @Router /api/v1/requirements [post]
func (h *EnquiryHandler) CreateRequirement(c fiber.Ctx) error {
	var req dto.CreateRequirementRequest
	if sent, err := h.decodeJSON(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/requirements")
	defer cancel()

	requirement, err := h.requirementFlow.CreateRequirement(ctx, &req)
	if err != nil {
		return h.FlowError(c, err, "Requirement", "Create requirement")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Requirement submitted successfully", requirement)
}

// ListRequirements lists requirements newest first
// @Summary List requirements
// @Tags Requirements
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Requirement} "Requirements fetched"
// @Router /api/v1/requirements [get]
func (h *EnquiryHandler) ListRequirements(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/requirements")
	defer cancel()

	requirements, err := h.requirementFlow.ListRequirements(ctx)
	if err != nil {
		return h.FlowError(c, err, "Requirement", "List requirements")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Requirements fetched successfully", requirements)
}

// DeleteRequirement removes a requirement
// @Summary Delete requirement
// @Tags Requirements
// @Produce json
// @Param id path int true "Requirement ID"
// @Success 200 {object} dto.APIResponse "Requirement deleted"
// @Failure 404 {object} dto.ErrorResponse "Requirement not found"
// @Router /api/v1/requirements/{id} [delete]
func (h *EnquiryHandler) DeleteRequirement(c fiber.Ctx) error {
	id, ok := parseIDOrNotFound(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Requirement not found", "REQUIREMENT_NOT_FOUND", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/requirements/:id")
	defer cancel()

	if err := h.requirementFlow.DeleteRequirement(ctx, id); err != nil {
		return h.FlowError(c, err, "Requirement", "Delete requirement")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Requirement deleted successfully", nil)
}
