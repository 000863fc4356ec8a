package handlers

import (
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// DashboardHandler serves the franchise and superadmin dashboards
type DashboardHandler struct {
	baseHandler
	dashboardFlow businessflow.DashboardFlow
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardFlow businessflow.DashboardFlow) *DashboardHandler {
	return &DashboardHandler{
		baseHandler:   newBaseHandler(),
		dashboardFlow: dashboardFlow,
	}
}

// FranchiseStats returns the counters of one franchise
// @Summary Franchise dashboard
// @Tags Dashboards
// @Produce json
// @Param franchiseId path int true "Franchise ID"
// @Success 200 {object} dto.APIResponse{data=dto.FranchiseDashboardResponse} "Dashboard"
// @Failure 400 {object} dto.ErrorResponse "Franchise ID is required"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /api/v1/franchise/stats/{franchiseId} [get]
func (h *DashboardHandler) FranchiseStats(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	franchiseID, ok, err := h.pathID(c, "franchiseId", "Franchise ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/franchise/stats/:franchiseId")
	defer cancel()

	stats, err := h.dashboardFlow.FranchiseDashboard(ctx, actor, franchiseID)
	if err != nil {
		return h.FlowError(c, err, "Franchise", "Franchise dashboard")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard fetched successfully", stats)
}

// SuperAdminStats returns the platform wide counters
// @Summary Superadmin dashboard
// @Tags Dashboards
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SuperAdminDashboardResponse} "Dashboard"
// @Router /api/v1/speradmindashboard [get]
func (h *DashboardHandler) SuperAdminStats(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/speradmindashboard")
	defer cancel()

	stats, err := h.dashboardFlow.SuperAdminDashboard(ctx)
	if err != nil {
		return h.FlowError(c, err, "Dashboard", "Superadmin dashboard")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard fetched successfully", stats)
}
