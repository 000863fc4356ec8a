package handlers

import (
	"github.com/amirphl/property-guru/app/dto"
	businessflow "github.com/amirphl/property-guru/business_flow"
	"github.com/gofiber/fiber/v3"
)

// AgentHandlerInterface defines the contract for agent handlers
type AgentHandlerInterface interface {
	ListAgents(c fiber.Ctx) error
	TopAgents(c fiber.Ctx) error
	UpdateAgent(c fiber.Ctx) error
	DeleteAgent(c fiber.Ctx) error
	ToggleAgentStatus(c fiber.Ctx) error

	CreateFranchiseAgent(c fiber.Ctx) error
	ListFranchiseAgents(c fiber.Ctx) error
	UpdateFranchiseAgent(c fiber.Ctx) error
	DeleteFranchiseAgent(c fiber.Ctx) error
}

// AgentHandler handles agent management requests
type AgentHandler struct {
	baseHandler
	agentFlow businessflow.AgentFlow
	uploads   UploadPolicy
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(agentFlow businessflow.AgentFlow, uploads UploadPolicy) *AgentHandler {
	return &AgentHandler{
		baseHandler: newBaseHandler(),
		agentFlow:   agentFlow,
		uploads:     uploads,
	}
}

// ListAgents lists every agent with its franchise
// @Summary List agents
// @Tags Agents
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Account} "Agents fetched"
// @Router /api/v1/agents [get]
func (h *AgentHandler) ListAgents(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/agents")
	defer cancel()

	agents, err := h.agentFlow.ListAgents(ctx)
	if err != nil {
		return h.FlowError(c, err, "Agent", "List agents")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Agents fetched successfully", agents)
}

// TopAgents lists the newest agents
// @Summary Newest agents
// @Tags Agents
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Account} "Agents fetched"
// @Router /api/v1/agents/top5 [get]
func (h *AgentHandler) TopAgents(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/top5")
	defer cancel()

	agents, err := h.agentFlow.TopAgents(ctx)
	if err != nil {
		return h.FlowError(c, err, "Agent", "Top agents")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "5 agents fetched successfully", agents)
}

// UpdateAgent edits an agent account
// @Summary Update agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param id path int true "Agent ID"
// @Param request body dto.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Account} "Agent updated"
// @Failure 400 {object} dto.ErrorResponse "Role change not allowed"
// @Failure 404 {object} dto.ErrorResponse "Agent not found"
// @Router /api/v1/agents/{id} [put]
func (h *AgentHandler) UpdateAgent(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "Agent ID is required")
	if !ok {
		return err
	}

	var req dto.UpdateAccountRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/:id")
	defer cancel()

	agent, err := h.agentFlow.UpdateAgent(ctx, id, &req)
	if err != nil {
		return h.FlowError(c, err, "Agent", "Update agent")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Agent updated successfully", agent)
}

// DeleteAgent removes an agent and its franchise reference
// @Summary Delete agent
// @Tags Agents
// @Produce json
// @Param id path int true "Agent ID"
// @Success 200 {object} dto.APIResponse "Agent deleted"
// @Failure 404 {object} dto.ErrorResponse "Agent not found"
// @Router /api/v1/agents/{id} [delete]
func (h *AgentHandler) DeleteAgent(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "Agent ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/:id")
	defer cancel()

	if err := h.agentFlow.DeleteAgent(ctx, id, h.metadata(c)); err != nil {
		return h.FlowError(c, err, "Agent", "Delete agent")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Agent deleted successfully", nil)
}

// ToggleAgentStatus flips an agent between active and inactive
// @Summary Toggle agent status
// @Tags Agents
// @Produce json
// @Param id path int true "Agent ID"
// @Success 200 {object} dto.APIResponse{data=models.Account} "Status toggled"
// @Failure 404 {object} dto.ErrorResponse "Agent not found"
// @Router /api/v1/agents/{id}/toggle-status [patch]
func (h *AgentHandler) ToggleAgentStatus(c fiber.Ctx) error {
	id, ok, err := h.pathID(c, "id", "Agent ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/:id/toggle-status")
	defer cancel()

	agent, err := h.agentFlow.ToggleAgentStatus(ctx, id, h.metadata(c))
	if err != nil {
		return h.FlowError(c, err, "Agent", "Toggle agent status")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Agent status updated successfully", agent)
}

// CreateFranchiseAgent adds an inactive agent under a franchise
// @Summary Add agent to franchise
// @Tags Agents
// @Accept mpfd
// @Produce json
// @Param franchiseId path int true "Franchise ID"
// @Param request formData dto.CreateAgentRequest true "Agent data"
// @Param avatar formData file false "Avatar image"
// @Success 201 {object} dto.APIResponse{data=models.Account} "Agent added"
// @Failure 400 {object} dto.ErrorResponse "Valid franchiseId is required"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Franchise not found"
// @Failure 409 {object} dto.ErrorResponse "Agent already exists"
// @Router /api/v1/agents/{franchiseId}/agents [post]
func (h *AgentHandler) CreateFranchiseAgent(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	franchiseID, ok, err := h.pathID(c, "franchiseId", "Valid franchiseId is required")
	if !ok {
		return err
	}

	var req dto.CreateAgentRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	avatarPath, err := h.uploads.stageOptional(c, "avatar")
	if err != nil {
		return h.uploadError(c, err, h.uploads.maxBytes())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/:franchiseId/agents")
	defer cancel()

	agent, err := h.agentFlow.CreateFranchiseAgent(ctx, actor, franchiseID, &req, avatarPath)
	if err != nil {
		if businessflow.IsAccountAlreadyExists(err) && businessflow.DuplicateField(err) == "" {
			return h.ErrorResponse(c, fiber.StatusConflict, "Agent with this email or contact already exists", "ACCOUNT_EXISTS", nil)
		}
		return h.FlowError(c, err, "Agent", "Create franchise agent")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Agent added successfully under franchise", agent)
}

// ListFranchiseAgents lists the roster of one franchise
// @Summary Franchise agents
// @Tags Agents
// @Produce json
// @Param franchiseId path int true "Franchise ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Account} "Agents fetched"
// @Failure 400 {object} dto.ErrorResponse "Valid franchiseId is required"
// @Failure 404 {object} dto.ErrorResponse "Franchise not found"
// @Router /api/v1/agents/{franchiseId}/agents [get]
func (h *AgentHandler) ListFranchiseAgents(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	franchiseID, ok, err := h.pathID(c, "franchiseId", "Valid franchiseId is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/:franchiseId/agents")
	defer cancel()

	agents, err := h.agentFlow.ListFranchiseAgents(ctx, actor, franchiseID)
	if err != nil {
		return h.FlowError(c, err, "Agent", "List franchise agents")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Agents fetched successfully", agents)
}

// UpdateFranchiseAgent edits an agent of one franchise
// @Summary Update franchise agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param franchiseId path int true "Franchise ID"
// @Param agentId path int true "Agent ID"
// @Param request body dto.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Account} "Agent updated"
// @Failure 404 {object} dto.ErrorResponse "Agent not found in this franchise"
// @Router /api/v1/agents/{franchiseId}/agents/{agentId} [put]
func (h *AgentHandler) UpdateFranchiseAgent(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	franchiseID, ok, err := h.pathID(c, "franchiseId", "Valid franchiseId is required")
	if !ok {
		return err
	}
	agentID, ok, err := h.pathID(c, "agentId", "Agent ID is required")
	if !ok {
		return err
	}

	var req dto.UpdateAccountRequest
	if sent, err := h.decodeBody(c, &req); sent {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/:franchiseId/agents/:agentId")
	defer cancel()

	agent, err := h.agentFlow.UpdateFranchiseAgent(ctx, actor, franchiseID, agentID, &req)
	if err != nil {
		return h.FlowError(c, err, "Agent", "Update franchise agent")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Agent updated successfully", agent)
}

// DeleteFranchiseAgent removes an agent of one franchise
// @Summary Delete franchise agent
// @Tags Agents
// @Produce json
// @Param franchiseId path int true "Franchise ID"
// @Param agentId path int true "Agent ID"
// @Success 200 {object} dto.APIResponse "Agent deleted"
// @Failure 404 {object} dto.ErrorResponse "Agent not found in this franchise"
// @Router /api/v1/agents/{franchiseId}/agents/{agentId} [delete]
func (h *AgentHandler) DeleteFranchiseAgent(c fiber.Ctx) error {
	actor, err := h.account(c)
	if actor == nil {
		return err
	}
	franchiseID, ok, err := h.pathID(c, "franchiseId", "Valid franchiseId is required")
	if !ok {
		return err
	}
	agentID, ok, err := h.pathID(c, "agentId", "Agent ID is required")
	if !ok {
		return err
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/agents/:franchiseId/agents/:agentId")
	defer cancel()

	if err := h.agentFlow.DeleteFranchiseAgent(ctx, actor, franchiseID, agentID, h.metadata(c)); err != nil {
		return h.FlowError(c, err, "Agent", "Delete franchise agent")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Agent deleted successfully", nil)
}
