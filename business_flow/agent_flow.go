package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
	"golang.org/x/crypto/bcrypt"
)

// AgentFlow manages agent accounts globally and under a single franchise
type AgentFlow interface {
	ListAgents(ctx context.Context) ([]*models.Account, error)
	TopAgents(ctx context.Context) ([]*models.Account, error)
	UpdateAgent(ctx context.Context, id uint, req *dto.UpdateAccountRequest) (*models.Account, error)
	DeleteAgent(ctx context.Context, id uint, metadata *ClientMetadata) error
	ToggleAgentStatus(ctx context.Context, id uint, metadata *ClientMetadata) (*models.Account, error)

	CreateFranchiseAgent(ctx context.Context, actor *models.Account, franchiseID uint, req *dto.CreateAgentRequest, avatarPath string) (*models.Account, error)
	ListFranchiseAgents(ctx context.Context, actor *models.Account, franchiseID uint) ([]*models.Account, error)
	UpdateFranchiseAgent(ctx context.Context, actor *models.Account, franchiseID, agentID uint, req *dto.UpdateAccountRequest) (*models.Account, error)
	DeleteFranchiseAgent(ctx context.Context, actor *models.Account, franchiseID, agentID uint, metadata *ClientMetadata) error
}

// AgentFlowImpl implements AgentFlow
type AgentFlowImpl struct {
	accountRepo   repository.AccountRepository
	franchiseRepo repository.FranchiseRepository
	tx            repository.Transactor
	uploader      services.MediaUploader
	audit         auditRecorder
	bcryptCost    int
}

func NewAgentFlow(
	accountRepo repository.AccountRepository,
	franchiseRepo repository.FranchiseRepository,
	auditRepo repository.AuditLogRepository,
	tx repository.Transactor,
	uploader services.MediaUploader,
	bcryptCost int,
) AgentFlow {
	return &AgentFlowImpl{
		accountRepo:   accountRepo,
		franchiseRepo: franchiseRepo,
		tx:            tx,
		uploader:      uploader,
		audit:         auditRecorder{repo: auditRepo},
		bcryptCost:    resolveBcryptCost(bcryptCost),
	}
}

// CanManageFranchise reports whether actor may act on the franchise with franchiseID
func CanManageFranchise(actor *models.Account, franchiseID uint) bool {
	if actor == nil {
		return false
	}
	if actor.IsSuperAdmin() {
		return true
	}
	return actor.IsFranchise() && actor.FranchiseID != nil && *actor.FranchiseID == franchiseID
}

func (af *AgentFlowImpl) ListAgents(ctx context.Context) ([]*models.Account, error) {
	agents, err := af.accountRepo.ByFilter(ctx, models.AccountFilter{Role: utils.ToPtr(models.RoleAgent)}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_AGENTS_FAILED", "Failed to list agents", err)
	}
	return agents, nil
}

func (af *AgentFlowImpl) TopAgents(ctx context.Context) ([]*models.Account, error) {
	agents, err := af.accountRepo.ByFilter(ctx, models.AccountFilter{Role: utils.ToPtr(models.RoleAgent)}, "created_at DESC", utils.TopAgentsLimit, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_AGENTS_FAILED", "Failed to list agents", err)
	}
	return agents, nil
}

func (af *AgentFlowImpl) UpdateAgent(ctx context.Context, id uint, req *dto.UpdateAccountRequest) (*models.Account, error) {
	agent, err := af.agentByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_AGENT_FAILED", "Failed to update agent", err)
	}
	if err := applyAccountEdit(agent, req); err != nil {
		return nil, NewBusinessError("UPDATE_AGENT_FAILED", "Failed to update agent", err)
	}
	if err := af.accountRepo.Update(ctx, agent); err != nil {
		return nil, NewBusinessError("UPDATE_AGENT_FAILED", "Failed to update agent", conflictAsExisting(err))
	}
	return agent, nil
}

// DeleteAgent removes the account and every roster entry naming it
func (af *AgentFlowImpl) DeleteAgent(ctx context.Context, id uint, metadata *ClientMetadata) error {
	agent, err := af.agentByID(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_AGENT_FAILED", "Failed to delete agent", err)
	}

	err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := af.franchiseRepo.RemoveAgentEverywhere(ctx, agent.ID); err != nil {
			return err
		}
		_, err := af.accountRepo.Delete(ctx, agent.ID)
		return err
	})
	if err != nil {
		return NewBusinessError("DELETE_AGENT_FAILED", "Failed to delete agent", err)
	}

	af.audit.record(ctx, &agent.ID, models.AuditActionAccountDeleted, fmt.Sprintf("Agent %d deleted", agent.ID), true, nil, metadata)
	return nil
}

func (af *AgentFlowImpl) ToggleAgentStatus(ctx context.Context, id uint, metadata *ClientMetadata) (*models.Account, error) {
	agent, err := af.accountRepo.ToggleStatus(ctx, id, models.RoleAgent)
	if err != nil {
		return nil, NewBusinessError("TOGGLE_AGENT_FAILED", "Failed to toggle agent status", err)
	}
	if agent == nil {
		return nil, NewBusinessError("TOGGLE_AGENT_FAILED", "Failed to toggle agent status", ErrAgentNotFound)
	}

	af.audit.record(ctx, &agent.ID, models.AuditActionAgentStatusToggled,
		fmt.Sprintf("Agent %d is now %s", agent.ID, agent.Status), true, nil, metadata)
	return agent, nil
}

// CreateFranchiseAgent adds an inactive agent to the franchise roster
func (af *AgentFlowImpl) CreateFranchiseAgent(ctx context.Context, actor *models.Account, franchiseID uint, req *dto.CreateAgentRequest, avatarPath string) (*models.Account, error) {
	defer removeTemp(avatarPath)

	franchise, err := af.scopedFranchise(ctx, actor, franchiseID)
	if err != nil {
		return nil, NewBusinessError("CREATE_AGENT_FAILED", "Failed to create agent", err)
	}

	email := utils.NormalizeEmail(req.Email)
	contact := strings.TrimSpace(req.Contact)
	exists, err := identityTaken(ctx, af.accountRepo, email, contact)
	if err != nil {
		return nil, NewBusinessError("CREATE_AGENT_FAILED", "Failed to create agent", err)
	}
	if exists {
		return nil, NewBusinessError("CREATE_AGENT_FAILED", "Failed to create agent", ErrAccountAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), af.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("CREATE_AGENT_FAILED", "Failed to create agent", err)
	}

	agent := &models.Account{
		Name:         strings.TrimSpace(req.Name),
		Contact:      contact,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAgent,
		Status:       models.AccountStatusInactive,
		FranchiseID:  utils.ToPtr(franchise.ID),
	}
	if avatar := uploadTemp(ctx, af.uploader, avatarPath, utils.DefaultMediaFolder, utils.ResourceTypeImage); avatar != nil {
		agent.Avatar = avatar.URL
	}

	err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := af.accountRepo.Save(ctx, agent); err != nil {
			return conflictAsExisting(err)
		}
		return af.franchiseRepo.AddAgent(ctx, franchise.ID, agent.ID)
	})
	if err != nil {
		return nil, NewBusinessError("CREATE_AGENT_FAILED", "Failed to create agent", err)
	}

	return agent, nil
}

func (af *AgentFlowImpl) ListFranchiseAgents(ctx context.Context, actor *models.Account, franchiseID uint) ([]*models.Account, error) {
	franchise, err := af.scopedFranchise(ctx, actor, franchiseID)
	if err != nil {
		return nil, NewBusinessError("LIST_AGENTS_FAILED", "Failed to list agents", err)
	}

	if len(franchise.AgentIDs) == 0 {
		return []*models.Account{}, nil
	}

	ids := make([]uint, 0, len(franchise.AgentIDs))
	for _, id := range franchise.AgentIDs {
		ids = append(ids, uint(id))
	}

	agents, err := af.accountRepo.ByFilter(ctx, models.AccountFilter{IDs: ids, Role: utils.ToPtr(models.RoleAgent)}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_AGENTS_FAILED", "Failed to list agents", err)
	}
	return agents, nil
}

func (af *AgentFlowImpl) UpdateFranchiseAgent(ctx context.Context, actor *models.Account, franchiseID, agentID uint, req *dto.UpdateAccountRequest) (*models.Account, error) {
	agent, err := af.rosterAgent(ctx, actor, franchiseID, agentID)
	if err != nil {
		return nil, NewBusinessError("UPDATE_AGENT_FAILED", "Failed to update agent", err)
	}
	if err := applyAccountEdit(agent, req); err != nil {
		return nil, NewBusinessError("UPDATE_AGENT_FAILED", "Failed to update agent", err)
	}
	if err := af.accountRepo.Update(ctx, agent); err != nil {
		return nil, NewBusinessError("UPDATE_AGENT_FAILED", "Failed to update agent", conflictAsExisting(err))
	}
	return agent, nil
}

func (af *AgentFlowImpl) DeleteFranchiseAgent(ctx context.Context, actor *models.Account, franchiseID, agentID uint, metadata *ClientMetadata) error {
	agent, err := af.rosterAgent(ctx, actor, franchiseID, agentID)
	if err != nil {
		return NewBusinessError("DELETE_AGENT_FAILED", "Failed to delete agent", err)
	}

	err = af.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := af.franchiseRepo.RemoveAgent(ctx, franchiseID, agent.ID); err != nil {
			return err
		}
		_, err := af.accountRepo.Delete(ctx, agent.ID)
		return err
	})
	if err != nil {
		return NewBusinessError("DELETE_AGENT_FAILED", "Failed to delete agent", err)
	}

	af.audit.record(ctx, &agent.ID, models.AuditActionAccountDeleted,
		fmt.Sprintf("Agent %d deleted from franchise %d", agent.ID, franchiseID), true, nil, metadata)
	return nil
}

func (af *AgentFlowImpl) agentByID(ctx context.Context, id uint) (*models.Account, error) {
	agent, err := af.accountRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil || !agent.IsAgent() {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

func (af *AgentFlowImpl) scopedFranchise(ctx context.Context, actor *models.Account, franchiseID uint) (*models.Franchise, error) {
	if franchiseID == 0 {
		return nil, ErrFranchiseIDRequired
	}
	if !CanManageFranchise(actor, franchiseID) {
		return nil, ErrOutOfScope
	}
	franchise, err := af.franchiseRepo.ByID(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	if franchise == nil {
		return nil, ErrFranchiseNotFound
	}
	return franchise, nil
}

// rosterAgent loads an agent that is listed on the franchise roster
func (af *AgentFlowImpl) rosterAgent(ctx context.Context, actor *models.Account, franchiseID, agentID uint) (*models.Account, error) {
	franchise, err := af.scopedFranchise(ctx, actor, franchiseID)
	if err != nil {
		return nil, err
	}
	if !franchise.HasAgent(agentID) {
		return nil, ErrAgentNotInFranchise
	}
	agent, err := af.accountRepo.ByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrAgentNotInFranchise
	}
	return agent, nil
}
