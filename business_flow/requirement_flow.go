package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
)

// RequirementFlow handles "looking for" requests left by visitors
type RequirementFlow interface {
	CreateRequirement(ctx context.Context, req *dto.CreateRequirementRequest) (*models.Requirement, error)
	ListRequirements(ctx context.Context) ([]*models.Requirement, error)
	DeleteRequirement(ctx context.Context, id uint) error
}

// RequirementFlowImpl implements RequirementFlow
type RequirementFlowImpl struct {
	requirementRepo repository.RequirementRepository
	sanitizer       services.Sanitizer
	captcha         services.CaptchaService
}

func NewRequirementFlow(requirementRepo repository.RequirementRepository, sanitizer services.Sanitizer, captcha services.CaptchaService) RequirementFlow {
	return &RequirementFlowImpl{
		requirementRepo: requirementRepo,
		sanitizer:       sanitizer,
		captcha:         captcha,
	}
}

func (rf *RequirementFlowImpl) CreateRequirement(ctx context.Context, req *dto.CreateRequirementRequest) (*models.Requirement, error) {
	if err := verifyCaptcha(ctx, rf.captcha, req.CaptchaFields); err != nil {
		return nil, NewBusinessError("CREATE_REQUIREMENT_FAILED", "Failed to create requirement", err)
	}

	requirement := &models.Requirement{
		Name:        rf.sanitizer.Text(req.Name),
		Phone:       strings.TrimSpace(req.Phone),
		Requirement: rf.sanitizer.Text(req.Requirement),
	}
	if requirement.Requirement == "" {
		return nil, NewBusinessError("CREATE_REQUIREMENT_FAILED", "Failed to create requirement", ErrRequirementEmpty)
	}

	if err := rf.requirementRepo.Save(ctx, requirement); err != nil {
		return nil, NewBusinessError("CREATE_REQUIREMENT_FAILED", "Failed to create requirement", err)
	}
	return requirement, nil
}

func (rf *RequirementFlowImpl) ListRequirements(ctx context.Context) ([]*models.Requirement, error) {
	requirements, err := rf.requirementRepo.ByFilter(ctx, models.RequirementFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_REQUIREMENTS_FAILED", "Failed to list requirements", err)
	}
	return requirements, nil
}

func (rf *RequirementFlowImpl) DeleteRequirement(ctx context.Context, id uint) error {
	deleted, err := rf.requirementRepo.Delete(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_REQUIREMENT_FAILED", "Failed to delete requirement", err)
	}
	if !deleted {
		return NewBusinessError("DELETE_REQUIREMENT_FAILED", "Failed to delete requirement", ErrRequirementNotFound)
	}
	return nil
}
