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
)

// UserFlow is the superadmin view over plain user accounts
type UserFlow interface {
	ListUsers(ctx context.Context) ([]*models.Account, error)
	UpdateUser(ctx context.Context, id uint, req *dto.UpdateAccountRequest, avatarPath string) (*models.Account, error)
	DeleteUser(ctx context.Context, id uint, metadata *ClientMetadata) error
}

// UserFlowImpl implements UserFlow
type UserFlowImpl struct {
	accountRepo   repository.AccountRepository
	franchiseRepo repository.FranchiseRepository
	tx            repository.Transactor
	uploader      services.MediaUploader
	audit         auditRecorder
}

func NewUserFlow(
	accountRepo repository.AccountRepository,
	franchiseRepo repository.FranchiseRepository,
	auditRepo repository.AuditLogRepository,
	tx repository.Transactor,
	uploader services.MediaUploader,
) UserFlow {
	return &UserFlowImpl{
		accountRepo:   accountRepo,
		franchiseRepo: franchiseRepo,
		tx:            tx,
		uploader:      uploader,
		audit:         auditRecorder{repo: auditRepo},
	}
}

func (uf *UserFlowImpl) ListUsers(ctx context.Context) ([]*models.Account, error) {
	users, err := uf.accountRepo.ByFilter(ctx, models.AccountFilter{Role: utils.ToPtr(models.RoleUser)}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_USERS_FAILED", "Failed to list users", err)
	}
	return users, nil
}

func (uf *UserFlowImpl) UpdateUser(ctx context.Context, id uint, req *dto.UpdateAccountRequest, avatarPath string) (*models.Account, error) {
	defer removeTemp(avatarPath)

	account, err := uf.accountRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_USER_FAILED", "Failed to update user", err)
	}
	if account == nil {
		return nil, NewBusinessError("UPDATE_USER_FAILED", "Failed to update user", ErrUserNotFound)
	}

	if err := applyAccountEdit(account, req); err != nil {
		return nil, NewBusinessError("UPDATE_USER_FAILED", "Failed to update user", err)
	}
	if avatarPath != "" {
		avatar := uploadTemp(ctx, uf.uploader, avatarPath, utils.DefaultMediaFolder, utils.ResourceTypeImage)
		if avatar == nil {
			return nil, NewBusinessError("UPDATE_USER_FAILED", "Failed to update user", ErrAvatarUploadFailed)
		}
		account.Avatar = avatar.URL
	}

	if err := uf.accountRepo.Update(ctx, account); err != nil {
		return nil, NewBusinessError("UPDATE_USER_FAILED", "Failed to update user", conflictAsExisting(err))
	}
	return account, nil
}

// DeleteUser removes any account. An agent is also taken off every franchise roster;
// a franchise account leaves its franchise in place with the link cleared.
func (uf *UserFlowImpl) DeleteUser(ctx context.Context, id uint, metadata *ClientMetadata) error {
	account, err := uf.accountRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_USER_FAILED", "Failed to delete user", err)
	}
	if account == nil {
		return NewBusinessError("DELETE_USER_FAILED", "Failed to delete user", ErrUserNotFound)
	}

	err = uf.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if account.IsAgent() {
			if err := uf.franchiseRepo.RemoveAgentEverywhere(ctx, account.ID); err != nil {
				return err
			}
		}
		_, err := uf.accountRepo.Delete(ctx, account.ID)
		return err
	})
	if err != nil {
		return NewBusinessError("DELETE_USER_FAILED", "Failed to delete user", err)
	}

	uf.audit.record(ctx, &account.ID, models.AuditActionAccountDeleted,
		fmt.Sprintf("Account %d with role %s deleted", account.ID, account.Role), true, nil, metadata)
	return nil
}

// applyAccountEdit copies the present fields of req onto account.
// A role that differs from the stored one is refused.
func applyAccountEdit(account *models.Account, req *dto.UpdateAccountRequest) error {
	if req == nil {
		return nil
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if role != "" && role != account.Role {
			return ErrRoleChangeNotAllowed
		}
	}
	if req.Status != nil {
		if *req.Status != models.AccountStatusActive && *req.Status != models.AccountStatusInactive {
			return ErrInvalidStatus
		}
		account.Status = *req.Status
	}
	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Contact != nil {
		account.Contact = strings.TrimSpace(*req.Contact)
	}
	if req.Email != nil {
		account.Email = utils.NormalizeEmail(*req.Email)
	}
	return nil
}
