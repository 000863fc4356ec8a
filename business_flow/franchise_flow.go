package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
	"golang.org/x/crypto/bcrypt"
)

// FranchiseFlow manages franchises together with their login accounts
type FranchiseFlow interface {
	CreateFranchise(ctx context.Context, req *dto.CreateFranchiseRequest, imagePath string, metadata *ClientMetadata) (*dto.FranchiseCreatedResponse, error)
	ListFranchises(ctx context.Context) ([]*models.Franchise, error)
	GetFranchise(ctx context.Context, id uint) (*models.Franchise, error)
	UpdateFranchise(ctx context.Context, id uint, req *dto.UpdateFranchiseRequest) (*models.Franchise, error)
	DeleteFranchise(ctx context.Context, id uint, metadata *ClientMetadata) error
	ToggleFranchiseStatus(ctx context.Context, id uint, metadata *ClientMetadata) (*models.Franchise, error)
}

// FranchiseFlowImpl implements FranchiseFlow
type FranchiseFlowImpl struct {
	accountRepo   repository.AccountRepository
	franchiseRepo repository.FranchiseRepository
	tx            repository.Transactor
	uploader      services.MediaUploader
	audit         auditRecorder
	bcryptCost    int
}

func NewFranchiseFlow(
	accountRepo repository.AccountRepository,
	franchiseRepo repository.FranchiseRepository,
	auditRepo repository.AuditLogRepository,
	tx repository.Transactor,
	uploader services.MediaUploader,
	bcryptCost int,
) FranchiseFlow {
	return &FranchiseFlowImpl{
		accountRepo:   accountRepo,
		franchiseRepo: franchiseRepo,
		tx:            tx,
		uploader:      uploader,
		audit:         auditRecorder{repo: auditRepo},
		bcryptCost:    resolveBcryptCost(bcryptCost),
	}
}

// CreateFranchise writes the franchise account and the franchise record in one transaction
func (ff *FranchiseFlowImpl) CreateFranchise(ctx context.Context, req *dto.CreateFranchiseRequest, imagePath string, metadata *ClientMetadata) (*dto.FranchiseCreatedResponse, error) {
	defer removeTemp(imagePath)

	if req.Password != req.ConfirmPassword {
		return nil, NewBusinessError("CREATE_FRANCHISE_FAILED", "Failed to create franchise", ErrPasswordsDoNotMatch)
	}

	status := models.FranchiseStatusPending
	if req.Status != nil && *req.Status != "" {
		if !models.IsValidFranchiseStatus(*req.Status) {
			return nil, NewBusinessError("CREATE_FRANCHISE_FAILED", "Failed to create franchise", ErrInvalidStatus)
		}
		status = *req.Status
	}

	email := utils.NormalizeEmail(req.Email)
	contact := strings.TrimSpace(req.Contact)
	exists, err := identityTaken(ctx, ff.accountRepo, email, contact)
	if err != nil {
		return nil, NewBusinessError("CREATE_FRANCHISE_FAILED", "Failed to create franchise", err)
	}
	if exists {
		return nil, NewBusinessError("CREATE_FRANCHISE_FAILED", "Failed to create franchise", ErrAccountAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), ff.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("CREATE_FRANCHISE_FAILED", "Failed to create franchise", err)
	}

	// the image is optional; a failed upload leaves it empty
	imageURL := ""
	if image := uploadTemp(ctx, ff.uploader, imagePath, utils.DefaultMediaFolder, utils.ResourceTypeImage); image != nil {
		imageURL = image.URL
	}

	account := &models.Account{
		Name:         strings.TrimSpace(req.FullName),
		Contact:      contact,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleFranchise,
		Status:       models.AccountStatusActive,
		Avatar:       imageURL,
	}
	franchise := &models.Franchise{
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
		Contact:  contact,
		City:     strings.TrimSpace(req.City),
		Image:    imageURL,
		Status:   status,
	}

	err = ff.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := ff.accountRepo.Save(ctx, account); err != nil {
			return conflictAsExisting(err)
		}
		franchise.AccountID = utils.ToPtr(account.ID)
		if err := ff.franchiseRepo.Save(ctx, franchise); err != nil {
			return conflictAsExisting(err)
		}
		if err := ff.accountRepo.SetFranchiseIfMissing(ctx, account.ID, franchise.ID); err != nil {
			return err
		}
		account.FranchiseID = utils.ToPtr(franchise.ID)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("CREATE_FRANCHISE_FAILED", "Failed to create franchise", err)
	}

	ff.audit.record(ctx, &account.ID, models.AuditActionFranchiseCreated,
		fmt.Sprintf("Franchise %d created with status %s", franchise.ID, franchise.Status), true, nil, metadata)

	return &dto.FranchiseCreatedResponse{User: account, Franchise: franchise}, nil
}

func (ff *FranchiseFlowImpl) ListFranchises(ctx context.Context) ([]*models.Franchise, error) {
	franchises, err := ff.franchiseRepo.ByFilter(ctx, models.FranchiseFilter{}, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_FRANCHISES_FAILED", "Failed to list franchises", err)
	}
	return franchises, nil
}

func (ff *FranchiseFlowImpl) GetFranchise(ctx context.Context, id uint) (*models.Franchise, error) {
	franchise, err := ff.franchiseRepo.ByIDWithAccount(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_FRANCHISE_FAILED", "Failed to get franchise", err)
	}
	if franchise == nil {
		return nil, NewBusinessError("GET_FRANCHISE_FAILED", "Failed to get franchise", ErrFranchiseNotFound)
	}
	return franchise, nil
}

// UpdateFranchise edits the franchise and mirrors name, contact and password onto its account.
// The email is the login identity and is not editable here.
func (ff *FranchiseFlowImpl) UpdateFranchise(ctx context.Context, id uint, req *dto.UpdateFranchiseRequest) (*models.Franchise, error) {
	franchise, err := ff.franchiseRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_FRANCHISE_FAILED", "Failed to update franchise", err)
	}
	if franchise == nil {
		return nil, NewBusinessError("UPDATE_FRANCHISE_FAILED", "Failed to update franchise", ErrFranchiseNotFound)
	}

	if req.FullName != nil {
		franchise.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Contact != nil {
		franchise.Contact = strings.TrimSpace(*req.Contact)
	}
	if req.City != nil {
		franchise.City = strings.TrimSpace(*req.City)
	}
	if req.Status != nil {
		if !models.IsValidFranchiseStatus(*req.Status) {
			return nil, NewBusinessError("UPDATE_FRANCHISE_FAILED", "Failed to update franchise", ErrInvalidStatus)
		}
		franchise.Status = *req.Status
	}

	var passwordHash string
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), ff.bcryptCost)
		if err != nil {
			return nil, NewBusinessError("UPDATE_FRANCHISE_FAILED", "Failed to update franchise", err)
		}
		passwordHash = string(hash)
	}

	err = ff.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := ff.franchiseRepo.Update(ctx, franchise); err != nil {
			return conflictAsExisting(err)
		}

		account, err := ff.franchiseAccount(ctx, franchise)
		if err != nil || account == nil {
			return err
		}
		account.Name = franchise.FullName
		account.Contact = franchise.Contact
		if passwordHash != "" {
			account.PasswordHash = passwordHash
		}
		return conflictAsExisting(ff.accountRepo.Update(ctx, account))
	})
	if err != nil {
		return nil, NewBusinessError("UPDATE_FRANCHISE_FAILED", "Failed to update franchise", err)
	}

	return franchise, nil
}

// DeleteFranchise removes the franchise and its login account
func (ff *FranchiseFlowImpl) DeleteFranchise(ctx context.Context, id uint, metadata *ClientMetadata) error {
	franchise, err := ff.franchiseRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("DELETE_FRANCHISE_FAILED", "Failed to delete franchise", err)
	}
	if franchise == nil {
		return NewBusinessError("DELETE_FRANCHISE_FAILED", "Failed to delete franchise", ErrFranchiseNotFound)
	}

	err = ff.tx.WithTransaction(ctx, func(ctx context.Context) error {
		account, err := ff.franchiseAccount(ctx, franchise)
		if err != nil {
			return err
		}
		if _, err := ff.franchiseRepo.Delete(ctx, franchise.ID); err != nil {
			return err
		}
		if account != nil {
			if _, err := ff.accountRepo.Delete(ctx, account.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return NewBusinessError("DELETE_FRANCHISE_FAILED", "Failed to delete franchise", err)
	}

	ff.audit.record(ctx, franchise.AccountID, models.AuditActionFranchiseDeleted,
		fmt.Sprintf("Franchise %d deleted", franchise.ID), true, nil, metadata)
	return nil
}

func (ff *FranchiseFlowImpl) ToggleFranchiseStatus(ctx context.Context, id uint, metadata *ClientMetadata) (*models.Franchise, error) {
	franchise, err := ff.franchiseRepo.ToggleStatus(ctx, id)
	if err != nil {
		return nil, NewBusinessError("TOGGLE_FRANCHISE_FAILED", "Failed to toggle franchise status", err)
	}
	if franchise == nil {
		return nil, NewBusinessError("TOGGLE_FRANCHISE_FAILED", "Failed to toggle franchise status", ErrFranchiseNotFound)
	}

	ff.audit.record(ctx, franchise.AccountID, models.AuditActionFranchiseStatusToggled,
		fmt.Sprintf("Franchise %d is now %s", franchise.ID, franchise.Status), true, nil, metadata)
	return franchise, nil
}

// franchiseAccount finds the login account by link, falling back to the shared email
func (ff *FranchiseFlowImpl) franchiseAccount(ctx context.Context, franchise *models.Franchise) (*models.Account, error) {
	if franchise.AccountID != nil {
		account, err := ff.accountRepo.ByID(ctx, *franchise.AccountID)
		if err != nil || account != nil {
			return account, err
		}
	}
	account, err := ff.accountRepo.ByEmail(ctx, franchise.Email)
	if err != nil {
		return nil, err
	}
	if account != nil && !account.IsFranchise() {
		log.Printf("franchise %d shares its email with a %s account; leaving it untouched", franchise.ID, account.Role)
		return nil, nil
	}
	return account, nil
}
