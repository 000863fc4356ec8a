package businessflow

import (
	"context"
	"errors"
	"log"

	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
)

// AccessGate decides whether an account may hold a session
type AccessGate interface {
	// CheckLogin runs the status chain that follows a successful password check
	CheckLogin(ctx context.Context, account *models.Account) error
	// ResolveSession turns a presented token into the current account
	ResolveSession(ctx context.Context, token string) (*models.Account, error)
}

// AccessGateImpl implements AccessGate
type AccessGateImpl struct {
	accountRepo   repository.AccountRepository
	franchiseRepo repository.FranchiseRepository
	tokenService  services.TokenService
}

// NewAccessGate creates a new access gate
func NewAccessGate(
	accountRepo repository.AccountRepository,
	franchiseRepo repository.FranchiseRepository,
	tokenService services.TokenService,
) AccessGate {
	return &AccessGateImpl{
		accountRepo:   accountRepo,
		franchiseRepo: franchiseRepo,
		tokenService:  tokenService,
	}
}

// IsBlockedAccountStatus reports whether an account status refuses login
func IsBlockedAccountStatus(status string) bool {
	switch status {
	case models.AccountStatusInactive, models.AccountStatusPending, models.AccountStatusRejected:
		return true
	}
	return false
}

// IsBlockedFranchiseStatus reports whether a franchise status refuses login.
// Only approved franchises pass; unknown and legacy values are blocked.
func IsBlockedFranchiseStatus(status string) bool {
	return status != models.FranchiseStatusApproved
}

func (g *AccessGateImpl) CheckLogin(ctx context.Context, account *models.Account) error {
	if account == nil {
		return ErrAccountNotFound
	}

	if IsBlockedAccountStatus(account.Status) {
		return ErrAccountInactive
	}

	switch account.Role {
	case models.RoleFranchise:
		franchise, err := g.franchiseRepo.ByEmail(ctx, account.Email)
		if err != nil {
			return err
		}
		if franchise == nil {
			return ErrFranchiseAccountInactive
		}

		if account.FranchiseID == nil {
			// backfill the link for franchise accounts created before it existed
			if err := g.accountRepo.SetFranchiseIfMissing(ctx, account.ID, franchise.ID); err != nil {
				log.Printf("franchise link backfill failed for account %d: %v", account.ID, err)
			} else {
				id := franchise.ID
				account.FranchiseID = &id
			}
		}

		if IsBlockedFranchiseStatus(franchise.Status) {
			return ErrFranchiseAccountInactive
		}

	case models.RoleAgent:
		if account.FranchiseID == nil {
			return nil
		}
		franchise, err := g.franchiseRepo.ByID(ctx, *account.FranchiseID)
		if err != nil {
			return err
		}
		if franchise == nil {
			return nil
		}
		if IsBlockedFranchiseStatus(franchise.Status) {
			return ErrOwningFranchiseInactive
		}
	}

	return nil
}

func (g *AccessGateImpl) ResolveSession(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	claims, err := g.tokenService.ValidateSession(token)
	if err != nil {
		if errors.Is(err, services.ErrTokenExpired) || errors.Is(err, services.ErrTokenInvalid) {
			return nil, NewBusinessError("SESSION_INVALID", "Session token rejected", errors.Join(ErrTokenInvalid, err))
		}
		return nil, err
	}

	account, err := g.accountRepo.ByID(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}

	return account, nil
}
