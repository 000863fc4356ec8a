package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByIdentifier matches the identifier against the normalized email or the exact contact
func (r *AccountRepositoryImpl) ByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	db := r.getDB(ctx)

	contact := strings.TrimSpace(identifier)
	email := utils.NormalizeEmail(identifier)

	var account models.Account
	err := db.Where("email = ? OR contact = ?", email, contact).Order("id ASC").First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by identifier: %w", err)
	}

	return &account, nil
}

// ByEmail retrieves an account by email address
func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	normalized := utils.NormalizeEmail(email)
	accounts, err := r.ByFilter(ctx, models.AccountFilter{Email: &normalized}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts[0], nil
}

// ByIDWithFranchise retrieves an account with its franchise preloaded
func (r *AccountRepositoryImpl) ByIDWithFranchise(ctx context.Context, id uint) (*models.Account, error) {
	db := r.getDB(ctx)

	var account models.Account
	err := db.Preload("Franchise").Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account %d: %w", id, err)
	}

	return &account, nil
}

// SetFranchiseIfMissing links an account to a franchise unless a link already exists
func (r *AccountRepositoryImpl) SetFranchiseIfMissing(ctx context.Context, accountID, franchiseID uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Account{}).
		Where("id = ? AND franchise_id IS NULL", accountID).
		Updates(map[string]any{"franchise_id": franchiseID, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to link account %d to franchise %d: %w", accountID, franchiseID, err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{"password_hash": passwordHash, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// SetResetOTP stores or clears the password reset code and resets the attempt counter
func (r *AccountRepositoryImpl) SetResetOTP(ctx context.Context, accountID uint, otpHash *string, expiresAt *time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"otp_hash":       otpHash,
			"otp_expires_at": expiresAt,
			"otp_attempts":   0,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to store reset otp: %w", err)
	}

	return nil
}

// RecordOTPFailure counts a wrong reset code and discards the code once maxAttempts is reached.
// It reports whether the code was discarded.
func (r *AccountRepositoryImpl) RecordOTPFailure(ctx context.Context, accountID uint, maxAttempts int) (bool, error) {
	db := r.getDB(ctx)

	var rows []struct{ Cleared bool }
	err := db.Raw(
		`UPDATE accounts SET
		   otp_attempts = otp_attempts + 1,
		   otp_hash = CASE WHEN otp_attempts + 1 >= ? THEN NULL ELSE otp_hash END,
		   otp_expires_at = CASE WHEN otp_attempts + 1 >= ? THEN NULL ELSE otp_expires_at END,
		   updated_at = ?
		 WHERE id = ? AND otp_hash IS NOT NULL
		 RETURNING otp_hash IS NULL AS cleared`,
		maxAttempts, maxAttempts, utils.UTCNow(), accountID,
	).Scan(&rows).Error
	if err != nil {
		return false, fmt.Errorf("failed to record otp failure: %w", err)
	}

	return len(rows) > 0 && rows[0].Cleared, nil
}

// ToggleStatus flips active and inactive in a single statement and returns the new row
func (r *AccountRepositoryImpl) ToggleStatus(ctx context.Context, accountID uint, role string) (*models.Account, error) {
	db := r.getDB(ctx)

	var rows []*models.Account
	res := db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ? AND role = ?", accountID, role).
		Updates(map[string]any{
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE ? END",
				models.AccountStatusActive, models.AccountStatusInactive, models.AccountStatusActive),
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to toggle account status: %w", res.Error)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Contact != nil {
		query = query.Where("contact = ?", *filter.Contact)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FranchiseID != nil {
		query = query.Where("franchise_id = ?", *filter.FranchiseID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves accounts with their franchise preloaded
func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Account{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Account
	if err := query.Preload("Franchise").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return rows, nil
}

// Count returns number of accounts matching filter
func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Account{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any account matches the filter
func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
