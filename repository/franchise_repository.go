package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FranchiseRepositoryImpl implements FranchiseRepository interface
type FranchiseRepositoryImpl struct {
	*BaseRepository[models.Franchise, models.FranchiseFilter]
}

// NewFranchiseRepository creates a new franchise repository
func NewFranchiseRepository(db *gorm.DB) FranchiseRepository {
	return &FranchiseRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Franchise, models.FranchiseFilter](db),
	}
}

// ByEmail retrieves a franchise by its business email
func (r *FranchiseRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Franchise, error) {
	normalized := utils.NormalizeEmail(email)
	rows, err := r.ByFilter(ctx, models.FranchiseFilter{Email: &normalized}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find franchise by email: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ByIDWithAccount retrieves a franchise with its login account preloaded
func (r *FranchiseRepositoryImpl) ByIDWithAccount(ctx context.Context, id uint) (*models.Franchise, error) {
	db := r.getDB(ctx)

	var franchise models.Franchise
	err := db.Preload("Account").Where("id = ?", id).First(&franchise).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find franchise %d: %w", id, err)
	}

	return &franchise, nil
}

// ToggleStatus flips approved to pending and anything else to approved in one statement
func (r *FranchiseRepositoryImpl) ToggleStatus(ctx context.Context, id uint) (*models.Franchise, error) {
	db := r.getDB(ctx)

	var rows []*models.Franchise
	res := db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE ? END",
				models.FranchiseStatusApproved, models.FranchiseStatusPending, models.FranchiseStatusApproved),
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to toggle franchise status: %w", res.Error)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// AddAgent appends agentID to the roster unless it is already present
func (r *FranchiseRepositoryImpl) AddAgent(ctx context.Context, franchiseID, agentID uint) error {
	db := r.getDB(ctx)

	err := db.Exec(
		`UPDATE franchises SET agent_ids = array_append(agent_ids, ?::bigint), updated_at = ?
		 WHERE id = ? AND NOT (?::bigint = ANY(agent_ids))`,
		agentID, utils.UTCNow(), franchiseID, agentID,
	).Error
	if err != nil {
		return fmt.Errorf("failed to add agent %d to franchise %d: %w", agentID, franchiseID, err)
	}

	return nil
}

// RemoveAgent drops agentID from the roster; a missing reference is a no-op
func (r *FranchiseRepositoryImpl) RemoveAgent(ctx context.Context, franchiseID, agentID uint) error {
	db := r.getDB(ctx)

	err := db.Exec(
		`UPDATE franchises SET agent_ids = array_remove(agent_ids, ?::bigint), updated_at = ? WHERE id = ?`,
		agentID, utils.UTCNow(), franchiseID,
	).Error
	if err != nil {
		return fmt.Errorf("failed to remove agent %d from franchise %d: %w", agentID, franchiseID, err)
	}

	return nil
}

// RemoveAgentEverywhere drops agentID from every roster that lists it
func (r *FranchiseRepositoryImpl) RemoveAgentEverywhere(ctx context.Context, agentID uint) error {
	db := r.getDB(ctx)

	err := db.Exec(
		`UPDATE franchises SET agent_ids = array_remove(agent_ids, ?::bigint), updated_at = ?
		 WHERE ?::bigint = ANY(agent_ids)`,
		agentID, utils.UTCNow(), agentID,
	).Error
	if err != nil {
		return fmt.Errorf("failed to remove agent %d from rosters: %w", agentID, err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *FranchiseRepositoryImpl) applyFilter(query *gorm.DB, filter models.FranchiseFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.City != nil {
		query = query.Where("city = ?", *filter.City)
	}
	return query
}

// ByFilter retrieves franchises based on filter criteria
func (r *FranchiseRepositoryImpl) ByFilter(ctx context.Context, filter models.FranchiseFilter, orderBy string, limit, offset int) ([]*models.Franchise, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Franchise{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Franchise
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list franchises: %w", err)
	}
	return rows, nil
}

// Count returns number of franchises matching filter
func (r *FranchiseRepositoryImpl) Count(ctx context.Context, filter models.FranchiseFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Franchise{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any franchise matches the filter
func (r *FranchiseRepositoryImpl) Exists(ctx context.Context, filter models.FranchiseFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
