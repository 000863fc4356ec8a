package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnquiryRepositoryImpl implements EnquiryRepository interface
type EnquiryRepositoryImpl struct {
	*BaseRepository[models.Enquiry, models.EnquiryFilter]
}

// NewEnquiryRepository creates a new enquiry repository
func NewEnquiryRepository(db *gorm.DB) EnquiryRepository {
	return &EnquiryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Enquiry, models.EnquiryFilter](db),
	}
}

// UpdateStatus sets the workflow status and returns the updated row
func (r *EnquiryRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status string) (*models.Enquiry, error) {
	db := r.getDB(ctx)

	var rows []*models.Enquiry
	res := db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": utils.UTCNow()})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update enquiry status: %w", res.Error)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *EnquiryRepositoryImpl) applyFilter(query *gorm.DB, filter models.EnquiryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// ByFilter retrieves enquiries with the submitting account preloaded
func (r *EnquiryRepositoryImpl) ByFilter(ctx context.Context, filter models.EnquiryFilter, orderBy string, limit, offset int) ([]*models.Enquiry, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Enquiry{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Enquiry
	if err := query.Preload("Account").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	return rows, nil
}

func (r *EnquiryRepositoryImpl) Count(ctx context.Context, filter models.EnquiryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Enquiry{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EnquiryRepositoryImpl) Exists(ctx context.Context, filter models.EnquiryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
