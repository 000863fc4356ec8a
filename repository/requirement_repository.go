package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/property-guru/models"
	"gorm.io/gorm"
)

// RequirementRepositoryImpl implements RequirementRepository interface
type RequirementRepositoryImpl struct {
	*BaseRepository[models.Requirement, models.RequirementFilter]
}

// NewRequirementRepository creates a new requirement repository
func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &RequirementRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Requirement, models.RequirementFilter](db),
	}
}

func (r *RequirementRepositoryImpl) applyFilter(query *gorm.DB, filter models.RequirementFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Phone != nil {
		query = query.Where("phone = ?", *filter.Phone)
	}
	return query
}

func (r *RequirementRepositoryImpl) ByFilter(ctx context.Context, filter models.RequirementFilter, orderBy string, limit, offset int) ([]*models.Requirement, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Requirement{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Requirement
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	return rows, nil
}

func (r *RequirementRepositoryImpl) Count(ctx context.Context, filter models.RequirementFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Requirement{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RequirementRepositoryImpl) Exists(ctx context.Context, filter models.RequirementFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
