package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/property-guru/models"
	"gorm.io/gorm"
)

// propertySearchVector must match the expression indexed by idx_properties_search
const propertySearchVector = `property_search_document(title, description, address, features)`

// PropertyRepositoryImpl implements PropertyRepository interface
type PropertyRepositoryImpl struct {
	*BaseRepository[models.Property, models.PropertyFilter]
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &PropertyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Property, models.PropertyFilter](db),
	}
}

func withPropertyRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("District").
		Preload("Area").
		Preload("Agent").
		Preload("Franchise")
}

// ByIDWithRelations retrieves a listing with district, area, agent and franchise
func (r *PropertyRepositoryImpl) ByIDWithRelations(ctx context.Context, id uint) (*models.Property, error) {
	db := r.getDB(ctx)

	var property models.Property
	err := withPropertyRelations(db).Where("id = ?", id).First(&property).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find property %d: %w", id, err)
	}

	return &property, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *PropertyRepositoryImpl) applyFilter(query *gorm.DB, filter models.PropertyFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		query = query.Where(propertySearchVector+" @@ plainto_tsquery('simple', ?)", strings.TrimSpace(*filter.Search))
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.SellingType != nil {
		query = query.Where("selling_type = ?", *filter.SellingType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.AgentID != nil {
		query = query.Where("agent_id = ?", *filter.AgentID)
	}
	if filter.FranchiseID != nil {
		query = query.Where("franchise_id = ?", *filter.FranchiseID)
	}
	if filter.DistrictID != nil {
		query = query.Where("district_id = ?", *filter.DistrictID)
	}
	if filter.AreaID != nil {
		query = query.Where("area_id = ?", *filter.AreaID)
	}
	return query
}

// ByFilter retrieves listings with their relations preloaded
func (r *PropertyRepositoryImpl) ByFilter(ctx context.Context, filter models.PropertyFilter, orderBy string, limit, offset int) ([]*models.Property, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Property{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Property
	if err := withPropertyRelations(query).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return rows, nil
}

// Count returns number of listings matching filter
func (r *PropertyRepositoryImpl) Count(ctx context.Context, filter models.PropertyFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Property{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any listing matches the filter
func (r *PropertyRepositoryImpl) Exists(ctx context.Context, filter models.PropertyFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
