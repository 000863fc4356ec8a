package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/property-guru/models"
	"gorm.io/gorm"
)

// DistrictRepositoryImpl implements DistrictRepository interface
type DistrictRepositoryImpl struct {
	*BaseRepository[models.District, models.DistrictFilter]
}

// NewDistrictRepository creates a new district repository
func NewDistrictRepository(db *gorm.DB) DistrictRepository {
	return &DistrictRepositoryImpl{
		BaseRepository: NewBaseRepository[models.District, models.DistrictFilter](db),
	}
}

func (r *DistrictRepositoryImpl) ByName(ctx context.Context, name string) (*models.District, error) {
	rows, err := r.ByFilter(ctx, models.DistrictFilter{Name: &name}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *DistrictRepositoryImpl) applyFilter(query *gorm.DB, filter models.DistrictFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	return query
}

func (r *DistrictRepositoryImpl) ByFilter(ctx context.Context, filter models.DistrictFilter, orderBy string, limit, offset int) ([]*models.District, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.District{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.District
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	return rows, nil
}

func (r *DistrictRepositoryImpl) Count(ctx context.Context, filter models.DistrictFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.District{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DistrictRepositoryImpl) Exists(ctx context.Context, filter models.DistrictFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// AreaRepositoryImpl implements AreaRepository interface
type AreaRepositoryImpl struct {
	*BaseRepository[models.Area, models.AreaFilter]
}

// NewAreaRepository creates a new area repository
func NewAreaRepository(db *gorm.DB) AreaRepository {
	return &AreaRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Area, models.AreaFilter](db),
	}
}

func (r *AreaRepositoryImpl) ByIDWithDistrict(ctx context.Context, id uint) (*models.Area, error) {
	db := r.getDB(ctx)

	var area models.Area
	err := db.Preload("District").Where("id = ?", id).First(&area).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find area %d: %w", id, err)
	}
	return &area, nil
}

func (r *AreaRepositoryImpl) ByNameAndDistrict(ctx context.Context, name string, districtID uint) (*models.Area, error) {
	rows, err := r.ByFilter(ctx, models.AreaFilter{Name: &name, DistrictID: &districtID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *AreaRepositoryImpl) applyFilter(query *gorm.DB, filter models.AreaFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.DistrictID != nil {
		query = query.Where("district_id = ?", *filter.DistrictID)
	}
	return query
}

// ByFilter retrieves areas with their district preloaded
func (r *AreaRepositoryImpl) ByFilter(ctx context.Context, filter models.AreaFilter, orderBy string, limit, offset int) ([]*models.Area, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Area{}), filter)
	query = paginate(query, orderBy, limit, offset)

	var rows []*models.Area
	if err := query.Preload("District").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return rows, nil
}

func (r *AreaRepositoryImpl) Count(ctx context.Context, filter models.AreaFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Area{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AreaRepositoryImpl) Exists(ctx context.Context, filter models.AreaFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
