package businessflow

import (
	"context"
	"log"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
)

// GeoFlow manages districts and the areas inside them
type GeoFlow interface {
	CreateDistrict(ctx context.Context, req *dto.CreateDistrictRequest) (*models.District, error)
	ListDistricts(ctx context.Context) ([]*models.District, error)

	CreateArea(ctx context.Context, req *dto.CreateAreaRequest) (*models.Area, error)
	ListAreas(ctx context.Context) ([]*models.Area, error)
	GetArea(ctx context.Context, id uint) (*models.Area, error)
	UpdateArea(ctx context.Context, id uint, req *dto.UpdateAreaRequest) (*models.Area, error)
	DeleteArea(ctx context.Context, id uint) (*models.Area, error)
}

// GeoFlowImpl implements GeoFlow
type GeoFlowImpl struct {
	districtRepo repository.DistrictRepository
	areaRepo     repository.AreaRepository
	cache        services.CacheService
}

func NewGeoFlow(districtRepo repository.DistrictRepository, areaRepo repository.AreaRepository, cache services.CacheService) GeoFlow {
	if cache == nil {
		cache = services.NewNoopCache()
	}
	return &GeoFlowImpl{
		districtRepo: districtRepo,
		areaRepo:     areaRepo,
		cache:        cache,
	}
}

func (gf *GeoFlowImpl) CreateDistrict(ctx context.Context, req *dto.CreateDistrictRequest) (*models.District, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewBusinessError("CREATE_DISTRICT_FAILED", "Failed to create district", ErrNameRequired)
	}

	existing, err := gf.districtRepo.ByName(ctx, name)
	if err != nil {
		return nil, NewBusinessError("CREATE_DISTRICT_FAILED", "Failed to create district", err)
	}
	if existing != nil {
		return nil, NewBusinessError("CREATE_DISTRICT_FAILED", "Failed to create district", ErrDistrictAlreadyExists)
	}

	district := &models.District{Name: name}
	if err := gf.districtRepo.Save(ctx, district); err != nil {
		if IsDuplicateKey(err) {
			err = ErrDistrictAlreadyExists
		}
		return nil, NewBusinessError("CREATE_DISTRICT_FAILED", "Failed to create district", err)
	}

	gf.invalidate(ctx, services.CacheKeyDistricts)
	return district, nil
}

func (gf *GeoFlowImpl) ListDistricts(ctx context.Context) ([]*models.District, error) {
	var districts []*models.District
	if gf.cached(ctx, services.CacheKeyDistricts, &districts) {
		return districts, nil
	}

	districts, err := gf.districtRepo.ByFilter(ctx, models.DistrictFilter{}, "name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_DISTRICTS_FAILED", "Failed to list districts", err)
	}

	gf.store(ctx, services.CacheKeyDistricts, districts)
	return districts, nil
}

func (gf *GeoFlowImpl) CreateArea(ctx context.Context, req *dto.CreateAreaRequest) (*models.Area, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewBusinessError("CREATE_AREA_FAILED", "Failed to create area", ErrNameRequired)
	}

	district, err := gf.district(ctx, req.DistrictID)
	if err != nil {
		return nil, NewBusinessError("CREATE_AREA_FAILED", "Failed to create area", err)
	}

	existing, err := gf.areaRepo.ByNameAndDistrict(ctx, name, district.ID)
	if err != nil {
		return nil, NewBusinessError("CREATE_AREA_FAILED", "Failed to create area", err)
	}
	if existing != nil {
		return nil, NewBusinessError("CREATE_AREA_FAILED", "Failed to create area", ErrAreaAlreadyExists)
	}

	area := &models.Area{Name: name, DistrictID: &district.ID}
	if err := gf.areaRepo.Save(ctx, area); err != nil {
		if IsDuplicateKey(err) {
			err = ErrAreaAlreadyExists
		}
		return nil, NewBusinessError("CREATE_AREA_FAILED", "Failed to create area", err)
	}
	area.District = district

	gf.invalidate(ctx, services.CacheKeyAreas)
	return area, nil
}

func (gf *GeoFlowImpl) ListAreas(ctx context.Context) ([]*models.Area, error) {
	var areas []*models.Area
	if gf.cached(ctx, services.CacheKeyAreas, &areas) {
		return areas, nil
	}

	areas, err := gf.areaRepo.ByFilter(ctx, models.AreaFilter{}, "name ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_AREAS_FAILED", "Failed to list areas", err)
	}

	gf.store(ctx, services.CacheKeyAreas, areas)
	return areas, nil
}

func (gf *GeoFlowImpl) GetArea(ctx context.Context, id uint) (*models.Area, error) {
	area, err := gf.areaRepo.ByIDWithDistrict(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_AREA_FAILED", "Failed to get area", err)
	}
	if area == nil {
		return nil, NewBusinessError("GET_AREA_FAILED", "Failed to get area", ErrAreaNotFound)
	}
	return area, nil
}

// UpdateArea renames an area or moves it to another district.
// A blank name is ignored.
func (gf *GeoFlowImpl) UpdateArea(ctx context.Context, id uint, req *dto.UpdateAreaRequest) (*models.Area, error) {
	area, err := gf.areaRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_AREA_FAILED", "Failed to update area", err)
	}
	if area == nil {
		return nil, NewBusinessError("UPDATE_AREA_FAILED", "Failed to update area", ErrAreaNotFound)
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			area.Name = name
		}
	}
	if req.DistrictID != nil {
		district, err := gf.district(ctx, *req.DistrictID)
		if err != nil {
			return nil, NewBusinessError("UPDATE_AREA_FAILED", "Failed to update area", err)
		}
		area.DistrictID = &district.ID
		area.District = district
	}

	if err := gf.areaRepo.Update(ctx, area); err != nil {
		if IsDuplicateKey(err) {
			err = ErrAreaAlreadyExists
		}
		return nil, NewBusinessError("UPDATE_AREA_FAILED", "Failed to update area", err)
	}

	gf.invalidate(ctx, services.CacheKeyAreas)

	if withDistrict, err := gf.areaRepo.ByIDWithDistrict(ctx, area.ID); err == nil && withDistrict != nil {
		return withDistrict, nil
	}
	return area, nil
}

func (gf *GeoFlowImpl) DeleteArea(ctx context.Context, id uint) (*models.Area, error) {
	area, err := gf.areaRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("DELETE_AREA_FAILED", "Failed to delete area", err)
	}
	if area == nil {
		return nil, NewBusinessError("DELETE_AREA_FAILED", "Failed to delete area", ErrAreaNotFound)
	}

	if _, err := gf.areaRepo.Delete(ctx, id); err != nil {
		return nil, NewBusinessError("DELETE_AREA_FAILED", "Failed to delete area", err)
	}

	gf.invalidate(ctx, services.CacheKeyAreas)
	return area, nil
}

func (gf *GeoFlowImpl) district(ctx context.Context, id uint) (*models.District, error) {
	district, err := gf.districtRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if district == nil {
		return nil, ErrDistrictNotFound
	}
	return district, nil
}

// cached reads key into dest; cache errors count as a miss
func (gf *GeoFlowImpl) cached(ctx context.Context, key string, dest any) bool {
	hit, err := gf.cache.GetJSON(ctx, key, dest)
	if err != nil {
		log.Printf("cache read %s failed: %v", key, err)
		return false
	}
	return hit
}

func (gf *GeoFlowImpl) store(ctx context.Context, key string, value any) {
	if err := gf.cache.SetJSON(ctx, key, value); err != nil {
		log.Printf("cache write %s failed: %v", key, err)
	}
}

func (gf *GeoFlowImpl) invalidate(ctx context.Context, keys ...string) {
	if err := gf.cache.Invalidate(ctx, keys...); err != nil {
		log.Printf("cache invalidate %v failed: %v", keys, err)
	}
}
