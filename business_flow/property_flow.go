package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
	"github.com/lib/pq"
)

// PropertyFlow handles listing CRUD and search
type PropertyFlow interface {
	CreateProperty(ctx context.Context, actor *models.Account, req *dto.CreatePropertyRequest, media dto.PropertyMedia) (*models.Property, error)
	UpdateProperty(ctx context.Context, actor *models.Account, id uint, req *dto.UpdatePropertyRequest, media dto.PropertyMedia) (*models.Property, error)
	DeleteProperty(ctx context.Context, actor *models.Account, id uint) (*models.Property, error)
	ListProperties(ctx context.Context, query *dto.PropertyListQuery) ([]*models.Property, error)
	GetProperty(ctx context.Context, id uint) (*models.Property, error)
	ListMyProperties(ctx context.Context, actor *models.Account) ([]*models.Property, error)
}

// PropertyFlowImpl implements PropertyFlow
type PropertyFlowImpl struct {
	propertyRepo repository.PropertyRepository
	uploader     services.MediaUploader
	sanitizer    services.Sanitizer
}

func NewPropertyFlow(propertyRepo repository.PropertyRepository, uploader services.MediaUploader, sanitizer services.Sanitizer) PropertyFlow {
	return &PropertyFlowImpl{
		propertyRepo: propertyRepo,
		uploader:     uploader,
		sanitizer:    sanitizer,
	}
}

// CanEditProperty reports whether actor may change or remove the listing
func CanEditProperty(actor *models.Account, property *models.Property) bool {
	if actor == nil || property == nil {
		return false
	}
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAgent:
		return property.AgentID != nil && *property.AgentID == actor.ID
	case models.RoleFranchise:
		return actor.FranchiseID != nil && property.FranchiseID != nil && *property.FranchiseID == *actor.FranchiseID
	}
	return false
}

func (pf *PropertyFlowImpl) CreateProperty(ctx context.Context, actor *models.Account, req *dto.CreatePropertyRequest, media dto.PropertyMedia) (*models.Property, error) {
	defer removeTemp(media.VideoPath)
	defer removeTemp(media.ImagePaths...)

	if len(media.ImagePaths) > utils.MaxPropertyImages {
		return nil, NewBusinessError("CREATE_PROPERTY_FAILED", "Failed to create property", ErrTooManyImages)
	}

	property := &models.Property{
		Title:         pf.sanitizer.Text(req.Title),
		Description:   pf.sanitizer.RichText(req.Description),
		Category:      req.Category,
		Features:      pf.cleanFeatures(req.Features),
		SellingType:   req.SellingType,
		AreaSize:      req.AreaSize,
		DistrictID:    req.DistrictID,
		AreaID:        req.AreaID,
		Address:       pf.sanitizer.Text(req.Address),
		Status:        req.Status,
		ContactNumber: strings.TrimSpace(req.ContactNumber),
	}
	if req.Price != nil {
		property.Price = *req.Price
	}
	if property.Status == "" {
		property.Status = models.PropertyStatusAvailable
	}

	switch actor.Role {
	case models.RoleAgent:
		property.AgentID = utils.ToPtr(actor.ID)
		property.FranchiseID = actor.FranchiseID
	case models.RoleFranchise:
		property.FranchiseID = actor.FranchiseID
	case models.RoleSuperAdmin:
		property.AgentID = req.AgentID
		property.FranchiseID = req.FranchiseID
	default:
		return nil, NewBusinessError("CREATE_PROPERTY_FAILED", "Failed to create property", ErrInsufficientRole)
	}

	property.Images = pf.uploadImages(ctx, media.ImagePaths)
	if video := uploadTemp(ctx, pf.uploader, media.VideoPath, utils.DefaultMediaFolder, utils.ResourceTypeVideo); video != nil {
		property.Video = video.URL
	}

	if err := pf.propertyRepo.Save(ctx, property); err != nil {
		return nil, NewBusinessError("CREATE_PROPERTY_FAILED", "Failed to create property", err)
	}
	return property, nil
}

func (pf *PropertyFlowImpl) UpdateProperty(ctx context.Context, actor *models.Account, id uint, req *dto.UpdatePropertyRequest, media dto.PropertyMedia) (*models.Property, error) {
	defer removeTemp(media.VideoPath)
	defer removeTemp(media.ImagePaths...)

	if len(media.ImagePaths) > utils.MaxPropertyImages {
		return nil, NewBusinessError("UPDATE_PROPERTY_FAILED", "Failed to update property", ErrTooManyImages)
	}

	property, err := pf.propertyRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_PROPERTY_FAILED", "Failed to update property", err)
	}
	if property == nil {
		return nil, NewBusinessError("UPDATE_PROPERTY_FAILED", "Failed to update property", ErrPropertyNotFound)
	}
	if !CanEditProperty(actor, property) {
		return nil, NewBusinessError("UPDATE_PROPERTY_FAILED", "Failed to update property", ErrPropertyAccessDenied)
	}

	if req.Title != nil {
		property.Title = pf.sanitizer.Text(*req.Title)
	}
	if req.Description != nil {
		property.Description = pf.sanitizer.RichText(*req.Description)
	}
	if req.Category != nil {
		property.Category = *req.Category
	}
	if req.Features != nil {
		property.Features = pf.cleanFeatures(req.Features)
	}
	if req.SellingType != nil {
		property.SellingType = *req.SellingType
	}
	if req.Price != nil {
		property.Price = *req.Price
	}
	if req.AreaSize != nil {
		property.AreaSize = req.AreaSize
	}
	if req.DistrictID != nil {
		property.DistrictID = req.DistrictID
	}
	if req.AreaID != nil {
		property.AreaID = req.AreaID
	}
	if req.Address != nil {
		property.Address = pf.sanitizer.Text(*req.Address)
	}
	if req.Status != nil {
		property.Status = *req.Status
	}
	if req.ContactNumber != nil {
		property.ContactNumber = strings.TrimSpace(*req.ContactNumber)
	}

	// new images replace the stored set
	if len(media.ImagePaths) > 0 {
		if images := pf.uploadImages(ctx, media.ImagePaths); len(images) > 0 {
			property.Images = images
		}
	}
	if video := uploadTemp(ctx, pf.uploader, media.VideoPath, utils.DefaultMediaFolder, utils.ResourceTypeVideo); video != nil {
		property.Video = video.URL
	}

	if err := pf.propertyRepo.Update(ctx, property); err != nil {
		return nil, NewBusinessError("UPDATE_PROPERTY_FAILED", "Failed to update property", err)
	}
	return property, nil
}

func (pf *PropertyFlowImpl) DeleteProperty(ctx context.Context, actor *models.Account, id uint) (*models.Property, error) {
	property, err := pf.propertyRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("DELETE_PROPERTY_FAILED", "Failed to delete property", err)
	}
	if property == nil {
		return nil, NewBusinessError("DELETE_PROPERTY_FAILED", "Failed to delete property", ErrPropertyNotFound)
	}
	if !CanEditProperty(actor, property) {
		return nil, NewBusinessError("DELETE_PROPERTY_FAILED", "Failed to delete property", ErrPropertyAccessDenied)
	}

	deleted, err := pf.propertyRepo.Delete(ctx, id)
	if err != nil {
		return nil, NewBusinessError("DELETE_PROPERTY_FAILED", "Failed to delete property", err)
	}
	if !deleted {
		return nil, NewBusinessError("DELETE_PROPERTY_FAILED", "Failed to delete property", ErrPropertyNotFound)
	}
	return property, nil
}

func (pf *PropertyFlowImpl) ListProperties(ctx context.Context, query *dto.PropertyListQuery) ([]*models.Property, error) {
	filter := models.PropertyFilter{
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		DistrictID: query.DistrictID,
		AreaID:     query.AreaID,
	}
	if s := strings.TrimSpace(query.Search); s != "" {
		filter.Search = &s
	}
	if query.Category != "" {
		filter.Category = utils.ToPtr(query.Category)
	}
	if query.SellingType != "" {
		filter.SellingType = utils.ToPtr(query.SellingType)
	}
	if query.Status != "" {
		filter.Status = utils.ToPtr(query.Status)
	}

	limit, offset := utils.ClampPage(query.Page, query.Limit)
	properties, err := pf.propertyRepo.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("LIST_PROPERTIES_FAILED", "Failed to list properties", err)
	}
	return properties, nil
}

func (pf *PropertyFlowImpl) GetProperty(ctx context.Context, id uint) (*models.Property, error) {
	property, err := pf.propertyRepo.ByIDWithRelations(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_PROPERTY_FAILED", "Failed to get property", err)
	}
	if property == nil {
		return nil, NewBusinessError("GET_PROPERTY_FAILED", "Failed to get property", ErrPropertyNotFound)
	}
	return property, nil
}

// ListMyProperties returns an agent's own listings or a franchise's listings
func (pf *PropertyFlowImpl) ListMyProperties(ctx context.Context, actor *models.Account) ([]*models.Property, error) {
	var filter models.PropertyFilter
	switch {
	case actor != nil && actor.IsAgent():
		filter.AgentID = utils.ToPtr(actor.ID)
	case actor != nil && actor.IsFranchise():
		if actor.FranchiseID == nil {
			return []*models.Property{}, nil
		}
		filter.FranchiseID = actor.FranchiseID
	default:
		return nil, NewBusinessError("LIST_PROPERTIES_FAILED", "Failed to list properties", ErrPropertyScope)
	}

	properties, err := pf.propertyRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_PROPERTIES_FAILED", "Failed to list properties", err)
	}
	return properties, nil
}

// uploadImages keeps the successful uploads in request order
func (pf *PropertyFlowImpl) uploadImages(ctx context.Context, paths []string) models.MediaList {
	images := make(models.MediaList, 0, len(paths))
	for _, p := range paths {
		if ref := uploadTemp(ctx, pf.uploader, p, utils.DefaultMediaFolder, utils.ResourceTypeImage); ref != nil {
			images = append(images, *ref)
		}
	}
	return images
}

func (pf *PropertyFlowImpl) cleanFeatures(features []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(features))
	for _, f := range features {
		if f = pf.sanitizer.Text(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
