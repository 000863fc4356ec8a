package dto

type CreateDistrictRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type CreateAreaRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	DistrictID uint   `json:"districtId" validate:"required,gt=0"`
}

type UpdateAreaRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=255"`
	DistrictID *uint   `json:"districtId" validate:"omitempty,gt=0"`
}

// SetStreamRequest upserts the single live stream record
type SetStreamRequest struct {
	YoutubeURL string `json:"youtubeUrl" validate:"required,url,max=512"`
	IsActive   *bool  `json:"isActive"`
}
