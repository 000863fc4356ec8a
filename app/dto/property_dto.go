package dto

// CreatePropertyRequest is the multipart payload of POST /properties
type CreatePropertyRequest struct {
	Title         string   `json:"title" form:"title" validate:"required,min=2,max=255"`
	Description   string   `json:"description" form:"description" validate:"omitempty,max=20000"`
	Category      string   `json:"category" form:"category" validate:"required,oneof=Property Plot House 'Agricultural Land' 'Property Land'"`
	Features      []string `json:"features" form:"features" validate:"omitempty,max=50,dive,max=100"`
	SellingType   string   `json:"sellingType" form:"sellingType" validate:"required,oneof=Sale Rent Lease"`
	Price         *float64 `json:"price" form:"price" validate:"required,gte=0"`
	AreaSize      *float64 `json:"areaSize" form:"areaSize" validate:"omitempty,gte=0"`
	DistrictID    *uint    `json:"districtId" form:"districtId" validate:"omitempty,gt=0"`
	AreaID        *uint    `json:"areaId" form:"areaId" validate:"omitempty,gt=0"`
	Address       string   `json:"address" form:"address" validate:"omitempty,max=512"`
	Status        string   `json:"status" form:"status" validate:"omitempty,oneof=Available Sold Rented Pending"`
	ContactNumber string   `json:"contactNumber" form:"contactNumber" validate:"omitempty,max=20"`
	// honoured for superadmin callers only
	AgentID     *uint `json:"agentId" form:"agentId" validate:"omitempty,gt=0"`
	FranchiseID *uint `json:"franchiseId" form:"franchiseId" validate:"omitempty,gt=0"`
}

// UpdatePropertyRequest patches a listing; nil fields are left untouched
type UpdatePropertyRequest struct {
	Title         *string  `json:"title" form:"title" validate:"omitempty,min=2,max=255"`
	Description   *string  `json:"description" form:"description" validate:"omitempty,max=20000"`
	Category      *string  `json:"category" form:"category" validate:"omitempty,oneof=Property Plot House 'Agricultural Land' 'Property Land'"`
	Features      []string `json:"features" form:"features" validate:"omitempty,max=50,dive,max=100"`
	SellingType   *string  `json:"sellingType" form:"sellingType" validate:"omitempty,oneof=Sale Rent Lease"`
	Price         *float64 `json:"price" form:"price" validate:"omitempty,gte=0"`
	AreaSize      *float64 `json:"areaSize" form:"areaSize" validate:"omitempty,gte=0"`
	DistrictID    *uint    `json:"districtId" form:"districtId" validate:"omitempty,gt=0"`
	AreaID        *uint    `json:"areaId" form:"areaId" validate:"omitempty,gt=0"`
	Address       *string  `json:"address" form:"address" validate:"omitempty,max=512"`
	Status        *string  `json:"status" form:"status" validate:"omitempty,oneof=Available Sold Rented Pending"`
	ContactNumber *string  `json:"contactNumber" form:"contactNumber" validate:"omitempty,max=20"`
}

// PropertyMedia lists the temp files received with a listing request
type PropertyMedia struct {
	ImagePaths []string
	VideoPath  string
}

// PropertyListQuery is bound from the GET /properties query string
type PropertyListQuery struct {
	Search      string   `query:"search" validate:"omitempty,max=200"`
	Category    string   `query:"category" validate:"omitempty,max=40"`
	SellingType string   `query:"sellingType" validate:"omitempty,max=20"`
	Status      string   `query:"status" validate:"omitempty,max=20"`
	MinPrice    *float64 `query:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice    *float64 `query:"maxPrice" validate:"omitempty,gte=0"`
	DistrictID  *uint    `query:"districtId" validate:"omitempty,gt=0"`
	AreaID      *uint    `query:"areaId" validate:"omitempty,gt=0"`
	Page        int      `query:"page" validate:"omitempty,gte=0"`
	Limit       int      `query:"limit" validate:"omitempty,gte=0"`
}
