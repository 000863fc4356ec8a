package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Property categories
const (
	CategoryProperty         = "Property"
	CategoryPlot             = "Plot"
	CategoryHouse            = "House"
	CategoryAgriculturalLand = "Agricultural Land"
	CategoryPropertyLand     = "Property Land"
)

// Selling types
const (
	SellingTypeSale  = "Sale"
	SellingTypeRent  = "Rent"
	SellingTypeLease = "Lease"
)

// Listing statuses
const (
	PropertyStatusAvailable = "Available"
	PropertyStatusSold      = "Sold"
	PropertyStatusRented    = "Rented"
	PropertyStatusPending   = "Pending"
)

// MediaRef points at an uploaded asset
type MediaRef struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
}

// MediaList is stored as a jsonb array
type MediaList []MediaRef

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MediaList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported media list source %T", src)
	}
}

type Property struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:255;not null;index:idx_properties_title" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Category      string         `gorm:"size:40;not null;index:idx_properties_category" json:"category"`
	Features      pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"features"`
	Images        MediaList      `gorm:"type:jsonb;not null;default:'[]'" json:"images"`
	Video         string         `gorm:"size:512" json:"video"`
	SellingType   string         `gorm:"size:20;not null;index:idx_properties_selling_type" json:"sellingType"`
	Price         float64        `gorm:"not null;index:idx_properties_price" json:"price"`
	AreaSize      *float64       `json:"areaSize,omitempty"`
	DistrictID    *uint          `gorm:"index:idx_properties_district_id" json:"districtId,omitempty"`
	District      *District      `gorm:"foreignKey:DistrictID;references:ID" json:"district,omitempty"`
	AreaID        *uint          `gorm:"index:idx_properties_area_id" json:"areaId,omitempty"`
	Area          *Area          `gorm:"foreignKey:AreaID;references:ID" json:"area,omitempty"`
	Address       string         `gorm:"size:512" json:"address"`
	Status        string         `gorm:"size:20;not null;default:Available;index:idx_properties_status" json:"status"`
	ContactNumber string         `gorm:"size:20" json:"contactNumber"`
	AgentID       *uint          `gorm:"index:idx_properties_agent_id" json:"agentId,omitempty"`
	Agent         *Account       `gorm:"foreignKey:AgentID;references:ID" json:"agent,omitempty"`
	FranchiseID   *uint          `gorm:"index:idx_properties_franchise_id" json:"franchiseId,omitempty"`
	Franchise     *Franchise     `gorm:"foreignKey:FranchiseID;references:ID" json:"franchise,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_properties_created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Property) TableName() string {
	return "properties"
}

// PropertyFilter represents listing search criteria
type PropertyFilter struct {
	ID          *uint
	Search      *string
	Category    *string
	SellingType *string
	Status      *string
	MinPrice    *float64
	MaxPrice    *float64
	AgentID     *uint
	FranchiseID *uint
	DistrictID  *uint
	AreaID      *uint
}
