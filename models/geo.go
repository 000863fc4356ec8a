package models

import "time"

type District struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null;uniqueIndex:uk_districts_name" json:"name"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (District) TableName() string {
	return "districts"
}

type DistrictFilter struct {
	ID   *uint
	Name *string
}

type Area struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:120;not null;uniqueIndex:uk_areas_name_district,priority:1" json:"name"`
	DistrictID *uint     `gorm:"uniqueIndex:uk_areas_name_district,priority:2" json:"districtId,omitempty"`
	District   *District `gorm:"foreignKey:DistrictID;references:ID" json:"district,omitempty"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Area) TableName() string {
	return "areas"
}

type AreaFilter struct {
	ID         *uint
	Name       *string
	DistrictID *uint
}
