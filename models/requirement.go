package models

import "time"

// Requirement is a free form "looking for" request left by a visitor
type Requirement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Phone       string    `gorm:"size:20;not null" json:"phone"`
	Requirement string    `gorm:"type:text;not null" json:"requirement"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_requirements_created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Requirement) TableName() string {
	return "requirements"
}

type RequirementFilter struct {
	ID    *uint
	Phone *string
}
