package models

import "time"

// Enquiry statuses
const (
	EnquiryStatusNew        = "new"
	EnquiryStatusInProgress = "in-progress"
	EnquiryStatusClosed     = "closed"
)

type Enquiry struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	AccountID *uint    `gorm:"index:idx_enquiries_account_id" json:"userId,omitempty"`
	Account   *Account `gorm:"foreignKey:AccountID;references:ID" json:"user,omitempty"`
	Name      string   `gorm:"size:255;not null" json:"name"`
	Contact   string   `gorm:"size:20;not null" json:"contact"`
	Email     string   `gorm:"size:255;not null" json:"email"`
	City      string   `gorm:"size:120;not null" json:"city"`
	Message   string   `gorm:"type:text" json:"message"`
	Status    string   `gorm:"size:20;not null;default:new;index:idx_enquiries_status" json:"status"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_enquiries_created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Enquiry) TableName() string {
	return "enquiries"
}

type EnquiryFilter struct {
	ID        *uint
	AccountID *uint
	Status    *string
}
