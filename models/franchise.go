package models

import (
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Franchise statuses
const (
	FranchiseStatusPending  = "pending"
	FranchiseStatusApproved = "approved"
	FranchiseStatusRejected = "rejected"
)

type Franchise struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	AccountID *uint         `gorm:"uniqueIndex:uk_franchises_account_id" json:"userId,omitempty"`
	Account   *Account      `gorm:"foreignKey:AccountID;references:ID" json:"user,omitempty"`
	FullName  string        `gorm:"size:255;not null" json:"fullName"`
	Email     string        `gorm:"size:255;not null;uniqueIndex:uk_franchises_email" json:"email"`
	Contact   string        `gorm:"size:20" json:"contact"`
	City      string        `gorm:"size:120" json:"city"`
	Image     string        `gorm:"size:512" json:"image"`
	Status    string        `gorm:"size:20;not null;default:pending;index:idx_franchises_status" json:"status"`
	AgentIDs  pq.Int64Array `gorm:"type:bigint[];not null;default:'{}'" json:"agents"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_franchises_created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Franchise) TableName() string {
	return "franchises"
}

func (f *Franchise) BeforeCreate(tx *gorm.DB) error {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	if f.Status == "" {
		f.Status = FranchiseStatusPending
	}
	if f.AgentIDs == nil {
		f.AgentIDs = pq.Int64Array{}
	}
	return nil
}

// HasAgent reports whether agentID is in the franchise roster
func (f *Franchise) HasAgent(agentID uint) bool {
	return slices.Contains(f.AgentIDs, int64(agentID))
}

// FranchiseFilter represents filter criteria for franchise queries
type FranchiseFilter struct {
	ID        *uint
	AccountID *uint
	Email     *string
	Status    *string
	City      *string
}

// IsValidFranchiseStatus reports whether status is one of the schema values
func IsValidFranchiseStatus(status string) bool {
	switch status {
	case FranchiseStatusPending, FranchiseStatusApproved, FranchiseStatusRejected:
		return true
	}
	return false
}
