// Package models contains domain entities of the property marketplace
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Account roles
const (
	RoleUser       = "user"
	RoleAgent      = "agent"
	RoleFranchise  = "franchise"
	RoleSuperAdmin = "superadmin"
)

// Account statuses. Pending and rejected are not assigned by this service but
// still appear on rows imported from older deployments.
const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
	AccountStatusPending  = "pending"
	AccountStatusRejected = "rejected"
)

type Account struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Contact      string     `gorm:"size:20;not null;uniqueIndex:uk_accounts_contact" json:"contact"`
	Email        string     `gorm:"size:255;not null;uniqueIndex:uk_accounts_email" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"` // Never serialize password hash
	Role         string     `gorm:"size:20;not null;default:user;index:idx_accounts_role" json:"role"`
	Status       string     `gorm:"size:20;not null;default:active;index:idx_accounts_status" json:"status"`
	Avatar       string     `gorm:"size:512" json:"avatar"`
	FranchiseID  *uint      `gorm:"index:idx_accounts_franchise_id" json:"franchiseId,omitempty"`
	Franchise    *Franchise `gorm:"foreignKey:FranchiseID;references:ID" json:"franchise,omitempty"`

	// Password reset
	OTPHash      *string    `gorm:"column:otp_hash;size:255" json:"-"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at" json:"-"`
	OTPAttempts  int        `gorm:"column:otp_attempts;not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_accounts_created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate normalizes identity fields and forces new agents to start inactive.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Contact = strings.TrimSpace(a.Contact)
	a.Name = strings.TrimSpace(a.Name)
	if a.Role == "" {
		a.Role = RoleUser
	}
	if a.Role == RoleAgent {
		a.Status = AccountStatusInactive
	}
	if a.Status == "" {
		a.Status = AccountStatusActive
	}
	return nil
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID            *uint
	IDs           []uint
	Email         *string
	Contact       *string
	Role          *string
	Status        *string
	FranchiseID   *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *Account) IsAgent() bool {
	return a.Role == RoleAgent
}

func (a *Account) IsFranchise() bool {
	return a.Role == RoleFranchise
}

func (a *Account) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// IsValidRole reports whether role is one of the known account roles
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAgent, RoleFranchise, RoleSuperAdmin:
		return true
	}
	return false
}
