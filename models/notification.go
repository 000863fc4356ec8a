package models

import "time"

// RecipientAll addresses a notification to every account
const RecipientAll = "all"

type Notification struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	RecipientID *uint    `gorm:"index:idx_notifications_recipient_id" json:"recipientId,omitempty"`
	Broadcast   bool     `gorm:"not null;default:false;index:idx_notifications_broadcast" json:"broadcast"`
	SenderID    *uint    `gorm:"index:idx_notifications_sender_id" json:"senderId,omitempty"`
	Sender      *Account `gorm:"foreignKey:SenderID;references:ID" json:"sender,omitempty"`
	Message     string   `gorm:"type:text;not null" json:"message"`
	IsRead      bool     `gorm:"not null;default:false" json:"isRead"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_notifications_created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

// IsAddressedTo reports whether the notification targets accountID directly
func (n *Notification) IsAddressedTo(accountID uint) bool {
	return n.RecipientID != nil && *n.RecipientID == accountID
}

type NotificationFilter struct {
	ID          *uint
	RecipientID *uint
	// IncludeBroadcast widens a RecipientID filter to broadcast rows
	IncludeBroadcast bool
	SenderID         *uint
}
