package models

import "time"

// StreamSlot is the only slot a live stream row may occupy
const StreamSlot int16 = 1

// Stream is the single live stream shown on the landing page
type Stream struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slot       int16     `gorm:"not null;default:1;uniqueIndex:uk_streams_slot" json:"-"`
	YoutubeURL string    `gorm:"column:youtube_url;size:512;not null" json:"youtubeUrl"`
	IsActive   bool      `gorm:"not null;default:false" json:"isActive"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updatedAt"`
}

func (Stream) TableName() string {
	return "streams"
}
