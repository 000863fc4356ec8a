package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreamRepositoryImpl implements StreamRepository interface
type StreamRepositoryImpl struct {
	db *gorm.DB
}

// NewStreamRepository creates a new stream repository
func NewStreamRepository(db *gorm.DB) StreamRepository {
	return &StreamRepositoryImpl{db: db}
}

func (r *StreamRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Current returns the live stream row, or nil when none is set
func (r *StreamRepositoryImpl) Current(ctx context.Context) (*models.Stream, error) {
	var stream models.Stream
	err := r.getDB(ctx).Where("slot = ?", models.StreamSlot).First(&stream).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load stream: %w", err)
	}
	return &stream, nil
}

// Upsert writes the single stream row with INSERT ... ON CONFLICT
func (r *StreamRepositoryImpl) Upsert(ctx context.Context, youtubeURL string, isActive bool) (*models.Stream, error) {
	stream := &models.Stream{
		Slot:       models.StreamSlot,
		YoutubeURL: youtubeURL,
		IsActive:   isActive,
		UpdatedAt:  utils.UTCNow(),
	}

	err := r.getDB(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"youtube_url", "is_active", "updated_at"}),
		},
		clause.Returning{},
	).Create(stream).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save stream: %w", err)
	}
	return stream, nil
}

// DeleteCurrent removes the stream row and reports whether one existed
func (r *StreamRepositoryImpl) DeleteCurrent(ctx context.Context) (bool, error) {
	res := r.getDB(ctx).Where("slot = ?", models.StreamSlot).Delete(&models.Stream{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete stream: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
