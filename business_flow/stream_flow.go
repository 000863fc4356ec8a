package businessflow

import (
	"context"
	"log"
	"strings"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
)

// StreamFlow manages the single live stream shown on the landing page
type StreamFlow interface {
	SetStream(ctx context.Context, req *dto.SetStreamRequest) (*models.Stream, error)
	CurrentStream(ctx context.Context) (*models.Stream, error)
	DeleteStream(ctx context.Context) error
}

// StreamFlowImpl implements StreamFlow
type StreamFlowImpl struct {
	streamRepo repository.StreamRepository
	cache      services.CacheService
}

func NewStreamFlow(streamRepo repository.StreamRepository, cache services.CacheService) StreamFlow {
	if cache == nil {
		cache = services.NewNoopCache()
	}
	return &StreamFlowImpl{streamRepo: streamRepo, cache: cache}
}

func (sf *StreamFlowImpl) SetStream(ctx context.Context, req *dto.SetStreamRequest) (*models.Stream, error) {
	stream, err := sf.streamRepo.Upsert(ctx, strings.TrimSpace(req.YoutubeURL), utils.IsTrue(req.IsActive))
	if err != nil {
		return nil, NewBusinessError("SET_STREAM_FAILED", "Failed to set stream", err)
	}
	sf.invalidate(ctx)
	return stream, nil
}

// CurrentStream returns the stream record, or nil when none is set
func (sf *StreamFlowImpl) CurrentStream(ctx context.Context) (*models.Stream, error) {
	var cached models.Stream
	hit, err := sf.cache.GetJSON(ctx, services.CacheKeyStreamCurrent, &cached)
	if err != nil {
		log.Printf("cache read %s failed: %v", services.CacheKeyStreamCurrent, err)
	}
	if hit {
		return &cached, nil
	}

	stream, err := sf.streamRepo.Current(ctx)
	if err != nil {
		return nil, NewBusinessError("GET_STREAM_FAILED", "Failed to get stream", err)
	}
	if stream == nil {
		return nil, nil
	}

	if err := sf.cache.SetJSON(ctx, services.CacheKeyStreamCurrent, stream); err != nil {
		log.Printf("cache write %s failed: %v", services.CacheKeyStreamCurrent, err)
	}
	return stream, nil
}

func (sf *StreamFlowImpl) DeleteStream(ctx context.Context) error {
	deleted, err := sf.streamRepo.DeleteCurrent(ctx)
	if err != nil {
		return NewBusinessError("DELETE_STREAM_FAILED", "Failed to delete stream", err)
	}
	if !deleted {
		return NewBusinessError("DELETE_STREAM_FAILED", "Failed to delete stream", ErrStreamNotFound)
	}
	sf.invalidate(ctx)
	return nil
}

func (sf *StreamFlowImpl) invalidate(ctx context.Context) {
	if err := sf.cache.Invalidate(ctx, services.CacheKeyStreamCurrent); err != nil {
		log.Printf("cache invalidate %s failed: %v", services.CacheKeyStreamCurrent, err)
	}
}
