package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/gofiber/fiber/v3"
)

// DefaultPresenceHeartbeat is used when no heartbeat interval is configured
const DefaultPresenceHeartbeat = 25 * time.Second

// PresenceHandler serves the presence event stream and the online list
type PresenceHandler struct {
	baseHandler
	registry  services.PresenceRegistry
	heartbeat time.Duration
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(registry services.PresenceRegistry, heartbeat time.Duration) *PresenceHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultPresenceHeartbeat
	}
	return &PresenceHandler{
		baseHandler: newBaseHandler(),
		registry:    registry,
		heartbeat:   heartbeat,
	}
}

// Stream keeps the caller online for as long as the connection stays open
// @Summary Presence stream
// @Tags Presence
// @Produce text/event-stream
// @Success 200 {string} string "Server-sent events"
// @Failure 503 {object} dto.ErrorResponse "Presence unavailable"
// @Router /api/v1/presence/stream [get]
func (h *PresenceHandler) Stream(c fiber.Ctx) error {
	account, err := h.account(c)
	if account == nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, release, err := h.registry.Connect(ctx, account.ID)
	if err != nil {
		cancel()
		if errors.Is(err, services.ErrPresenceClosed) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Presence is unavailable", "PRESENCE_CLOSED", nil)
		}
		log.Println("Presence connect failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Internal Server Error", "PRESENCE_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	heartbeat := h.heartbeat
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer release()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case ev, open := <-events:
				if !open {
					return
				}
				if err := writeEvent(w, "presence", ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}

// writeEvent writes one server-sent event and flushes it; a flush error means the client is gone
func writeEvent(w *bufio.Writer, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return w.Flush()
}

// Online lists accounts holding an open presence stream
// @Summary Online accounts
// @Tags Presence
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.PresenceOnlineResponse} "Online accounts"
// @Router /api/v1/presence/online [get]
func (h *PresenceHandler) Online(c fiber.Ctx) error {
	ids := h.registry.Online()
	if ids == nil {
		ids = []uint{}
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Online accounts fetched successfully", dto.PresenceOnlineResponse{
		Count:      len(ids),
		AccountIDs: ids,
	})
}
