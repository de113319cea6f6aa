package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/supportdesk/backend/internal/application/event"
)

// OutboxHandler exposes the operator surface of the customer-sync
// outbox: queue depth, dead-letter inspection, and manual retry.
type OutboxHandler struct {
	BaseHandler
	syncService *event.SyncService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(syncService *event.SyncService) *OutboxHandler {
	return &OutboxHandler{syncService: syncService}
}

// GetStats returns entry counts per delivery status
func (h *OutboxHandler) GetStats(c *gin.Context) {
	stats, err := h.syncService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// GetEntry returns one outbox entry with its retry history, so an
// operator can see the last error before retrying a dead letter
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	entry, err := h.syncService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryDeadEntry resets a dead letter entry so the worker picks it up
// again
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	entry, err := h.syncService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

func (h *OutboxHandler) entryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID")
		return uuid.Nil, false
	}
	return id, true
}
