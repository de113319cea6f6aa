package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk/backend/internal/application/ticketing"
	"github.com/supportdesk/backend/internal/interfaces/http/middleware"
)

// TicketHandler handles ticket intake HTTP requests
type TicketHandler struct {
	BaseHandler
	ticketService *ticketing.TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketService *ticketing.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

// Create persists an inbound ticket. The sender's identity fields feed the
// customer sync pipeline asynchronously; the response never waits on
// resolution.
func (h *TicketHandler) Create(c *gin.Context) {
	var input ticketing.CreateTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ticket)
}

// Get retrieves a ticket by ID
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "Invalid ticket ID")
		return
	}

	ticket, err := h.ticketService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ticket)
}
