package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/supportdesk/backend/internal/application/quoting"
	"github.com/supportdesk/backend/internal/interfaces/http/middleware"
)

// QuoteHandler handles quote form HTTP requests
type QuoteHandler struct {
	BaseHandler
	quoteService *quoting.QuoteService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteService *quoting.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
	}
}

// Submit persists a quote draft from the public quote form. The contact
// fields feed the customer sync pipeline asynchronously.
func (h *QuoteHandler) Submit(c *gin.Context) {
	var input quoting.SubmitQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	quote, err := h.quoteService.Submit(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, quote)
}

// Get retrieves a quote by ID
func (h *QuoteHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	quote, err := h.quoteService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}
