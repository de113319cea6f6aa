package ticketing

import (
	"context"

	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/application/event"
	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/domain/ticketing"
)

// CreateTicketInput is the ticket intake payload
type CreateTicketInput struct {
	Subject       string `json:"subject" binding:"required,max=300"`
	Body          string `json:"body"`
	SenderEmail   string `json:"sender_email"`
	SenderPhone   string `json:"sender_phone"`
	SenderName    string `json:"sender_name"`
	SenderCompany string `json:"sender_company"`
}

// TicketService handles ticket intake. Creating a ticket never blocks on
// customer resolution: the sender's identity fields are enqueued as a sync
// event and the ticket write returns immediately.
type TicketService struct {
	store  ticketing.Store
	sync   *event.SyncService
	logger *zap.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(store ticketing.Store, sync *event.SyncService, logger *zap.Logger) *TicketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:  store,
		sync:   sync,
		logger: logger,
	}
}

// Create persists an inbound ticket and enqueues a customer sync for its
// sender. The ticket succeeds even when enqueue fails.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*ticketing.Ticket, error) {
	if input.Subject == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Ticket subject is required")
	}

	ticket, err := s.store.Create(ctx, &ticketing.Ticket{
		Subject:       input.Subject,
		Body:          input.Body,
		Status:        ticketing.TicketStatusOpen,
		SenderEmail:   input.SenderEmail,
		SenderPhone:   input.SenderPhone,
		SenderName:    input.SenderName,
		SenderCompany: input.SenderCompany,
	})
	if err != nil {
		return nil, err
	}

	first, last := splitSenderName(input.SenderName)
	s.sync.EnqueueCustomerSync(ctx, event.SyncPayload{
		Signal: crm.Signal{
			Email:     input.SenderEmail,
			Phone:     input.SenderPhone,
			FirstName: first,
			LastName:  last,
			Company:   input.SenderCompany,
			Source:    crm.SignalSourceTicket,
		},
		TicketID: ticket.ID,
	})

	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("subject", ticket.Subject),
	)
	return ticket, nil
}

// Get retrieves a ticket by ID
func (s *TicketService) Get(ctx context.Context, id int64) (*ticketing.Ticket, error) {
	return s.store.FindByID(ctx, id)
}

// splitSenderName splits a free-form sender name into first/last on the
// final space
func splitSenderName(name string) (string, string) {
	name = crm.NormalizeName(name)
	if name == "" {
		return "", ""
	}
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
