// Package ticketing holds the narrow contract to the ticket store. The store
// itself is an external collaborator; this process reads the sender identity
// off inbound tickets and never writes ticket state beyond creation.
package ticketing

import (
	"context"
	"time"
)

// TicketStatus represents the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// Ticket is the subset of a support ticket this core consumes: the sender's
// identity fields plus enough context to reference it from a sync event.
type Ticket struct {
	ID            int64        `json:"id"`
	Subject       string       `json:"subject"`
	Body          string       `json:"body,omitempty"`
	Status        TicketStatus `json:"status"`
	SenderEmail   string       `json:"sender_email,omitempty"`
	SenderPhone   string       `json:"sender_phone,omitempty"`
	SenderName    string       `json:"sender_name,omitempty"`
	SenderCompany string       `json:"sender_company,omitempty"`
	CustomerID    int64        `json:"customer_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Store is the consumed ticket-store collaborator.
type Store interface {
	// Create persists a new ticket and returns it with its assigned ID
	Create(ctx context.Context, ticket *Ticket) (*Ticket, error)
	// FindByID retrieves a ticket; shared.ErrNotFound when absent
	FindByID(ctx context.Context, id int64) (*Ticket, error)
}
