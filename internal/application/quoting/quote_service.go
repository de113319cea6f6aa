package quoting

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/application/event"
	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/quoting"
)

// QuoteLineInput is one priced line from the quote form
type QuoteLineInput struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// SubmitQuoteInput is the quote form payload
type SubmitQuoteInput struct {
	Currency     string           `json:"currency"`
	Lines        []QuoteLineInput `json:"lines" binding:"required,min=1,dive"`
	ContactEmail string           `json:"contact_email"`
	ContactPhone string           `json:"contact_phone"`
	ContactName  string           `json:"contact_name"`
	CompanyName  string           `json:"company_name"`
	Notes        string           `json:"notes"`
}

// QuoteService handles quote draft submissions. Every submission feeds the
// submitter's identity fields into the customer sync pipeline so quotes
// eventually hang off the canonical customer record.
type QuoteService struct {
	repo   quoting.QuoteRepository
	sync   *event.SyncService
	logger *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(repo quoting.QuoteRepository, sync *event.SyncService, logger *zap.Logger) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		repo:   repo,
		sync:   sync,
		logger: logger,
	}
}

// Submit persists a quote draft and enqueues a customer sync for the
// submitter. The quote succeeds even when enqueue fails.
func (s *QuoteService) Submit(ctx context.Context, input SubmitQuoteInput) (*quoting.Quote, error) {
	lines := make([]quoting.QuoteLine, len(input.Lines))
	for i, l := range input.Lines {
		lines[i] = quoting.QuoteLine{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}

	quote, err := quoting.NewQuote(input.Currency, lines)
	if err != nil {
		return nil, err
	}
	quote.SetContact(input.ContactEmail, input.ContactPhone, input.ContactName, input.CompanyName)
	quote.Notes = input.Notes

	if err := s.repo.Save(ctx, quote); err != nil {
		return nil, err
	}

	s.sync.EnqueueCustomerSync(ctx, event.SyncPayload{
		Signal: crm.Signal{
			Email:     input.ContactEmail,
			Phone:     input.ContactPhone,
			FirstName: firstNamePart(input.ContactName),
			LastName:  lastNamePart(input.ContactName),
			Company:   input.CompanyName,
			Metadata:  map[string]string{"quote_id": quote.ID.String()},
			Source:    crm.SignalSourceQuoteForm,
		},
	})

	s.logger.Info("quote draft submitted",
		zap.String("quote_id", quote.ID.String()),
		zap.String("total", quote.Total.String()),
	)
	return quote, nil
}

// Get retrieves a quote by ID
func (s *QuoteService) Get(ctx context.Context, id uuid.UUID) (*quoting.Quote, error) {
	return s.repo.FindByID(ctx, id)
}

// AttachCustomer records the resolved customer on a quote
func (s *QuoteService) AttachCustomer(ctx context.Context, id uuid.UUID, customerID int64) error {
	return s.repo.AttachCustomer(ctx, id, customerID)
}

func firstNamePart(name string) string {
	first, _ := splitName(name)
	return first
}

func lastNamePart(name string) string {
	_, last := splitName(name)
	return last
}

// splitName splits a free-form contact name into first/last on the final space
func splitName(name string) (string, string) {
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
