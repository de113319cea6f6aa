package quoting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supportdesk/backend/internal/domain/shared"
)

// QuoteStatus represents the lifecycle state of a quote draft
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusAccepted  QuoteStatus = "accepted"
	QuoteStatusDeclined  QuoteStatus = "declined"
	QuoteStatusWithdrawn QuoteStatus = "withdrawn"
)

// QuoteLine is a single priced line on a quote
type QuoteLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Total returns the line total
func (l QuoteLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(l.Quantity)
}

// Quote is a priced quote draft submitted through the quote form. The
// submitter's identity fields ride along so the form submission can feed the
// customer sync pipeline; CustomerID is filled lazily once resolution runs.
type Quote struct {
	ID            uuid.UUID       `json:"id"`
	Status        QuoteStatus     `json:"status"`
	Currency      string          `json:"currency"`
	Lines         []QuoteLine     `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	ContactEmail  string          `json:"contact_email,omitempty"`
	ContactPhone  string          `json:"contact_phone,omitempty"`
	ContactName   string          `json:"contact_name,omitempty"`
	CompanyName   string          `json:"company_name,omitempty"`
	CustomerID    int64           `json:"customer_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewQuote creates a draft quote from form input
func NewQuote(currency string, lines []QuoteLine) (*Quote, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_QUOTE", "Quote must carry at least one line")
	}
	if currency == "" {
		currency = "USD"
	}

	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity.IsNegative() || line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_LINE", "Quote line amounts cannot be negative")
		}
		total = total.Add(line.Total())
	}

	now := time.Now()
	return &Quote{
		ID:        uuid.New(),
		Status:    QuoteStatusDraft,
		Currency:  currency,
		Lines:     lines,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetContact attaches the submitter's identity fields
func (q *Quote) SetContact(email, phone, name, company string) {
	q.ContactEmail = email
	q.ContactPhone = phone
	q.ContactName = name
	q.CompanyName = company
	q.UpdatedAt = time.Now()
}

// AttachCustomer records the canonical customer the quote resolved to
func (q *Quote) AttachCustomer(customerID int64) error {
	if customerID <= 0 {
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer ID must be positive")
	}
	q.CustomerID = customerID
	q.UpdatedAt = time.Now()
	return nil
}

// MarkSent transitions a draft to sent
func (q *Quote) MarkSent() error {
	if q.Status != QuoteStatusDraft {
		return shared.ErrInvalidState
	}
	q.Status = QuoteStatusSent
	q.UpdatedAt = time.Now()
	return nil
}
