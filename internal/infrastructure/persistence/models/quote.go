package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supportdesk/backend/internal/domain/quoting"
)

// QuoteModel is the persistence model for quote drafts
type QuoteModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Status       string          `gorm:"type:varchar(20);not null;default:'draft';index"`
	Currency     string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Lines        []byte          `gorm:"type:jsonb;not null"`
	Total        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ContactEmail string          `gorm:"type:varchar(200);index"`
	ContactPhone string          `gorm:"type:varchar(50)"`
	ContactName  string          `gorm:"type:varchar(200)"`
	CompanyName  string          `gorm:"type:varchar(200)"`
	CustomerID   int64           `gorm:"index"`
	Notes        string          `gorm:"type:text"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts the persistence model to a domain Quote
func (m *QuoteModel) ToDomain() (*quoting.Quote, error) {
	var lines []quoting.QuoteLine
	if len(m.Lines) > 0 {
		if err := json.Unmarshal(m.Lines, &lines); err != nil {
			return nil, err
		}
	}
	return &quoting.Quote{
		ID:           m.ID,
		Status:       quoting.QuoteStatus(m.Status),
		Currency:     m.Currency,
		Lines:        lines,
		Total:        m.Total,
		ContactEmail: m.ContactEmail,
		ContactPhone: m.ContactPhone,
		ContactName:  m.ContactName,
		CompanyName:  m.CompanyName,
		CustomerID:   m.CustomerID,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// QuoteModelFromDomain creates a persistence model from a domain Quote
func QuoteModelFromDomain(q *quoting.Quote) (*QuoteModel, error) {
	lines, err := json.Marshal(q.Lines)
	if err != nil {
		return nil, err
	}
	return &QuoteModel{
		ID:           q.ID,
		Status:       string(q.Status),
		Currency:     q.Currency,
		Lines:        lines,
		Total:        q.Total,
		ContactEmail: q.ContactEmail,
		ContactPhone: q.ContactPhone,
		ContactName:  q.ContactName,
		CompanyName:  q.CompanyName,
		CustomerID:   q.CustomerID,
		Notes:        q.Notes,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}, nil
}
