package models

import (
	"time"

	"github.com/supportdesk/backend/internal/domain/ticketing"
)

// TicketModel is the persistence model for support tickets
type TicketModel struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	Subject       string    `gorm:"type:varchar(300);not null"`
	Body          string    `gorm:"type:text"`
	Status        string    `gorm:"type:varchar(20);not null;default:'open';index"`
	SenderEmail   string    `gorm:"type:varchar(200);index"`
	SenderPhone   string    `gorm:"type:varchar(50)"`
	SenderName    string    `gorm:"type:varchar(200)"`
	SenderCompany string    `gorm:"type:varchar(200)"`
	CustomerID    int64     `gorm:"index"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TicketModel) TableName() string {
	return "tickets"
}

// ToDomain converts the persistence model to a domain Ticket
func (m *TicketModel) ToDomain() *ticketing.Ticket {
	return &ticketing.Ticket{
		ID:            m.ID,
		Subject:       m.Subject,
		Body:          m.Body,
		Status:        ticketing.TicketStatus(m.Status),
		SenderEmail:   m.SenderEmail,
		SenderPhone:   m.SenderPhone,
		SenderName:    m.SenderName,
		SenderCompany: m.SenderCompany,
		CustomerID:    m.CustomerID,
		CreatedAt:     m.CreatedAt,
	}
}

// TicketModelFromDomain creates a persistence model from a domain Ticket
func TicketModelFromDomain(t *ticketing.Ticket) *TicketModel {
	return &TicketModel{
		ID:            t.ID,
		Subject:       t.Subject,
		Body:          t.Body,
		Status:        string(t.Status),
		SenderEmail:   t.SenderEmail,
		SenderPhone:   t.SenderPhone,
		SenderName:    t.SenderName,
		SenderCompany: t.SenderCompany,
		CustomerID:    t.CustomerID,
		CreatedAt:     t.CreatedAt,
	}
}
