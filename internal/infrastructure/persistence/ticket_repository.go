package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/domain/ticketing"
	"github.com/supportdesk/backend/internal/infrastructure/persistence/models"
)

// GormTicketStore implements ticketing.Store using GORM
type GormTicketStore struct {
	db *gorm.DB
}

// NewGormTicketStore creates a new GORM-based ticket store
func NewGormTicketStore(db *gorm.DB) *GormTicketStore {
	return &GormTicketStore{db: db}
}

// Create persists a new ticket and returns it with its assigned ID
func (s *GormTicketStore) Create(ctx context.Context, ticket *ticketing.Ticket) (*ticketing.Ticket, error) {
	model := models.TicketModelFromDomain(ticket)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	if model.Status == "" {
		model.Status = string(ticketing.TicketStatusOpen)
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID retrieves a ticket by ID
func (s *GormTicketStore) FindByID(ctx context.Context, id int64) (*ticketing.Ticket, error) {
	var model models.TicketModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ ticketing.Store = (*GormTicketStore)(nil)
